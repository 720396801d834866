package mockapi

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/rozklad/domain"
)

// SeedInstitution is the institution every seeded record belongs to.
const SeedInstitution int64 = 1

type account struct {
	user     domain.User
	password []byte
	verified bool
	code     string
	created  time.Time
}

// Data is the in-memory state of the stub backend. All access goes through mu.
type Data struct {
	mu     sync.RWMutex
	nextID int64
	now    func() time.Time

	accounts      map[int64]*account
	groups        map[int64]domain.Group
	teachers      map[int64]domain.Teacher
	classrooms    map[int64]domain.Classroom
	subjects      map[int64]domain.Subject
	timeSlots     map[int64]domain.TimeSlot
	schedule      map[int64]domain.ScheduleEntry
	requests      map[int64]domain.ChangeRequest
	notifications map[int64]domain.Notification
}

// SeedAccount describes a login created at startup.
type SeedAccount struct {
	Username string
	Password string
	Email    string
	FullName string
	Role     domain.Role
}

// DefaultAccounts are verified logins, one per role the client distinguishes.
var DefaultAccounts = []SeedAccount{
	{Username: "admin", Password: "admin12345", Email: "admin@rozklad.local", FullName: "Site Administrator", Role: domain.RoleAdmin},
	{Username: "teacher", Password: "teacher12345", Email: "teacher@rozklad.local", FullName: "Olena Kovalenko", Role: domain.RoleTeacher},
	{Username: "student", Password: "student12345", Email: "student@rozklad.local", FullName: "Taras Melnyk", Role: domain.RoleStudent},
}

// NewData builds an empty state with the given accounts and a small sample timetable.
func NewData(accounts []SeedAccount) (*Data, error) {
	d := &Data{
		now:           time.Now,
		accounts:      make(map[int64]*account),
		groups:        make(map[int64]domain.Group),
		teachers:      make(map[int64]domain.Teacher),
		classrooms:    make(map[int64]domain.Classroom),
		subjects:      make(map[int64]domain.Subject),
		timeSlots:     make(map[int64]domain.TimeSlot),
		schedule:      make(map[int64]domain.ScheduleEntry),
		requests:      make(map[int64]domain.ChangeRequest),
		notifications: make(map[int64]domain.Notification),
	}
	for _, a := range accounts {
		acc, err := d.addAccount(a.Username, a.Email, a.FullName, a.Role, a.Password, institutionPtr(SeedInstitution))
		if err != nil {
			return nil, err
		}
		acc.verified = true
	}
	d.seedTimetable()
	return d, nil
}

func institutionPtr(id int64) *int64 {
	return &id
}

func (d *Data) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *Data) addAccount(username, email, fullName string, role domain.Role, password string, institution *int64) (*account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	acc := &account{
		user: domain.User{
			ID:            d.id(),
			Email:         email,
			Username:      username,
			FullName:      fullName,
			Role:          role,
			InstitutionID: institution,
		},
		password: hash,
		created:  d.now(),
	}
	d.accounts[acc.user.ID] = acc
	return acc, nil
}

func (d *Data) seedTimetable() {
	now := domain.NewTimestamp(d.now())
	group := domain.Group{ID: d.id(), Name: "10-A", InstitutionID: SeedInstitution, CreatedAt: now, UpdatedAt: now}
	d.groups[group.ID] = group

	teacher := domain.Teacher{ID: d.id(), FullName: "Olena Kovalenko", InstitutionID: SeedInstitution, CreatedAt: now, UpdatedAt: now}
	d.teachers[teacher.ID] = teacher

	room := domain.Classroom{ID: d.id(), Name: "101", Type: domain.ClassroomRegular, InstitutionID: SeedInstitution, CreatedAt: now, UpdatedAt: now}
	d.classrooms[room.ID] = room

	maths := domain.Subject{ID: d.id(), Name: "Mathematics", Type: domain.SubjectLecture, InstitutionID: SeedInstitution}
	d.subjects[maths.ID] = maths

	first := domain.TimeSlot{ID: d.id(), Name: "1st period", PeriodNumber: 1, StartTime: "08:30", EndTime: "09:15", InstitutionID: SeedInstitution}
	second := domain.TimeSlot{ID: d.id(), Name: "2nd period", PeriodNumber: 2, StartTime: "09:25", EndTime: "10:10", InstitutionID: SeedInstitution}
	d.timeSlots[first.ID] = first
	d.timeSlots[second.ID] = second

	for _, day := range []domain.DayOfWeek{domain.Monday, domain.Wednesday} {
		entry := domain.ScheduleEntry{
			ID:          d.id(),
			DayOfWeek:   day,
			GroupID:     group.ID,
			SubjectID:   maths.ID,
			TeacherID:   teacher.ID,
			ClassroomID: room.ID,
			TimeSlotID:  first.ID,
			Status:      domain.ScheduleScheduled,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		d.schedule[entry.ID] = d.resolve(entry)
	}
}

// resolve fills the display names of an entry from the directory.
func (d *Data) resolve(e domain.ScheduleEntry) domain.ScheduleEntry {
	e.GroupName = d.groups[e.GroupID].Name
	e.SubjectName = d.subjects[e.SubjectID].Name
	e.TeacherName = d.teachers[e.TeacherID].FullName
	e.ClassroomName = d.classrooms[e.ClassroomID].Name
	slot := d.timeSlots[e.TimeSlotID]
	e.TimeSlotName, e.StartTime, e.EndTime = slot.Name, slot.StartTime, slot.EndTime
	e.SubstituteTeacherName = nil
	if e.SubstituteTeacherID != nil {
		if t, ok := d.teachers[*e.SubstituteTeacherID]; ok {
			name := t.FullName
			e.SubstituteTeacherName = &name
		}
	}
	return e
}

// findLogin matches username or email, as the login form accepts either.
func (d *Data) findLogin(login string) *account {
	login = strings.TrimSpace(login)
	for _, acc := range d.accounts {
		if acc.user.Username == login || strings.EqualFold(acc.user.Email, login) {
			return acc
		}
	}
	return nil
}

func (d *Data) findEmail(email string) *account {
	for _, acc := range d.accounts {
		if strings.EqualFold(acc.user.Email, email) {
			return acc
		}
	}
	return nil
}

func (d *Data) findUsername(username string) *account {
	for _, acc := range d.accounts {
		if acc.user.Username == username {
			return acc
		}
	}
	return nil
}

func newCode() string {
	return fmt.Sprintf("%06d", rand.IntN(1000000))
}

// VerificationCode returns the pending code for email, as the e-mail would carry it.
func (d *Data) VerificationCode(email string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acc := d.findEmail(email)
	if acc == nil || acc.verified {
		return "", false
	}
	return acc.code, true
}

// Notify appends a notification to a user's feed.
func (d *Data) Notify(userID int64, kind domain.NotificationType, title, message string) domain.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notify(userID, kind, title, message, nil, nil)
}

func (d *Data) notify(userID int64, kind domain.NotificationType, title, message string, entryID, requestID *int64) domain.Notification {
	n := domain.Notification{
		ID:              d.id(),
		Title:           title,
		Message:         message,
		Type:            kind,
		UserID:          userID,
		ScheduleEntryID: entryID,
		ChangeRequestID: requestID,
		CreatedAt:       domain.NewTimestamp(d.now()),
	}
	d.notifications[n.ID] = n
	return n
}

// sorted returns the values of m ordered by id.
func sorted[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}
