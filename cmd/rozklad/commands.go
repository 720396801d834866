package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/rozklad/api/transport"
	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/internal/services"
	"github.com/fastygo/rozklad/usecase"
)

type permission func(u *domain.User) bool

// guard refuses a handler locally when the signed-in role may not use it. The backend
// enforces the same rule.
func (a *app) guard(allowed permission, h usecase.Handler) usecase.Handler {
	return func(ctx context.Context, args []string) (interface{}, error) {
		if !allowed(a.session.Snapshot().User) {
			return nil, domain.ErrForbidden
		}
		return h(ctx, args)
	}
}

func (a *app) flags(name string, args []string, define func(fs *flag.FlagSet)) (*flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	if define != nil {
		define(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid arguments for "+name, err)
	}
	return fs, nil
}

func idArg(fs *flag.FlagSet) (int64, error) {
	if fs.NArg() < 1 {
		return 0, domain.NewError(domain.ErrCodeInvalid, "an id argument is required")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("invalid id %q", fs.Arg(0)))
	}
	return id, nil
}

func optionalInt(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// institution defaults to the signed-in user's institution.
func (a *app) institution(explicit int64) int64 {
	if explicit != 0 {
		return explicit
	}
	if u := a.session.Snapshot().User; u != nil && u.InstitutionID != nil {
		return *u.InstitutionID
	}
	return 0
}

func (a *app) register(d *usecase.Dispatcher) {
	a.registerAuth(d)
	a.registerSchedule(d)
	a.registerRequests(d)
	a.registerDirectory(d)
	a.registerNotifications(d)

	d.RegisterQuery("status", "probe the backend and session storage", func(ctx context.Context, args []string) (interface{}, error) {
		return a.monitor.Refresh(ctx), nil
	})
	d.RegisterCommand("watch", "print new notifications as they arrive", false, a.watch)
}

func (a *app) registerAuth(d *usecase.Dispatcher) {
	d.RegisterCommand("login", "[-u username] sign in", true, func(ctx context.Context, args []string) (interface{}, error) {
		var username string
		fs, err := a.flags("login", args, func(fs *flag.FlagSet) {
			fs.StringVar(&username, "u", "", "username or email")
		})
		if err != nil {
			return nil, err
		}
		if username == "" && fs.NArg() > 0 {
			username = fs.Arg(0)
		}
		if username == "" {
			if username, err = a.readLine("Username: "); err != nil {
				return nil, err
			}
		}
		password, err := a.readSecret("Password: ")
		if err != nil {
			return nil, err
		}
		user, err := a.auth.Login(ctx, username, password)
		if err != nil {
			return nil, err
		}
		return message("Signed in as %s (%s)", user.FullName, user.Role), nil
	})

	d.RegisterCommand("logout", "sign out and forget the stored session", true, func(ctx context.Context, args []string) (interface{}, error) {
		a.auth.Logout(ctx)
		return message("Signed out"), nil
	})

	d.RegisterQuery("whoami", "show the signed-in user as the backend sees it", func(ctx context.Context, args []string) (interface{}, error) {
		user, err := a.auth.Me(ctx)
		if domain.IsDomainError(err, domain.ErrCodeNetwork) {
			a.logger.Debug("backend unreachable, showing stored user", zap.Error(err))
			return a.auth.Current().User, nil
		}
		return user, err
	})

	d.RegisterCommand("register", "-email -username -full-name [-role] [-institution] create an account", true, func(ctx context.Context, args []string) (interface{}, error) {
		var (
			req         transport.RegisterRequest
			role, phone string
			institution int64
		)
		if _, err := a.flags("register", args, func(fs *flag.FlagSet) {
			fs.StringVar(&req.Email, "email", "", "e-mail address")
			fs.StringVar(&req.Username, "username", "", "login name")
			fs.StringVar(&req.FullName, "full-name", "", "display name")
			fs.StringVar(&role, "role", string(domain.RoleStudent), "requested role")
			fs.StringVar(&phone, "phone", "", "phone number")
			fs.Int64Var(&institution, "institution", 0, "institution id")
		}); err != nil {
			return nil, err
		}
		password, err := a.readSecret("Password: ")
		if err != nil {
			return nil, err
		}
		req.Role = domain.Role(role)
		req.Password = password
		req.Phone = optionalString(phone)
		req.InstitutionID = optionalInt(institution)

		created, err := a.auth.Register(ctx, req)
		if err != nil {
			return nil, err
		}
		return message("Account %s created. Check %s for the verification code, then run `rozklad verify-email <code>`.", created.Username, created.Email), nil
	})

	d.RegisterCommand("verify-email", "<code> confirm the e-mail address", true, func(ctx context.Context, args []string) (interface{}, error) {
		fs, err := a.flags("verify-email", args, nil)
		if err != nil {
			return nil, err
		}
		if fs.NArg() < 1 {
			return nil, domain.NewError(domain.ErrCodeInvalid, "a verification code is required")
		}
		return a.auth.VerifyEmail(ctx, fs.Arg(0))
	})

	d.RegisterCommand("resend-verification", "<email> send a new verification code", true, func(ctx context.Context, args []string) (interface{}, error) {
		fs, err := a.flags("resend-verification", args, nil)
		if err != nil {
			return nil, err
		}
		return a.auth.ResendVerification(ctx, fs.Arg(0))
	})
}

func (a *app) scheduleFilter(fs *flag.FlagSet, f *domain.ScheduleFilter) {
	fs.Int64Var(&f.GroupID, "group", 0, "group id")
	fs.Int64Var(&f.TeacherID, "teacher", 0, "teacher id")
	fs.Int64Var(&f.ClassroomID, "classroom", 0, "classroom id")
}

func (a *app) registerSchedule(d *usecase.Dispatcher) {
	d.RegisterQuery("schedule", "[-group -teacher -classroom -date] list schedule entries", func(ctx context.Context, args []string) (interface{}, error) {
		var f domain.ScheduleFilter
		if _, err := a.flags("schedule", args, func(fs *flag.FlagSet) {
			a.scheduleFilter(fs, &f)
			fs.StringVar(&f.SpecificDate, "date", "", "only entries on this date (YYYY-MM-DD)")
		}); err != nil {
			return nil, err
		}
		return a.schedule.List(ctx, f)
	})

	d.RegisterQuery("today", "today's classes", func(ctx context.Context, args []string) (interface{}, error) {
		return a.schedule.Today(ctx)
	})

	d.RegisterQuery("week", "[-group -teacher -classroom -date] the week laid out Monday to Sunday", func(ctx context.Context, args []string) (interface{}, error) {
		var (
			f   domain.ScheduleFilter
			ref string
		)
		if _, err := a.flags("week", args, func(fs *flag.FlagSet) {
			a.scheduleFilter(fs, &f)
			fs.StringVar(&ref, "date", "", "any date inside the week (YYYY-MM-DD)")
		}); err != nil {
			return nil, err
		}
		day := time.Now()
		if ref != "" {
			parsed, err := time.ParseInLocation(domain.DateLayout, ref, time.Local)
			if err != nil {
				return nil, domain.WrapError(domain.ErrCodeInvalid, "invalid -date", err)
			}
			day = parsed
		}
		return a.schedule.Week(ctx, f, day)
	})

	d.RegisterCommand("schedule-add", "-day -group -subject -teacher -classroom -slot [-date] [-notes] add an entry", false,
		a.guard((*domain.User).CanBuildSchedule, func(ctx context.Context, args []string) (interface{}, error) {
			var (
				in          domain.ScheduleEntryInput
				day         string
				date, notes string
			)
			if _, err := a.flags("schedule-add", args, func(fs *flag.FlagSet) {
				fs.StringVar(&day, "day", "", "day of week")
				fs.Int64Var(&in.GroupID, "group", 0, "group id")
				fs.Int64Var(&in.SubjectID, "subject", 0, "subject id")
				fs.Int64Var(&in.TeacherID, "teacher", 0, "teacher id")
				fs.Int64Var(&in.ClassroomID, "classroom", 0, "classroom id")
				fs.Int64Var(&in.TimeSlotID, "slot", 0, "time slot id")
				fs.StringVar(&date, "date", "", "one-off date (YYYY-MM-DD)")
				fs.StringVar(&notes, "notes", "", "free text")
			}); err != nil {
				return nil, err
			}
			in.DayOfWeek = domain.DayOfWeek(day)
			in.SpecificDate = optionalString(date)
			in.Notes = optionalString(notes)
			return a.schedule.Create(ctx, in)
		}))

	d.RegisterCommand("schedule-update", "[-status -substitute -classroom -slot -date -notes] <id> change an entry", false,
		a.guard((*domain.User).CanBuildSchedule, func(ctx context.Context, args []string) (interface{}, error) {
			var (
				status, date, notes         string
				substitute, classroom, slot int64
			)
			fs, err := a.flags("schedule-update", args, func(fs *flag.FlagSet) {
				fs.StringVar(&status, "status", "", "scheduled, cancelled, rescheduled or substituted")
				fs.Int64Var(&substitute, "substitute", 0, "substitute teacher id")
				fs.Int64Var(&classroom, "classroom", 0, "classroom id")
				fs.Int64Var(&slot, "slot", 0, "time slot id")
				fs.StringVar(&date, "date", "", "date (YYYY-MM-DD)")
				fs.StringVar(&notes, "notes", "", "free text")
			})
			if err != nil {
				return nil, err
			}
			id, err := idArg(fs)
			if err != nil {
				return nil, err
			}
			update := domain.ScheduleEntryUpdate{
				SubstituteTeacherID: optionalInt(substitute),
				ClassroomID:         optionalInt(classroom),
				TimeSlotID:          optionalInt(slot),
				SpecificDate:        optionalString(date),
				Notes:               optionalString(notes),
			}
			if status != "" {
				s := domain.ScheduleStatus(status)
				update.Status = &s
			}
			return a.schedule.Update(ctx, id, update)
		}))

	d.RegisterCommand("schedule-delete", "<id> remove an entry", false,
		a.guard((*domain.User).CanBuildSchedule, func(ctx context.Context, args []string) (interface{}, error) {
			fs, err := a.flags("schedule-delete", args, nil)
			if err != nil {
				return nil, err
			}
			id, err := idArg(fs)
			if err != nil {
				return nil, err
			}
			if err := a.schedule.Delete(ctx, id); err != nil {
				return nil, err
			}
			return message("Entry %d deleted", id), nil
		}))
}

func (a *app) registerRequests(d *usecase.Dispatcher) {
	d.RegisterQuery("requests", "[-status] list change requests", func(ctx context.Context, args []string) (interface{}, error) {
		var status string
		if _, err := a.flags("requests", args, func(fs *flag.FlagSet) {
			fs.StringVar(&status, "status", "", "pending, approved or rejected")
		}); err != nil {
			return nil, err
		}
		return a.requests.List(ctx, domain.ChangeRequestStatus(status))
	})

	d.RegisterQuery("request", "<id> show one change request", func(ctx context.Context, args []string) (interface{}, error) {
		fs, err := a.flags("request", args, nil)
		if err != nil {
			return nil, err
		}
		id, err := idArg(fs)
		if err != nil {
			return nil, err
		}
		return a.requests.Get(ctx, id)
	})

	d.RegisterCommand("request-create", "-type -entry -date -reason [-new-slot -new-date -new-classroom -new-teacher] ask for a change", false,
		a.guard((*domain.User).CanSubmitRequests, func(ctx context.Context, args []string) (interface{}, error) {
			var (
				in                                domain.ChangeRequestInput
				kind, newDate                     string
				newSlot, newClassroom, newTeacher int64
			)
			if _, err := a.flags("request-create", args, func(fs *flag.FlagSet) {
				fs.StringVar(&kind, "type", "", "cancellation, substitution, reschedule or classroom_change")
				fs.Int64Var(&in.ScheduleEntryID, "entry", 0, "schedule entry id")
				fs.StringVar(&in.RequestedDate, "date", "", "date of the affected class (YYYY-MM-DD)")
				fs.StringVar(&in.Reason, "reason", "", "why the change is needed")
				fs.Int64Var(&newSlot, "new-slot", 0, "new time slot id")
				fs.StringVar(&newDate, "new-date", "", "new date (YYYY-MM-DD)")
				fs.Int64Var(&newClassroom, "new-classroom", 0, "new classroom id")
				fs.Int64Var(&newTeacher, "new-teacher", 0, "substitute teacher id")
			}); err != nil {
				return nil, err
			}
			in.ChangeType = domain.ChangeType(kind)
			in.NewTimeSlotID = optionalInt(newSlot)
			in.NewDate = optionalString(newDate)
			in.NewClassroomID = optionalInt(newClassroom)
			in.NewTeacherID = optionalInt(newTeacher)
			return a.requests.Create(ctx, in)
		}))

	d.RegisterCommand("approve", "<id> approve a pending request", false,
		a.guard((*domain.User).CanReviewRequests, func(ctx context.Context, args []string) (interface{}, error) {
			fs, err := a.flags("approve", args, nil)
			if err != nil {
				return nil, err
			}
			id, err := idArg(fs)
			if err != nil {
				return nil, err
			}
			return a.requests.Approve(ctx, id)
		}))

	d.RegisterCommand("reject", "[-comment] <id> reject a pending request", false,
		a.guard((*domain.User).CanReviewRequests, func(ctx context.Context, args []string) (interface{}, error) {
			var comment string
			fs, err := a.flags("reject", args, func(fs *flag.FlagSet) {
				fs.StringVar(&comment, "comment", "", "note for the requester")
			})
			if err != nil {
				return nil, err
			}
			id, err := idArg(fs)
			if err != nil {
				return nil, err
			}
			return a.requests.Reject(ctx, id, comment)
		}))
}

func (a *app) registerDirectory(d *usecase.Dispatcher) {
	listing := func(name, usage string, list func(ctx context.Context, institution int64) (interface{}, error)) {
		d.RegisterQuery(name, "[-institution] "+usage, func(ctx context.Context, args []string) (interface{}, error) {
			var institution int64
			if _, err := a.flags(name, args, func(fs *flag.FlagSet) {
				fs.Int64Var(&institution, "institution", 0, "institution id (defaults to yours)")
			}); err != nil {
				return nil, err
			}
			return list(ctx, a.institution(institution))
		})
	}
	listing("groups", "list groups", func(ctx context.Context, id int64) (interface{}, error) { return a.directory.Groups(ctx, id) })
	listing("teachers", "list teachers", func(ctx context.Context, id int64) (interface{}, error) { return a.directory.Teachers(ctx, id) })
	listing("classrooms", "list classrooms", func(ctx context.Context, id int64) (interface{}, error) { return a.directory.Classrooms(ctx, id) })
	listing("subjects", "list subjects", func(ctx context.Context, id int64) (interface{}, error) { return a.directory.Subjects(ctx, id) })
	listing("time-slots", "list time slots", func(ctx context.Context, id int64) (interface{}, error) { return a.directory.TimeSlots(ctx, id) })

	admin := (*domain.User).CanManageDirectory

	d.RegisterCommand("group-add", "-name [-year] [-students] [-institution] add a group", false,
		a.guard(admin, func(ctx context.Context, args []string) (interface{}, error) {
			var (
				g              domain.Group
				year, students int
				profile        string
			)
			if _, err := a.flags("group-add", args, func(fs *flag.FlagSet) {
				fs.StringVar(&g.Name, "name", "", "group name")
				fs.StringVar(&profile, "profile", "", "study profile")
				fs.IntVar(&year, "year", 0, "study year")
				fs.IntVar(&students, "students", 0, "number of students")
				fs.Int64Var(&g.InstitutionID, "institution", 0, "institution id")
			}); err != nil {
				return nil, err
			}
			g.InstitutionID = a.institution(g.InstitutionID)
			g.Profile = optionalString(profile)
			if year > 0 {
				g.Year = &year
			}
			if students > 0 {
				g.StudentCount = &students
			}
			return a.directory.CreateGroup(ctx, g)
		}))

	d.RegisterCommand("teacher-add", "-name [-email] [-specialization] add a teacher", false,
		a.guard(admin, func(ctx context.Context, args []string) (interface{}, error) {
			var (
				t                     domain.Teacher
				email, specialization string
			)
			if _, err := a.flags("teacher-add", args, func(fs *flag.FlagSet) {
				fs.StringVar(&t.FullName, "name", "", "full name")
				fs.StringVar(&email, "email", "", "contact e-mail")
				fs.StringVar(&specialization, "specialization", "", "subject area")
				fs.Int64Var(&t.InstitutionID, "institution", 0, "institution id")
			}); err != nil {
				return nil, err
			}
			t.InstitutionID = a.institution(t.InstitutionID)
			t.ContactEmail = optionalString(email)
			t.Specialization = optionalString(specialization)
			return a.directory.CreateTeacher(ctx, t)
		}))

	d.RegisterCommand("classroom-add", "-name -type [-capacity] [-building] add a classroom", false,
		a.guard(admin, func(ctx context.Context, args []string) (interface{}, error) {
			var (
				c              domain.Classroom
				kind, building string
				capacity       int
			)
			if _, err := a.flags("classroom-add", args, func(fs *flag.FlagSet) {
				fs.StringVar(&c.Name, "name", "", "room name")
				fs.StringVar(&kind, "type", string(domain.ClassroomRegular), "lecture_hall, computer_lab, gym, regular or lab")
				fs.IntVar(&capacity, "capacity", 0, "seats")
				fs.StringVar(&building, "building", "", "building")
				fs.Int64Var(&c.InstitutionID, "institution", 0, "institution id")
			}); err != nil {
				return nil, err
			}
			c.InstitutionID = a.institution(c.InstitutionID)
			c.Type = domain.ClassroomType(kind)
			c.Building = optionalString(building)
			if capacity > 0 {
				c.Capacity = &capacity
			}
			return a.directory.CreateClassroom(ctx, c)
		}))

	d.RegisterCommand("subject-add", "-name -type add a subject", false,
		a.guard(admin, func(ctx context.Context, args []string) (interface{}, error) {
			var (
				s    domain.Subject
				kind string
			)
			if _, err := a.flags("subject-add", args, func(fs *flag.FlagSet) {
				fs.StringVar(&s.Name, "name", "", "subject name")
				fs.StringVar(&kind, "type", string(domain.SubjectLecture), "lecture, seminar, practical, lab or gym")
				fs.Int64Var(&s.InstitutionID, "institution", 0, "institution id")
			}); err != nil {
				return nil, err
			}
			s.InstitutionID = a.institution(s.InstitutionID)
			s.Type = domain.SubjectType(kind)
			return a.directory.CreateSubject(ctx, s)
		}))

	d.RegisterCommand("time-slot-add", "-name -period -start -end add a time slot", false,
		a.guard(admin, func(ctx context.Context, args []string) (interface{}, error) {
			var ts domain.TimeSlot
			if _, err := a.flags("time-slot-add", args, func(fs *flag.FlagSet) {
				fs.StringVar(&ts.Name, "name", "", "label")
				fs.IntVar(&ts.PeriodNumber, "period", 0, "period number")
				fs.StringVar(&ts.StartTime, "start", "", "start time HH:MM")
				fs.StringVar(&ts.EndTime, "end", "", "end time HH:MM")
				fs.Int64Var(&ts.InstitutionID, "institution", 0, "institution id")
			}); err != nil {
				return nil, err
			}
			ts.InstitutionID = a.institution(ts.InstitutionID)
			return a.directory.CreateTimeSlot(ctx, ts)
		}))

	deletion := func(name string, del func(ctx context.Context, id int64) error) {
		d.RegisterCommand(name, "<id> delete", false, a.guard(admin, func(ctx context.Context, args []string) (interface{}, error) {
			fs, err := a.flags(name, args, nil)
			if err != nil {
				return nil, err
			}
			id, err := idArg(fs)
			if err != nil {
				return nil, err
			}
			if err := del(ctx, id); err != nil {
				return nil, err
			}
			return message("Deleted %d", id), nil
		}))
	}
	deletion("group-delete", a.directory.DeleteGroup)
	deletion("teacher-delete", a.directory.DeleteTeacher)
	deletion("classroom-delete", a.directory.DeleteClassroom)
}

func (a *app) registerNotifications(d *usecase.Dispatcher) {
	d.RegisterQuery("notifications", "[-unread] list notifications", func(ctx context.Context, args []string) (interface{}, error) {
		var unread bool
		if _, err := a.flags("notifications", args, func(fs *flag.FlagSet) {
			fs.BoolVar(&unread, "unread", false, "only unread")
		}); err != nil {
			return nil, err
		}
		return a.notifications.List(ctx, unread)
	})

	d.RegisterCommand("read", "<id> mark a notification read", false, func(ctx context.Context, args []string) (interface{}, error) {
		fs, err := a.flags("read", args, nil)
		if err != nil {
			return nil, err
		}
		id, err := idArg(fs)
		if err != nil {
			return nil, err
		}
		return a.notifications.MarkRead(ctx, id)
	})

	d.RegisterCommand("read-all", "mark every notification read", false, func(ctx context.Context, args []string) (interface{}, error) {
		if err := a.notifications.MarkAllRead(ctx); err != nil {
			return nil, err
		}
		return message("All notifications marked read"), nil
	})

	d.RegisterCommand("notification-delete", "<id> delete a notification", false, func(ctx context.Context, args []string) (interface{}, error) {
		fs, err := a.flags("notification-delete", args, nil)
		if err != nil {
			return nil, err
		}
		id, err := idArg(fs)
		if err != nil {
			return nil, err
		}
		if err := a.notifications.Delete(ctx, id); err != nil {
			return nil, err
		}
		return message("Notification %d deleted", id), nil
	})

	d.RegisterQuery("dashboard", "today's classes, unread notifications and pending requests", func(ctx context.Context, args []string) (interface{}, error) {
		return a.notifications.Dashboard(ctx, a.session.Snapshot().User, a.schedule, a.requests)
	})
}

// watch runs the monitor and the notification poller until interrupted or signed out.
func (a *app) watch(ctx context.Context, args []string) (interface{}, error) {
	a.monitor.Refresh(ctx)
	a.monitor.Start()
	a.life.Register("monitor", func(context.Context) error {
		a.monitor.Stop()
		return nil
	})

	var cursor services.CursorStore
	if a.cursor != nil {
		cursor = a.cursor
	}
	poller := services.NewNotificationPoller(a.notifications, a.session, a.monitor, cursor,
		func(n domain.Notification) {
			_ = a.render(n)
		},
		a.logger,
		services.PollerConfig{Interval: a.cfg.Poller.Interval},
	)
	if _, err := poller.Poll(ctx); err != nil {
		a.logger.Warn("initial notification poll failed", zap.Error(err))
	}
	poller.Start()
	a.life.Register("notification_poller", poller.Stop)

	signedOut := make(chan struct{})
	var once sync.Once
	unsubscribe := a.session.Subscribe(func(s domain.Session) {
		if !s.IsAuthenticated() {
			once.Do(func() { close(signedOut) })
		}
	})
	defer unsubscribe()

	fmt.Fprintln(a.errOut, "Watching for notifications. Press Ctrl+C to stop.")
	select {
	case <-ctx.Done():
	case <-signedOut:
	}
	return nil, nil
}
