package mockapi

import (
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/rozklad/domain"
)

func entryID(e domain.ScheduleEntry) int64 { return e.ID }

func (a *API) ListSchedule(ctx *fasthttp.RequestCtx) {
	groupID := queryInt(ctx, "group_id")
	teacherID := queryInt(ctx, "teacher_id")
	classroomID := queryInt(ctx, "classroom_id")
	date := string(ctx.QueryArgs().Peek("specific_date"))

	a.data.mu.RLock()
	all := sorted(a.data.schedule, entryID)
	a.data.mu.RUnlock()

	out := make([]domain.ScheduleEntry, 0, len(all))
	for _, e := range all {
		if groupID != 0 && e.GroupID != groupID {
			continue
		}
		if teacherID != 0 && e.TeacherID != teacherID && (e.SubstituteTeacherID == nil || *e.SubstituteTeacherID != teacherID) {
			continue
		}
		if classroomID != 0 && e.ClassroomID != classroomID {
			continue
		}
		if date != "" && !occursOn(e, date) {
			continue
		}
		out = append(out, e)
	}
	respondJSON(ctx, fasthttp.StatusOK, out)
}

// occursOn reports whether e takes place on date: dated entries match exactly,
// weekly entries match by weekday.
func occursOn(e domain.ScheduleEntry, date string) bool {
	if e.SpecificDate != nil && *e.SpecificDate != "" {
		return *e.SpecificDate == date
	}
	day, err := parseDate(date)
	if err != nil {
		return false
	}
	return domain.DayOf(day) == e.DayOfWeek
}

func (a *API) GetScheduleEntry(ctx *fasthttp.RequestCtx) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	a.data.mu.RLock()
	e, found := a.data.schedule[id]
	a.data.mu.RUnlock()
	if !found {
		respondNotFound(ctx, "Schedule entry")
		return
	}
	respondJSON(ctx, fasthttp.StatusOK, e)
}

func (a *API) CreateScheduleEntry(ctx *fasthttp.RequestCtx) {
	if !currentUser(ctx).CanBuildSchedule() {
		respondDetail(ctx, fasthttp.StatusForbidden, notEnoughPermissions)
		return
	}
	var in domain.ScheduleEntryInput
	if !decode(ctx, &in) {
		return
	}

	a.data.mu.Lock()
	defer a.data.mu.Unlock()

	if missing := a.data.missingRefs(in.GroupID, in.SubjectID, in.TeacherID, in.ClassroomID, in.TimeSlotID); missing != "" {
		respondNotFound(ctx, missing)
		return
	}
	now := domain.NewTimestamp(a.data.now())
	entry := domain.ScheduleEntry{
		ID:           a.data.id(),
		DayOfWeek:    in.DayOfWeek,
		SpecificDate: in.SpecificDate,
		GroupID:      in.GroupID,
		SubjectID:    in.SubjectID,
		TeacherID:    in.TeacherID,
		ClassroomID:  in.ClassroomID,
		TimeSlotID:   in.TimeSlotID,
		Notes:        in.Notes,
		Status:       domain.ScheduleScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if conflict := a.data.conflict(entry); conflict != "" {
		respondDetail(ctx, fasthttp.StatusConflict, conflict)
		return
	}
	entry = a.data.resolve(entry)
	a.data.schedule[entry.ID] = entry
	respondJSON(ctx, fasthttp.StatusCreated, entry)
}

func (a *API) UpdateScheduleEntry(ctx *fasthttp.RequestCtx) {
	if !currentUser(ctx).CanBuildSchedule() {
		respondDetail(ctx, fasthttp.StatusForbidden, notEnoughPermissions)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var in domain.ScheduleEntryUpdate
	if !decode(ctx, &in) {
		return
	}

	a.data.mu.Lock()
	defer a.data.mu.Unlock()

	entry, found := a.data.schedule[id]
	if !found {
		respondNotFound(ctx, "Schedule entry")
		return
	}
	if in.Status != nil {
		entry.Status = *in.Status
	}
	if in.SubstituteTeacherID != nil {
		entry.SubstituteTeacherID = in.SubstituteTeacherID
	}
	if in.ClassroomID != nil {
		entry.ClassroomID = *in.ClassroomID
	}
	if in.TimeSlotID != nil {
		entry.TimeSlotID = *in.TimeSlotID
	}
	if in.SpecificDate != nil {
		entry.SpecificDate = in.SpecificDate
	}
	if in.Notes != nil {
		entry.Notes = in.Notes
	}
	if conflict := a.data.conflict(entry); conflict != "" {
		respondDetail(ctx, fasthttp.StatusConflict, conflict)
		return
	}
	entry.UpdatedAt = domain.NewTimestamp(a.data.now())
	entry = a.data.resolve(entry)
	a.data.schedule[id] = entry
	respondJSON(ctx, fasthttp.StatusOK, entry)
}

func (a *API) DeleteScheduleEntry(ctx *fasthttp.RequestCtx) {
	if !currentUser(ctx).CanBuildSchedule() {
		respondDetail(ctx, fasthttp.StatusForbidden, notEnoughPermissions)
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	a.data.mu.Lock()
	_, found := a.data.schedule[id]
	delete(a.data.schedule, id)
	a.data.mu.Unlock()
	if !found {
		respondNotFound(ctx, "Schedule entry")
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (d *Data) missingRefs(groupID, subjectID, teacherID, classroomID, slotID int64) string {
	if _, ok := d.groups[groupID]; !ok {
		return "Group"
	}
	if _, ok := d.subjects[subjectID]; !ok {
		return "Subject"
	}
	if _, ok := d.teachers[teacherID]; !ok {
		return "Teacher"
	}
	if _, ok := d.classrooms[classroomID]; !ok {
		return "Classroom"
	}
	if _, ok := d.timeSlots[slotID]; !ok {
		return "Time slot"
	}
	return ""
}

// conflict reports a clash with another active entry in the same slot sharing the
// group, teacher or classroom.
func (d *Data) conflict(e domain.ScheduleEntry) string {
	if e.Status == domain.ScheduleCancelled {
		return ""
	}
	for _, other := range d.schedule {
		if other.ID == e.ID || other.Status == domain.ScheduleCancelled {
			continue
		}
		if other.DayOfWeek != e.DayOfWeek || other.TimeSlotID != e.TimeSlotID || !sameDate(other.SpecificDate, e.SpecificDate) {
			continue
		}
		switch {
		case other.GroupID == e.GroupID:
			return fmt.Sprintf("Schedule conflict: group already has a class in this slot (entry %d)", other.ID)
		case other.TeacherID == e.TeacherID:
			return fmt.Sprintf("Schedule conflict: teacher is busy in this slot (entry %d)", other.ID)
		case other.ClassroomID == e.ClassroomID:
			return fmt.Sprintf("Schedule conflict: classroom is occupied in this slot (entry %d)", other.ID)
		}
	}
	return ""
}

func sameDate(a, b *string) bool {
	if a == nil || *a == "" || b == nil || *b == "" {
		return true
	}
	return *a == *b
}
