package domain

import "time"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

// Week lists the days in display order, Monday first.
var Week = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// DayOf maps a calendar date onto its weekday.
func DayOf(t time.Time) DayOfWeek {
	switch t.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

type ScheduleStatus string

const (
	ScheduleScheduled   ScheduleStatus = "scheduled"
	ScheduleCancelled   ScheduleStatus = "cancelled"
	ScheduleRescheduled ScheduleStatus = "rescheduled"
	ScheduleSubstituted ScheduleStatus = "substituted"
)

// ScheduleEntry is one recurring or dated class occurrence with display names resolved.
type ScheduleEntry struct {
	ID                    int64          `json:"id"`
	DayOfWeek             DayOfWeek      `json:"day_of_week"`
	SpecificDate          *string        `json:"specific_date,omitempty"`
	GroupID               int64          `json:"group_id"`
	SubjectID             int64          `json:"subject_id"`
	TeacherID             int64          `json:"teacher_id"`
	ClassroomID           int64          `json:"classroom_id"`
	TimeSlotID            int64          `json:"time_slot_id"`
	Notes                 *string        `json:"notes,omitempty"`
	Status                ScheduleStatus `json:"status"`
	SubstituteTeacherID   *int64         `json:"substitute_teacher_id,omitempty"`
	OriginalClassroomID   *int64         `json:"original_classroom_id,omitempty"`
	ChangeRequestID       *int64         `json:"change_request_id,omitempty"`
	GroupName             string         `json:"group_name,omitempty"`
	SubjectName           string         `json:"subject_name,omitempty"`
	TeacherName           string         `json:"teacher_name,omitempty"`
	ClassroomName         string         `json:"classroom_name,omitempty"`
	TimeSlotName          string         `json:"time_slot_name,omitempty"`
	StartTime             string         `json:"start_time,omitempty"`
	EndTime               string         `json:"end_time,omitempty"`
	SubstituteTeacherName *string        `json:"substitute_teacher_name,omitempty"`
	CreatedAt             Timestamp      `json:"created_at"`
	UpdatedAt             Timestamp      `json:"updated_at"`
}

func (e *ScheduleEntry) IsChanged() bool {
	return e != nil && e.Status != "" && e.Status != ScheduleScheduled
}

// ScheduleEntryInput is the candidate entry posted by the schedule builder.
// Conflict detection is left to the backend.
type ScheduleEntryInput struct {
	DayOfWeek    DayOfWeek `json:"day_of_week" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	SpecificDate *string   `json:"specific_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	GroupID      int64     `json:"group_id" validate:"gt=0"`
	SubjectID    int64     `json:"subject_id" validate:"gt=0"`
	TeacherID    int64     `json:"teacher_id" validate:"gt=0"`
	ClassroomID  int64     `json:"classroom_id" validate:"gt=0"`
	TimeSlotID   int64     `json:"time_slot_id" validate:"gt=0"`
	Notes        *string   `json:"notes,omitempty"`
}

type ScheduleEntryUpdate struct {
	Status              *ScheduleStatus `json:"status,omitempty" validate:"omitempty,oneof=scheduled cancelled rescheduled substituted"`
	SubstituteTeacherID *int64          `json:"substitute_teacher_id,omitempty"`
	ClassroomID         *int64          `json:"classroom_id,omitempty"`
	TimeSlotID          *int64          `json:"time_slot_id,omitempty"`
	SpecificDate        *string         `json:"specific_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes               *string         `json:"notes,omitempty"`
}

// ScheduleFilter narrows GET /schedule; zero values are omitted.
type ScheduleFilter struct {
	GroupID      int64
	TeacherID    int64
	ClassroomID  int64
	SpecificDate string
}
