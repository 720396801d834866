package domain

type ChangeType string

const (
	ChangeCancellation    ChangeType = "cancellation"
	ChangeSubstitution    ChangeType = "substitution"
	ChangeReschedule      ChangeType = "reschedule"
	ChangeClassroomChange ChangeType = "classroom_change"
)

type ChangeRequestStatus string

const (
	RequestPending  ChangeRequestStatus = "pending"
	RequestApproved ChangeRequestStatus = "approved"
	RequestRejected ChangeRequestStatus = "rejected"
)

// ChangeRequest asks to alter a scheduled class occurrence, subject to admin approval.
type ChangeRequest struct {
	ID              int64               `json:"id"`
	ChangeType      ChangeType          `json:"change_type"`
	Reason          string              `json:"reason"`
	RequestedDate   string              `json:"requested_date"`
	ScheduleEntryID int64               `json:"schedule_entry_id"`
	NewTimeSlotID   *int64              `json:"new_time_slot_id,omitempty"`
	NewDate         *string             `json:"new_date,omitempty"`
	NewClassroomID  *int64              `json:"new_classroom_id,omitempty"`
	NewTeacherID    *int64              `json:"new_teacher_id,omitempty"`
	Status          ChangeRequestStatus `json:"status"`
	AdminComment    *string             `json:"admin_comment,omitempty"`
	CreatedBy       int64               `json:"created_by"`
	ProcessedBy     *int64              `json:"processed_by,omitempty"`
	CreatedAt       Timestamp           `json:"created_at"`
	ProcessedAt     *Timestamp          `json:"processed_at,omitempty"`
}

func (r *ChangeRequest) IsPending() bool {
	return r != nil && r.Status == RequestPending
}

type ChangeRequestInput struct {
	ChangeType      ChangeType `json:"change_type" validate:"required,oneof=cancellation substitution reschedule classroom_change"`
	Reason          string     `json:"reason" validate:"required"`
	RequestedDate   string     `json:"requested_date" validate:"required,datetime=2006-01-02"`
	ScheduleEntryID int64      `json:"schedule_entry_id" validate:"gt=0"`
	NewTimeSlotID   *int64     `json:"new_time_slot_id,omitempty"`
	NewDate         *string    `json:"new_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	NewClassroomID  *int64     `json:"new_classroom_id,omitempty"`
	NewTeacherID    *int64     `json:"new_teacher_id,omitempty"`
}

type ChangeRequestUpdate struct {
	Status         *ChangeRequestStatus `json:"status,omitempty"`
	AdminComment   *string              `json:"admin_comment,omitempty"`
	NewTimeSlotID  *int64               `json:"new_time_slot_id,omitempty"`
	NewDate        *string              `json:"new_date,omitempty"`
	NewClassroomID *int64               `json:"new_classroom_id,omitempty"`
	NewTeacherID   *int64               `json:"new_teacher_id,omitempty"`
}
