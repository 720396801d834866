package domain

type NotificationType string

const (
	NotifyScheduleChange      NotificationType = "schedule_change"
	NotifySubstitution        NotificationType = "substitution"
	NotifyCancellation        NotificationType = "cancellation"
	NotifyReschedule          NotificationType = "reschedule"
	NotifyClassroomChange     NotificationType = "classroom_change"
	NotifyChangeRequestUpdate NotificationType = "change_request_update"
)

// Notification is an entry of the user's feed.
type Notification struct {
	ID              int64            `json:"id"`
	Title           string           `json:"title"`
	Message         string           `json:"message"`
	Type            NotificationType `json:"type"`
	IsRead          bool             `json:"is_read"`
	UserID          int64            `json:"user_id"`
	ScheduleEntryID *int64           `json:"schedule_entry_id,omitempty"`
	ChangeRequestID *int64           `json:"change_request_id,omitempty"`
	CreatedAt       Timestamp        `json:"created_at"`
	ReadAt          *Timestamp       `json:"read_at,omitempty"`
}

// Dashboard summarizes what the landing screen shows.
type Dashboard struct {
	Today           []ScheduleEntry `json:"today"`
	PendingRequests []ChangeRequest `json:"pending_requests,omitempty"`
	Unread          []Notification  `json:"unread"`
}
