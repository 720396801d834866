package domain

import "encoding/json"

// Group is a class of students.
type Group struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name" validate:"required"`
	Profile       *string   `json:"profile,omitempty"`
	StudentCount  *int      `json:"student_count,omitempty"`
	Year          *int      `json:"year,omitempty"`
	InstitutionID int64     `json:"institution_id" validate:"gt=0"`
	CreatedAt     Timestamp `json:"created_at,omitzero"`
	UpdatedAt     Timestamp `json:"updated_at,omitzero"`
}

type Teacher struct {
	ID             int64           `json:"id"`
	FullName       string          `json:"full_name" validate:"required"`
	Specialization *string         `json:"specialization,omitempty"`
	ContactEmail   *string         `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone   *string         `json:"contact_phone,omitempty"`
	Preferences    json.RawMessage `json:"preferences,omitempty"`
	InstitutionID  int64           `json:"institution_id" validate:"gt=0"`
	CreatedAt      Timestamp       `json:"created_at,omitzero"`
	UpdatedAt      Timestamp       `json:"updated_at,omitzero"`
}

type ClassroomType string

const (
	ClassroomLectureHall ClassroomType = "lecture_hall"
	ClassroomComputerLab ClassroomType = "computer_lab"
	ClassroomGym         ClassroomType = "gym"
	ClassroomRegular     ClassroomType = "regular"
	ClassroomLab         ClassroomType = "lab"
)

type Classroom struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name" validate:"required"`
	Type          ClassroomType `json:"type" validate:"required,oneof=lecture_hall computer_lab gym regular lab"`
	Capacity      *int          `json:"capacity,omitempty"`
	Equipment     []string      `json:"equipment,omitempty"`
	Building      *string       `json:"building,omitempty"`
	Floor         *int          `json:"floor,omitempty"`
	InstitutionID int64         `json:"institution_id" validate:"gt=0"`
	CreatedAt     Timestamp     `json:"created_at,omitzero"`
	UpdatedAt     Timestamp     `json:"updated_at,omitzero"`
}

type SubjectType string

const (
	SubjectLecture   SubjectType = "lecture"
	SubjectSeminar   SubjectType = "seminar"
	SubjectPractical SubjectType = "practical"
	SubjectLab       SubjectType = "lab"
	SubjectGym       SubjectType = "gym"
)

type Subject struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name" validate:"required"`
	Type          SubjectType `json:"type" validate:"required,oneof=lecture seminar practical lab gym"`
	Description   *string     `json:"description,omitempty"`
	InstitutionID int64       `json:"institution_id" validate:"gt=0"`
}

// TimeSlot is a numbered period of the school day; times are HH:MM[:SS].
type TimeSlot struct {
	ID            int64  `json:"id"`
	Name          string `json:"name" validate:"required"`
	PeriodNumber  int    `json:"period_number" validate:"gt=0"`
	StartTime     string `json:"start_time" validate:"required"`
	EndTime       string `json:"end_time" validate:"required"`
	InstitutionID int64  `json:"institution_id" validate:"gt=0"`
}
