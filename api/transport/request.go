package transport

import "github.com/fastygo/rozklad/domain"

// RegisterRequest is the JSON body of POST /auth/register.
type RegisterRequest struct {
	Email         string      `json:"email" validate:"required,email"`
	Username      string      `json:"username" validate:"required"`
	FullName      string      `json:"full_name" validate:"required"`
	Role          domain.Role `json:"role" validate:"required,oneof=super_admin admin teacher student parent"`
	Password      string      `json:"password" validate:"required,min=8"`
	Phone         *string     `json:"phone,omitempty"`
	InstitutionID *int64      `json:"institution_id,omitempty"`
	TeacherID     *int64      `json:"teacher_id,omitempty"`
	GroupID       *int64      `json:"group_id,omitempty"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}
