package transport

import (
	"encoding/json"

	"github.com/fastygo/rozklad/domain"
)

// TokenResponse is returned by POST /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MessageResponse is the generic confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// RegisteredUser is the created-user confirmation of POST /auth/register.
type RegisteredUser struct {
	ID            int64            `json:"id"`
	Email         string           `json:"email"`
	Username      string           `json:"username"`
	FullName      string           `json:"full_name"`
	Role          domain.Role      `json:"role"`
	Phone         *string          `json:"phone,omitempty"`
	IsActive      bool             `json:"is_active"`
	InstitutionID *int64           `json:"institution_id,omitempty"`
	TeacherID     *int64           `json:"teacher_id,omitempty"`
	GroupID       *int64           `json:"group_id,omitempty"`
	CreatedAt     domain.Timestamp `json:"created_at"`
}

// ErrorBody is the failure body; Detail is either a string or a list of ValidationItem.
type ErrorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// ValidationItem is one element of a list detail.
type ValidationItem struct {
	Loc  []interface{} `json:"loc"`
	Msg  string        `json:"msg"`
	Type string        `json:"type,omitempty"`
}

// NewDetail builds a string-detail body.
func NewDetail(message string) ErrorBody {
	raw, _ := json.Marshal(message)
	return ErrorBody{Detail: raw}
}

// NewValidationDetail builds a list-detail body.
func NewValidationDetail(items []ValidationItem) ErrorBody {
	raw, _ := json.Marshal(items)
	return ErrorBody{Detail: raw}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e ErrorBody) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
