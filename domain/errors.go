package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeNetwork      ErrorCode = "NETWORK"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrSessionNotFound    = NewError(ErrCodeNotFound, "session not found")
	ErrNotAuthenticated   = NewError(ErrCodeUnauthorized, "not authenticated")
	ErrSessionInvalidated = NewError(ErrCodeUnauthorized, "session invalidated")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidCredentials = NewError(ErrCodeInvalid, "user and token are both required")
	ErrForbidden          = NewError(ErrCodeForbidden, "forbidden for current role")
)

// NetworkError is returned when no response was received from the backend.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FieldError is a single field-level validation failure reported by the backend.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// HTTPError is returned when the backend answered with a failure status.
// Detail holds a string detail; Fields holds a list detail.
type HTTPError struct {
	Method string
	Path   string
	Status int
	Detail string
	Fields []FieldError

	// Invalidated is set when the response tore down the current session.
	Invalidated bool
}

func (e *HTTPError) Error() string {
	msg := e.Detail
	if msg == "" && len(e.Fields) > 0 {
		msg = e.Fields[0].Field + ": " + e.Fields[0].Message
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// Is lets errors.Is match ErrSessionInvalidated against an invalidating 401.
func (e *HTTPError) Is(target error) bool {
	return e.Invalidated && target == ErrSessionInvalidated
}

// IsValidation reports whether the error is a 422 carrying field errors.
func (e *HTTPError) IsValidation() bool {
	return e.Status == http.StatusUnprocessableEntity && len(e.Fields) > 0
}

// Code maps the status onto the domain classification.
func (e *HTTPError) Code() ErrorCode {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrCodeForbidden
	case e.Status == http.StatusNotFound:
		return ErrCodeNotFound
	case e.Status == http.StatusConflict:
		return ErrCodeConflict
	case e.Status == http.StatusBadRequest, e.Status == http.StatusUnprocessableEntity:
		return ErrCodeInvalid
	default:
		return ErrCodeInternal
	}
}

// Messages returns user-facing lines: one for a string detail, one per field error otherwise.
func (e *HTTPError) Messages() []string {
	if len(e.Fields) > 0 {
		out := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			if f.Field == "" {
				out = append(out, f.Message)
				continue
			}
			out = append(out, f.Field+": "+f.Message)
		}
		return out
	}
	if strings.TrimSpace(e.Detail) != "" {
		return []string{e.Detail}
	}
	return []string{http.StatusText(e.Status)}
}

// AsValidation extracts field errors from a 422 response.
func AsValidation(err error) ([]FieldError, bool) {
	var hErr *HTTPError
	if errors.As(err, &hErr) && hErr.IsValidation() {
		return hErr.Fields, true
	}
	return nil, false
}

// Messages flattens any error into user-facing lines.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var hErr *HTTPError
	if errors.As(err, &hErr) {
		return hErr.Messages()
	}
	var nErr *NetworkError
	if errors.As(err, &nErr) {
		return []string{"backend unreachable"}
	}
	return []string{err.Error()}
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	var hErr *HTTPError
	if errors.As(err, &hErr) {
		return hErr.Code() == code
	}
	var nErr *NetworkError
	if errors.As(err, &nErr) {
		return code == ErrCodeNetwork
	}
	return false
}
