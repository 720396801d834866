package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		code   ErrorCode
	}{
		{http.StatusUnauthorized, ErrCodeUnauthorized},
		{http.StatusForbidden, ErrCodeForbidden},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusConflict, ErrCodeConflict},
		{http.StatusBadRequest, ErrCodeInvalid},
		{http.StatusUnprocessableEntity, ErrCodeInvalid},
		{http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		err := fmt.Errorf("wrapped: %w", &HTTPError{Method: "GET", Path: "/x", Status: tc.status})
		assert.True(t, IsDomainError(err, tc.code), "status %d", tc.status)
	}
}

func TestHTTPErrorInvalidation(t *testing.T) {
	plain := &HTTPError{Status: http.StatusUnauthorized}
	assert.False(t, errors.Is(plain, ErrSessionInvalidated))

	invalidated := &HTTPError{Status: http.StatusUnauthorized, Invalidated: true}
	assert.True(t, errors.Is(fmt.Errorf("ctx: %w", invalidated), ErrSessionInvalidated))
	assert.False(t, errors.Is(invalidated, ErrNotAuthenticated))
}

func TestHTTPErrorMessages(t *testing.T) {
	assert.Equal(t, []string{"Email already registered"},
		(&HTTPError{Status: 400, Detail: "Email already registered"}).Messages())
	assert.Equal(t, []string{"Not Found"}, (&HTTPError{Status: 404}).Messages())

	v := &HTTPError{Status: 422, Fields: []FieldError{{Field: "email", Message: "bad"}, {Message: "general"}}}
	assert.True(t, v.IsValidation())
	assert.Equal(t, []string{"email: bad", "general"}, v.Messages())
	assert.Contains(t, v.Error(), "422 email: bad")

	fields, ok := AsValidation(v)
	assert.True(t, ok)
	assert.Len(t, fields, 2)

	_, ok = AsValidation(&HTTPError{Status: 422})
	assert.False(t, ok)
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &NetworkError{Method: "GET", Path: "/schedule", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsDomainError(err, ErrCodeNetwork))
	assert.False(t, IsDomainError(err, ErrCodeInternal))
	assert.Equal(t, []string{"backend unreachable"}, Messages(err))
}

func TestDomainErrorWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(ErrCodeInvalid, "bad input", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
	assert.Nil(t, Messages(nil))
}
