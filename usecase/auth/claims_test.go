package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/rozklad/domain"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestUserFromTokenNumericSubject(t *testing.T) {
	token := sign(t, jwt.MapClaims{"sub": 42, "role": "admin", "full_name": "Ada", "institution_id": 3})
	u, err := userFromToken(token, "ada", domain.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ID)
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, "Ada", u.FullName)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	require.NotNil(t, u.InstitutionID)
	assert.Equal(t, int64(3), *u.InstitutionID)
}

func TestUserFromTokenDefaults(t *testing.T) {
	token := sign(t, jwt.MapClaims{"user_id": "7", "role": "wizard"})
	u, err := userFromToken(token, "login", domain.RoleParent)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "login", u.FullName)
	assert.Equal(t, domain.RoleParent, u.Role)
	assert.Nil(t, u.InstitutionID)
}

func TestUserFromTokenRejectsMissingSubject(t *testing.T) {
	_, err := userFromToken(sign(t, jwt.MapClaims{"role": "admin"}), "x", domain.RoleStudent)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = userFromToken("not-a-jwt", "x", domain.RoleStudent)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
