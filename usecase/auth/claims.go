package auth

import (
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fastygo/rozklad/domain"
)

// userFromToken reads identity claims from the access token without verifying it;
// verification is the backend's job. Missing profile claims fall back to the login name
// and the configured default role.
func userFromToken(token, username string, defaultRole domain.Role) (*domain.User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "cannot read access token", err)
	}

	id, ok := int64Claim(claims, "sub")
	if !ok {
		id, ok = int64Claim(claims, "user_id")
	}
	if !ok || id <= 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "access token has no user subject")
	}

	user := &domain.User{
		ID:       id,
		Username: username,
		FullName: username,
		Role:     defaultRole,
	}
	if v := stringClaim(claims, "username"); v != "" {
		user.Username = v
	}
	if v := stringClaim(claims, "full_name"); v != "" {
		user.FullName = v
	}
	if v := stringClaim(claims, "email"); v != "" {
		user.Email = v
	}
	if r := domain.Role(stringClaim(claims, "role")); r.Valid() {
		user.Role = r
	}
	if inst, ok := int64Claim(claims, "institution_id"); ok {
		user.InstitutionID = &inst
	}
	return user, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}

func int64Claim(claims jwt.MapClaims, key string) (int64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
