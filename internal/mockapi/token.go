package mockapi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fastygo/rozklad/domain"
)

// Issuer signs and checks HS256 access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a token carrying the profile claims the client reads at login.
func (i *Issuer) Issue(u domain.User) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":       strconv.FormatInt(u.ID, 10),
		"username":  u.Username,
		"full_name": u.FullName,
		"email":     u.Email,
		"role":      string(u.Role),
		"iat":       now.Unix(),
		"exp":       now.Add(i.ttl).Unix(),
	}
	if u.InstitutionID != nil {
		claims["institution_id"] = *u.InstitutionID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Subject verifies the token and returns the user id it was issued for.
func (i *Issuer) Subject(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, domain.ErrNotAuthenticated
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrNotAuthenticated
	}
	return id, nil
}
