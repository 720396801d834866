package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/rozklad/api/transport"
	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/pkg/validate"
	"github.com/fastygo/rozklad/usecase"
)

// Session is the writable view of the session the auth flows need.
type Session interface {
	Snapshot() domain.Session
	SetAuth(ctx context.Context, user *domain.User, token string) error
	Logout(ctx context.Context)
}

type UseCase struct {
	api         usecase.Backend
	session     Session
	defaultRole domain.Role
	logger      *zap.Logger
}

func New(api usecase.Backend, session Session, defaultRole domain.Role, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !defaultRole.Valid() {
		defaultRole = domain.RoleStudent
	}
	return &UseCase{
		api:         api,
		session:     session,
		defaultRole: defaultRole,
		logger:      logger,
	}
}

// Login exchanges credentials for a token and populates the session.
func (uc *UseCase) Login(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "username and password are required")
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var token transport.TokenResponse
	if err := uc.api.PostForm(ctx, "/auth/login", form, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, domain.NewError(domain.ErrCodeInternal, "login response carried no access token")
	}

	user, err := userFromToken(token.AccessToken, username, uc.defaultRole)
	if err != nil {
		return nil, err
	}
	if err := uc.session.SetAuth(ctx, user, token.AccessToken); err != nil {
		return nil, err
	}
	uc.logger.Info("logged in", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Register creates an inactive account; the backend emails a verification link.
func (uc *UseCase) Register(ctx context.Context, req transport.RegisterRequest) (*transport.RegisteredUser, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var created transport.RegisteredUser
	if err := uc.api.Post(ctx, "/auth/register", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (uc *UseCase) VerifyEmail(ctx context.Context, token string) (*transport.MessageResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "verification token is required")
	}
	var resp transport.MessageResponse
	if err := uc.api.Post(ctx, "/auth/verify-email", transport.VerifyEmailRequest{Token: token}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (uc *UseCase) ResendVerification(ctx context.Context, email string) (*transport.MessageResponse, error) {
	email = strings.TrimSpace(email)
	if err := validate.Var("email", email, "required,email"); err != nil {
		return nil, err
	}
	path := "/auth/resend-verification?" + url.Values{"email": {email}}.Encode()
	var resp transport.MessageResponse
	if err := uc.api.Post(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout clears the session locally; the backend keeps no server-side session.
func (uc *UseCase) Logout(ctx context.Context) {
	uc.session.Logout(ctx)
	uc.logger.Info("logged out")
}

// Me asks the backend who the token belongs to and refreshes the stored user with the
// answer. /auth/me is only served by the stub backend; when the route is missing the
// user decoded from the token at login is returned unchanged.
func (uc *UseCase) Me(ctx context.Context) (*domain.User, error) {
	current := uc.session.Snapshot()
	if !current.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	var user domain.User
	if err := uc.api.Get(ctx, "/auth/me", nil, &user); err != nil {
		var hErr *domain.HTTPError
		if errors.As(err, &hErr) && hErr.Status == http.StatusNotFound {
			uc.logger.Debug("backend has no /auth/me, keeping token claims")
			return current.User, nil
		}
		return nil, err
	}
	if uc.session.Snapshot().Token != current.Token {
		return &user, nil
	}
	if err := uc.session.SetAuth(ctx, &user, current.Token); err != nil {
		return nil, err
	}
	return &user, nil
}

func (uc *UseCase) Current() domain.Session {
	return uc.session.Snapshot()
}
