package mockapi

import (
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/rozklad/api/transport"
	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/pkg/httpcontext"
	"github.com/fastygo/rozklad/pkg/logger"
)

const emailNotVerified = "Email not verified. Please check your email for the verification code."

// Login accepts the OAuth2 password form and returns a bearer token.
func (a *API) Login(ctx *fasthttp.RequestCtx) {
	username := string(ctx.PostArgs().Peek("username"))
	password := string(ctx.PostArgs().Peek("password"))
	if username == "" || password == "" {
		respondDetail(ctx, fasthttp.StatusUnprocessableEntity, "username and password are required")
		return
	}

	a.data.mu.RLock()
	acc := a.data.findLogin(username)
	var (
		hash     []byte
		verified bool
	)
	if acc != nil {
		hash, verified = acc.password, acc.verified
	}
	a.data.mu.RUnlock()

	if acc == nil || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		unauthorized(ctx, "Incorrect username or password")
		return
	}
	if !verified {
		respondDetail(ctx, fasthttp.StatusForbidden, emailNotVerified)
		return
	}

	token, err := a.issuer.Issue(acc.user)
	if err != nil {
		a.logger.Error("failed to sign token", zap.Error(err))
		respondDetail(ctx, fasthttp.StatusInternalServerError, "could not issue token")
		return
	}
	respondJSON(ctx, fasthttp.StatusOK, transport.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (a *API) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !decode(ctx, &req) {
		return
	}

	stdCtx, cancel := a.requestContext(ctx)
	defer cancel()
	log := logger.WithRequestID(stdCtx, a.logger).With(zap.String("remote_addr", httpcontext.RemoteAddr(stdCtx)))

	a.data.mu.Lock()
	defer a.data.mu.Unlock()

	if a.data.findEmail(req.Email) != nil {
		respondDetail(ctx, fasthttp.StatusBadRequest, "Email already registered")
		return
	}
	if a.data.findUsername(req.Username) != nil {
		respondDetail(ctx, fasthttp.StatusBadRequest, "Username already taken")
		return
	}

	acc, err := a.data.addAccount(req.Username, strings.ToLower(req.Email), req.FullName, req.Role, req.Password, req.InstitutionID)
	if err != nil {
		log.Error("failed to create account", zap.Error(err))
		respondDetail(ctx, fasthttp.StatusInternalServerError, "could not create account")
		return
	}
	acc.code = newCode()
	log.Info("verification code issued", zap.String("email", acc.user.Email), zap.String("code", acc.code))

	respondJSON(ctx, fasthttp.StatusCreated, transport.RegisteredUser{
		ID:            acc.user.ID,
		Email:         acc.user.Email,
		Username:      acc.user.Username,
		FullName:      acc.user.FullName,
		Role:          acc.user.Role,
		Phone:         req.Phone,
		IsActive:      true,
		InstitutionID: acc.user.InstitutionID,
		TeacherID:     req.TeacherID,
		GroupID:       req.GroupID,
		CreatedAt:     domain.NewTimestamp(acc.created),
	})
}

func (a *API) VerifyEmail(ctx *fasthttp.RequestCtx) {
	var req transport.VerifyEmailRequest
	if !decode(ctx, &req) {
		return
	}
	code := strings.TrimSpace(req.Token)

	a.data.mu.Lock()
	defer a.data.mu.Unlock()
	for _, acc := range a.data.accounts {
		if code != "" && !acc.verified && acc.code == code {
			acc.verified = true
			acc.code = ""
			respondJSON(ctx, fasthttp.StatusOK, transport.MessageResponse{Message: "Email verified successfully", Email: acc.user.Email})
			return
		}
	}
	respondDetail(ctx, fasthttp.StatusBadRequest, "Invalid or expired verification code")
}

func (a *API) ResendVerification(ctx *fasthttp.RequestCtx) {
	email := string(ctx.QueryArgs().Peek("email"))

	stdCtx, cancel := a.requestContext(ctx)
	defer cancel()

	a.data.mu.Lock()
	defer a.data.mu.Unlock()
	acc := a.data.findEmail(email)
	switch {
	case acc == nil:
		respondNotFound(ctx, "User")
		return
	case acc.verified:
		respondDetail(ctx, fasthttp.StatusBadRequest, "Email already verified")
		return
	}
	acc.code = newCode()
	logger.WithRequestID(stdCtx, a.logger).Info("verification code issued", zap.String("email", acc.user.Email), zap.String("code", acc.code))
	respondJSON(ctx, fasthttp.StatusOK, transport.MessageResponse{Message: "Verification code sent", Email: acc.user.Email})
}

// Me returns the profile of the token's owner.
func (a *API) Me(ctx *fasthttp.RequestCtx) {
	respondJSON(ctx, fasthttp.StatusOK, currentUser(ctx))
}
