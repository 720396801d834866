package mockapi

import (
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/pkg/httpcontext"
)

// bearerAuth rejects requests without a valid token for a known account and stores
// that account's user for the handler.
func bearerAuth(issuer *Issuer, data *Data, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "Not authenticated")
				return
			}

			id, err := issuer.Subject(tokenString)
			if err != nil {
				logger.Debug("invalid jwt token", zap.Error(err))
				unauthorized(ctx, "Could not validate credentials")
				return
			}

			data.mu.RLock()
			acc, ok := data.accounts[id]
			var user domain.User
			if ok {
				user = acc.user
			}
			data.mu.RUnlock()
			if !ok {
				unauthorized(ctx, "Could not validate credentials")
				return
			}

			httpcontext.SetPrincipal(ctx, &user)
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, detail string) {
	ctx.Response.Header.Set(fasthttp.HeaderWWWAuthenticate, "Bearer")
	respondDetail(ctx, fasthttp.StatusUnauthorized, detail)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func currentUser(ctx *fasthttp.RequestCtx) *domain.User {
	u, _ := httpcontext.Principal(ctx).(*domain.User)
	return u
}

// accessLog records one line per request under the id echoed to the client.
func accessLog(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			started := time.Now()
			requestID := httpcontext.RequestID(ctx)
			next(ctx)
			logger.Info("request",
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("path", ctx.Path()),
				zap.Int("status", ctx.Response.StatusCode()),
				zap.String("request_id", requestID),
				zap.Duration("duration", time.Since(started)))
		}
	}
}
