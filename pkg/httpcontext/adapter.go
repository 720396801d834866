package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/rozklad/pkg/logger"
)

// HeaderRequestID is read from the request and echoed on the response.
const HeaderRequestID = "X-Request-ID"

const principalValue = "httpcontext.principal"

type ctxKey string

const (
	keyRemoteAddr ctxKey = "remote_addr"
	keyPrincipal  ctxKey = "principal"
)

// Adapter converts fasthttp.RequestCtx into a stdlib context with a deadline, the
// request id and whoever the auth middleware let through.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, RequestID(ctx))

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, keyRemoteAddr, remoteAddr.String())
	}
	if p := Principal(ctx); p != nil {
		stdCtx = context.WithValue(stdCtx, keyPrincipal, p)
	}
	return stdCtx, cancel
}

// RequestID returns the id of the request. The caller's X-Request-ID wins; otherwise
// a new one is assigned. Either way it is set on the response on first use.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id := ctx.Response.Header.Peek(HeaderRequestID); len(id) > 0 {
		return string(id)
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.Response.Header.Set(HeaderRequestID, id)
	return id
}

// SetPrincipal records the authenticated caller for later handlers.
func SetPrincipal(ctx *fasthttp.RequestCtx, p interface{}) {
	ctx.SetUserValue(principalValue, p)
}

func Principal(ctx *fasthttp.RequestCtx) interface{} {
	return ctx.UserValue(principalValue)
}

// PrincipalFrom returns the caller carried by a context built with Attach.
func PrincipalFrom(ctx context.Context) interface{} {
	if ctx == nil {
		return nil
	}
	return ctx.Value(keyPrincipal)
}

func RemoteAddr(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	addr, _ := ctx.Value(keyRemoteAddr).(string)
	return addr
}
