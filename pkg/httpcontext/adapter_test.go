package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/rozklad/pkg/logger"
)

func TestRequestIDEchoesCaller(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set(HeaderRequestID, "req-42")

	assert.Equal(t, "req-42", RequestID(&ctx))
	assert.Equal(t, "req-42", string(ctx.Response.Header.Peek(HeaderRequestID)))
}

func TestRequestIDAssignedOnce(t *testing.T) {
	var ctx fasthttp.RequestCtx
	first := RequestID(&ctx)
	require.NotEmpty(t, first)
	assert.Equal(t, first, RequestID(&ctx))
}

func TestAttachCarriesPrincipal(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set(HeaderRequestID, "req-7")
	SetPrincipal(&ctx, "olena")

	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	assert.Equal(t, "olena", PrincipalFrom(stdCtx))
	assert.Equal(t, "req-7", appLogger.RequestID(stdCtx))
	_, hasDeadline := stdCtx.Deadline()
	assert.True(t, hasDeadline)
}

func TestAttachWithoutPrincipal(t *testing.T) {
	var ctx fasthttp.RequestCtx
	stdCtx, cancel := NewAdapter(0).Attach(&ctx)
	defer cancel()
	assert.Nil(t, PrincipalFrom(stdCtx))
}
