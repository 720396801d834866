package gateway

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/repository/memory"
	"github.com/fastygo/rozklad/usecase/session"
)

func serve(t *testing.T, handler fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
}

func signedIn(t *testing.T, token string) (*session.Manager, *memory.SessionRepository) {
	t.Helper()
	repo := memory.NewSessionRepository()
	m := session.NewManager(nil, repo, nil)
	require.NoError(t, m.Hydrate(context.Background()))
	require.NoError(t, m.SetAuth(context.Background(), &domain.User{
		ID: 4, Username: "olena", FullName: "Olena", Role: domain.RoleTeacher,
	}, token))
	return m, repo
}

func newGateway(client Doer, s SessionSource, opts ...Option) *Gateway {
	opts = append([]Option{WithDoer(client)}, opts...)
	return New(Config{BaseURL: "http://api.test", Prefix: "api/v1/", Timeout: 2 * time.Second}, s, opts...)
}

func detail(ctx *fasthttp.RequestCtx, status int, body string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(body)
}

func TestGatewayAttachesTokenAndDecodes(t *testing.T) {
	var auth, requestID, uri atomic.Value
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		auth.Store(string(ctx.Request.Header.Peek("Authorization")))
		requestID.Store(string(ctx.Request.Header.Peek("X-Request-ID")))
		uri.Store(string(ctx.RequestURI()))
		detail(ctx, fasthttp.StatusOK, `[{"id":1,"name":"10-A","institution_id":1}]`)
	})
	m, _ := signedIn(t, "abc")
	g := newGateway(client, m)

	var groups []domain.Group
	err := g.Get(context.Background(), "/groups", url.Values{"institution_id": {"1"}}, &groups)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "10-A", groups[0].Name)

	assert.Equal(t, "Bearer abc", auth.Load())
	assert.NotEmpty(t, requestID.Load())
	assert.Equal(t, "/api/v1/groups?institution_id=1", uri.Load())
}

func TestGatewayOmitsTokenWhenSignedOut(t *testing.T) {
	var auth atomic.Value
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		auth.Store(string(ctx.Request.Header.Peek("Authorization")))
		ctx.SetStatusCode(fasthttp.StatusOK)
	})
	m := session.NewManager(nil, nil, nil)
	g := newGateway(client, m)

	require.NoError(t, g.Post(context.Background(), "/auth/register", map[string]string{"email": "a@b.c"}, nil))
	assert.Equal(t, "", auth.Load())
}

func TestGatewayUnauthorizedProtectedPathLogsOutOnce(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		detail(ctx, fasthttp.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
	})
	m, repo := signedIn(t, "expired")

	var calls int32
	var redirectedFrom atomic.Value
	g := newGateway(client, m, OnSessionInvalidated(func(ctx context.Context, path string) {
		atomic.AddInt32(&calls, 1)
		redirectedFrom.Store(path)
	}))

	err := g.Get(context.Background(), "/schedule", nil, nil)
	require.Error(t, err)

	var hErr *domain.HTTPError
	require.ErrorAs(t, err, &hErr)
	assert.Equal(t, fasthttp.StatusUnauthorized, hErr.Status)
	assert.Equal(t, "Could not validate credentials", hErr.Detail)
	assert.True(t, errors.Is(err, domain.ErrSessionInvalidated))

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, "/schedule", redirectedFrom.Load())
	assert.False(t, m.Snapshot().IsAuthenticated())

	_, loadErr := repo.Load(context.Background())
	assert.ErrorIs(t, loadErr, domain.ErrSessionNotFound)
}

func TestGatewayParallelUnauthorizedInvalidatesOnce(t *testing.T) {
	const parallel = 8
	var arrived sync.WaitGroup
	arrived.Add(parallel)
	release := make(chan struct{})
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		arrived.Done()
		<-release
		detail(ctx, fasthttp.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)
	})
	m, _ := signedIn(t, "expired")

	var calls int32
	g := newGateway(client, m, OnSessionInvalidated(func(context.Context, string) {
		atomic.AddInt32(&calls, 1)
	}))

	var invalidated int32
	var done sync.WaitGroup
	for i := 0; i < parallel; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			if err := g.Get(context.Background(), "/notifications", nil, nil); errors.Is(err, domain.ErrSessionInvalidated) {
				atomic.AddInt32(&invalidated, 1)
			}
		}()
	}
	arrived.Wait()
	close(release)
	done.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&invalidated))
	assert.False(t, m.Snapshot().IsAuthenticated())
}

func TestGatewayUnauthorizedPublicPathKeepsSession(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		detail(ctx, fasthttp.StatusUnauthorized, `{"detail":"Incorrect username or password"}`)
	})
	m, _ := signedIn(t, "current")

	var calls int32
	g := newGateway(client, m, OnSessionInvalidated(func(context.Context, string) {
		atomic.AddInt32(&calls, 1)
	}))

	for _, path := range []string{"/auth/login", "/auth/resend-verification?email=a%40b.c"} {
		err := g.PostForm(context.Background(), path, url.Values{"username": {"x"}}, nil)
		require.Error(t, err)
		assert.False(t, errors.Is(err, domain.ErrSessionInvalidated))
		assert.Equal(t, []string{"Incorrect username or password"}, domain.Messages(err))
	}

	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
	assert.True(t, m.Snapshot().IsAuthenticated())
	assert.Equal(t, "current", m.Snapshot().Token)
}

func TestGatewayForbiddenLeavesSession(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		detail(ctx, fasthttp.StatusForbidden, `{"detail":"Email not verified. Please check your email for the verification code."}`)
	})
	m, _ := signedIn(t, "tok")
	g := newGateway(client, m)

	err := g.PostForm(context.Background(), "/auth/login", url.Values{}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
	assert.Equal(t, []string{"Email not verified. Please check your email for the verification code."}, domain.Messages(err))
	assert.True(t, m.Snapshot().IsAuthenticated())
}

func TestGatewayValidationFields(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		detail(ctx, fasthttp.StatusUnprocessableEntity, `{"detail":[
			{"loc":["body","email"],"msg":"value is not a valid email address","type":"value_error"},
			{"loc":["body","password"],"msg":"String should have at least 8 characters","type":"string_too_short"}
		]}`)
	})
	g := newGateway(client, session.NewManager(nil, nil, nil))

	err := g.Post(context.Background(), "/auth/register", map[string]string{}, nil)
	fields, ok := domain.AsValidation(err)
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, domain.FieldError{Field: "email", Message: "value is not a valid email address"}, fields[0])
	assert.Equal(t, "password", fields[1].Field)
	assert.Equal(t, []string{
		"email: value is not a valid email address",
		"password: String should have at least 8 characters",
	}, domain.Messages(err))
}

func TestGatewayUnstructuredErrorBody(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
		ctx.SetBodyString("upstream down")
	})
	g := newGateway(client, session.NewManager(nil, nil, nil))

	err := g.Get(context.Background(), "/schedule", nil, nil)
	var hErr *domain.HTTPError
	require.ErrorAs(t, err, &hErr)
	assert.Equal(t, fasthttp.StatusBadGateway, hErr.Status)
	assert.Equal(t, "upstream down", hErr.Detail)
	assert.Empty(t, hErr.Fields)
}

func TestGatewayLongErrorBodyKeepsRunesWhole(t *testing.T) {
	// With the leading "x", byte 512 is the second half of a Cyrillic letter.
	body := "x" + strings.Repeat("розклад ", 40)
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
		ctx.SetBodyString(body)
	})
	g := newGateway(client, session.NewManager(nil, nil, nil))

	err := g.Get(context.Background(), "/schedule", nil, nil)
	var hErr *domain.HTTPError
	require.ErrorAs(t, err, &hErr)
	assert.True(t, utf8.ValidString(hErr.Detail))
	assert.LessOrEqual(t, len(hErr.Detail), maxRawDetail)
	assert.True(t, strings.HasPrefix(body, hErr.Detail))
	assert.Greater(t, len(hErr.Detail), maxRawDetail-utf8.UTFMax)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))

	ascii := strings.Repeat("a", maxRawDetail+10)
	assert.Len(t, truncate(ascii), maxRawDetail)

	// One leading byte shifts every two-byte rune onto an odd offset.
	mixed := "x" + strings.Repeat("ї", maxRawDetail)
	got := truncate(mixed)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, maxRawDetail-1)
}

type failingDoer struct{}

func (failingDoer) DoDeadline(*fasthttp.Request, *fasthttp.Response, time.Time) error {
	return errors.New("connection refused")
}

func TestGatewayNetworkErrorKeepsSession(t *testing.T) {
	m, _ := signedIn(t, "tok")
	g := newGateway(failingDoer{}, m)

	err := g.Get(context.Background(), "/schedule", nil, nil)
	var nErr *domain.NetworkError
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, "/schedule", nErr.Path)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNetwork))
	assert.Equal(t, []string{"backend unreachable"}, domain.Messages(err))
	assert.True(t, m.Snapshot().IsAuthenticated())
}

func TestGatewayStaleUnauthorizedIgnored(t *testing.T) {
	m, _ := signedIn(t, "old")
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		// a fresh login lands while the old request is in flight
		_ = m.SetAuth(context.Background(), &domain.User{
			ID: 9, Username: "new", FullName: "New User", Role: domain.RoleAdmin,
		}, "new")
		detail(ctx, fasthttp.StatusUnauthorized, `{"detail":"Token expired"}`)
	})

	var calls int32
	g := newGateway(client, m, OnSessionInvalidated(func(context.Context, string) {
		atomic.AddInt32(&calls, 1)
	}))

	err := g.Get(context.Background(), "/notifications", nil, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrSessionInvalidated))
	assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
	assert.Equal(t, "new", m.Snapshot().Token)
}

func TestGatewayHonoursContext(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
		ctx.SetStatusCode(fasthttp.StatusOK)
	})
	g := newGateway(client, session.NewManager(nil, nil, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := g.Get(ctx, "/schedule", nil, nil)
	require.Error(t, err)
	var nErr *domain.NetworkError
	require.ErrorAs(t, err, &nErr)
}

func TestGatewayHealthUsesRoot(t *testing.T) {
	var path, auth atomic.Value
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		path.Store(string(ctx.Path()))
		auth.Store(string(ctx.Request.Header.Peek("Authorization")))
		detail(ctx, fasthttp.StatusOK, `{"status":"ok"}`)
	})
	m, _ := signedIn(t, "tok")
	g := newGateway(client, m)

	require.NoError(t, g.Health(context.Background()))
	assert.Equal(t, "/health", path.Load())
	assert.Equal(t, "", auth.Load())
}

func TestIsPublic(t *testing.T) {
	g := New(Config{}, nil)
	assert.True(t, g.isPublic("/auth/login"))
	assert.True(t, g.isPublic("auth/register"))
	assert.True(t, g.isPublic("/auth/resend-verification?email=x"))
	assert.False(t, g.isPublic("/auth/me"))
	assert.False(t, g.isPublic("/schedule"))
	assert.False(t, g.isPublic("/auth/loginx"))
}

func TestGatewayDecodesNaiveBackendTimestamps(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		detail(ctx, fasthttp.StatusOK, `[{
			"id": 12,
			"day_of_week": "monday",
			"specific_date": null,
			"group_id": 1, "subject_id": 2, "teacher_id": 3, "classroom_id": 4, "time_slot_id": 5,
			"notes": null,
			"status": "scheduled",
			"substitute_teacher_id": null,
			"created_at": "2025-03-01T09:15:00.123456",
			"updated_at": "2025-03-02T10:00:00"
		}]`)
	})
	m, _ := signedIn(t, "abc")
	g := newGateway(client, m)

	var entries []domain.ScheduleEntry
	require.NoError(t, g.Get(context.Background(), "/schedule", nil, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, time.Date(2025, time.March, 1, 9, 15, 0, 123456000, time.UTC), entries[0].CreatedAt.Time)
	assert.Equal(t, time.Date(2025, time.March, 2, 10, 0, 0, 0, time.UTC), entries[0].UpdatedAt.Time)
}

func TestGatewayDecodesNullableReadAt(t *testing.T) {
	client := serve(t, func(ctx *fasthttp.RequestCtx) {
		detail(ctx, fasthttp.StatusOK, `[
			{"id": 1, "title": "t", "message": "m", "type": "cancellation", "is_read": true, "user_id": 4,
			 "created_at": "2025-03-01T09:15:00", "read_at": "2025-03-01T09:20:00.5"},
			{"id": 2, "title": "t", "message": "m", "type": "cancellation", "is_read": false, "user_id": 4,
			 "created_at": "2025-03-01T09:15:00+02:00", "read_at": null}
		]`)
	})
	m, _ := signedIn(t, "abc")
	g := newGateway(client, m)

	var feed []domain.Notification
	require.NoError(t, g.Get(context.Background(), "/notifications", nil, &feed))
	require.Len(t, feed, 2)
	require.NotNil(t, feed[0].ReadAt)
	assert.Equal(t, 500*time.Millisecond, feed[0].ReadAt.Sub(feed[0].CreatedAt.Time))
	assert.Nil(t, feed[1].ReadAt)
	assert.Equal(t, 7, feed[1].CreatedAt.UTC().Hour())
}
