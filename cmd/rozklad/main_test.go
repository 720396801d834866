package main

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/fastygo/rozklad/api/gateway"
	"github.com/fastygo/rozklad/internal/mockapi"
)

const (
	expiredLine   = "Your session has expired. Run `rozklad login` to sign in again."
	signedOutLine = "You are not signed in. Run `rozklad login` first."
)

// backend starts a stub backend signing tokens with secret and returns the option that
// routes the CLI gateway to it.
func backend(t *testing.T, secret string) gateway.Option {
	t.Helper()
	srv, err := mockapi.New(mockapi.Config{JWTSecret: secret, TokenTTL: time.Hour}, nil)
	require.NoError(t, err)
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return gateway.WithDoer(&fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }})
}

// offline fails the test if the CLI tries to reach the backend at all.
type offline struct{ t *testing.T }

func (o offline) DoDeadline(req *fasthttp.Request, _ *fasthttp.Response, _ time.Time) error {
	o.t.Errorf("unexpected request to %s", req.URI().Path())
	return fasthttp.ErrConnectionClosed
}

func boltEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	t.Setenv("SESSION_STORAGE", "bolt")
	t.Setenv("BOLTDB_PATH", path)
	t.Setenv("API_URL", "http://rozklad.test")
	t.Setenv("API_PREFIX", "/api/v1")
	t.Setenv("LOG_LEVEL", "error")
	return path
}

type result struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, opt gateway.Option, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr, opt)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestRunRefusesProtectedCommandWhenSignedOut(t *testing.T) {
	t.Setenv("SESSION_STORAGE", "memory")
	t.Setenv("LOG_LEVEL", "error")

	res := execute(t, gateway.WithDoer(offline{t}), "", "schedule")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, signedOutLine)
	assert.Empty(t, res.stdout)
}

func TestRunPublicCommandWhenSignedOut(t *testing.T) {
	boltEnv(t)
	live := backend(t, "live-secret")

	res := execute(t, live, "teacher12345\n", "login", "-u", "teacher")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Signed in as Olena Kovalenko (teacher)")
	assert.NotContains(t, res.stderr, signedOutLine)
}

func TestRunRestoresSessionBeforeCommand(t *testing.T) {
	boltEnv(t)
	live := backend(t, "live-secret")

	res := execute(t, live, "student12345\n", "login", "-u", "student")
	require.Equal(t, 0, res.code, res.stderr)

	// a new process only knows the token through the stored record
	res = execute(t, live, "", "-json", "whoami")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, `"username": "student"`)
	assert.Contains(t, res.stdout, `"full_name": "Taras Melnyk"`)

	res = execute(t, live, "", "logout")
	require.Equal(t, 0, res.code, res.stderr)

	res = execute(t, gateway.WithDoer(offline{t}), "", "whoami")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, signedOutLine)
}

func TestRunExpiredSessionReportedOnce(t *testing.T) {
	boltEnv(t)
	live := backend(t, "live-secret")

	res := execute(t, live, "admin12345\n", "login", "-u", "admin")
	require.Equal(t, 0, res.code, res.stderr)

	// a backend with another signing key rejects the stored token; the dashboard sends
	// several requests at once and every one of them comes back 401
	rotated := backend(t, "rotated-secret")
	res = execute(t, rotated, "", "dashboard")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, 1, strings.Count(res.stderr, expiredLine), res.stderr)
	assert.Empty(t, res.stdout)

	// the stored record went with the session
	res = execute(t, gateway.WithDoer(offline{t}), "", "notifications")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, signedOutLine)
	assert.NotContains(t, res.stderr, expiredLine)
}

func TestRunStorageSharedWithRunningProcess(t *testing.T) {
	path := boltEnv(t)
	live := backend(t, "live-secret")

	res := execute(t, live, "teacher12345\n", "login", "-u", "teacher")
	require.Equal(t, 0, res.code, res.stderr)

	// another invocation working on the same file at the same time
	done := make(chan result, 1)
	go func() {
		var stdout, stderr bytes.Buffer
		code := run([]string{"week"}, strings.NewReader(""), &stdout, &stderr, live)
		done <- result{code: code, stdout: stdout.String(), stderr: stderr.String()}
	}()

	res = execute(t, live, "", "today")
	assert.Equal(t, 0, res.code, res.stderr)
	other := <-done
	assert.Equal(t, 0, other.code, other.stderr)
	assert.FileExists(t, path)
}

func TestRunUnknownCommand(t *testing.T) {
	t.Setenv("SESSION_STORAGE", "memory")
	t.Setenv("LOG_LEVEL", "error")

	res := execute(t, gateway.WithDoer(offline{t}), "", "frobnicate")
	assert.Equal(t, 2, res.code)
	assert.Contains(t, res.stderr, `unknown command "frobnicate"`)
}
