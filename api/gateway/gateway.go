package gateway

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/pkg/logger"
	"github.com/fastygo/rozklad/usecase"
)

// DefaultPublicPaths are the routes that answer 401 without meaning the session expired.
var DefaultPublicPaths = []string{
	"/auth/login",
	"/auth/register",
	"/auth/verify-email",
	"/auth/resend-verification",
}

// SessionSource is the part of the session the gateway reads on every request and
// tears down on an unauthorized response.
type SessionSource interface {
	Snapshot() domain.Session
	// Invalidate signs out only if token is still the current one and reports whether
	// it did.
	Invalidate(ctx context.Context, token string) bool
}

// Doer is satisfied by *fasthttp.Client and *fasthttp.HostClient.
type Doer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// InvalidationFunc is called after a 401 cleared the session. The composition root
// decides what "go to login" means.
type InvalidationFunc func(ctx context.Context, path string)

type Config struct {
	BaseURL     string
	Prefix      string
	Timeout     time.Duration
	MaxConns    int
	PublicPaths []string
	UserAgent   string
}

// Gateway is the single configured client for backend calls.
type Gateway struct {
	doer          Doer
	cfg           Config
	session       SessionSource
	logger        *zap.Logger
	onInvalidated InvalidationFunc
}

type Option func(*Gateway)

func WithDoer(d Doer) Option {
	return func(g *Gateway) {
		if d != nil {
			g.doer = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

func OnSessionInvalidated(fn InvalidationFunc) Option {
	return func(g *Gateway) {
		g.onInvalidated = fn
	}
}

func New(cfg Config, session SessionSource, opts ...Option) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.PublicPaths == nil {
		cfg.PublicPaths = DefaultPublicPaths
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "rozklad"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.Prefix = "/" + strings.Trim(cfg.Prefix, "/")
	if cfg.Prefix == "/" {
		cfg.Prefix = ""
	}

	g := &Gateway{
		cfg:     cfg,
		session: session,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.doer == nil {
		g.doer = &fasthttp.Client{
			Name:                cfg.UserAgent,
			MaxConnsPerHost:     cfg.MaxConns,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		}
	}
	return g
}

// Request describes one call relative to the API prefix.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	Form   url.Values
}

// Do sends req and decodes a successful JSON body into out (when non-nil).
// Failures are *domain.NetworkError or *domain.HTTPError.
func (g *Gateway) Do(ctx context.Context, req Request, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Method == "" {
		req.Method = fasthttp.MethodGet
	}

	var token string
	if g.session != nil {
		token = g.session.Snapshot().Token
	}
	requestID := uuid.NewString()
	log := logger.WithRequestID(logger.ContextWithRequestID(ctx, requestID), g.logger).
		With(zap.String("method", req.Method), zap.String("path", req.Path))

	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()

	if err := g.build(freq, req, token, requestID); err != nil {
		fasthttp.ReleaseRequest(freq)
		fasthttp.ReleaseResponse(fresp)
		return err
	}

	started := time.Now()
	status, body, err := g.send(ctx, freq, fresp)
	if err != nil {
		log.Warn("backend unreachable", zap.Error(err))
		return &domain.NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	log.Debug("backend responded", zap.Int("status", status), zap.Duration("duration", time.Since(started)))

	if status >= fasthttp.StatusBadRequest {
		hErr := decodeError(req.Method, req.Path, status, body)
		if status == fasthttp.StatusUnauthorized && !g.isPublic(req.Path) {
			g.invalidate(ctx, log, token, hErr)
		}
		return hErr
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "decode response", err)
	}
	return nil
}

func (g *Gateway) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return g.Do(ctx, Request{Method: fasthttp.MethodGet, Path: path, Query: query}, out)
}

func (g *Gateway) Post(ctx context.Context, path string, body, out interface{}) error {
	return g.Do(ctx, Request{Method: fasthttp.MethodPost, Path: path, Body: body}, out)
}

func (g *Gateway) Put(ctx context.Context, path string, body, out interface{}) error {
	return g.Do(ctx, Request{Method: fasthttp.MethodPut, Path: path, Body: body}, out)
}

func (g *Gateway) Delete(ctx context.Context, path string, out interface{}) error {
	return g.Do(ctx, Request{Method: fasthttp.MethodDelete, Path: path}, out)
}

func (g *Gateway) PostForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	return g.Do(ctx, Request{Method: fasthttp.MethodPost, Path: path, Form: form}, out)
}

// Health probes GET /health on the backend root, outside the API prefix and without
// credentials or session interception.
func (g *Gateway) Health(ctx context.Context) error {
	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()
	freq.SetRequestURI(g.cfg.BaseURL + "/health")
	freq.Header.SetMethod(fasthttp.MethodGet)

	status, body, err := g.send(ctx, freq, fresp)
	if err != nil {
		return &domain.NetworkError{Method: fasthttp.MethodGet, Path: "/health", Err: err}
	}
	if status >= fasthttp.StatusBadRequest {
		return decodeError(fasthttp.MethodGet, "/health", status, body)
	}
	return nil
}

func (g *Gateway) build(freq *fasthttp.Request, req Request, token, requestID string) error {
	uri := g.cfg.BaseURL + g.cfg.Prefix + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		uri += "?" + req.Query.Encode()
	}
	freq.SetRequestURI(uri)
	freq.Header.SetMethod(req.Method)
	freq.Header.Set(fasthttp.HeaderAccept, "application/json")
	freq.Header.Set("X-Request-ID", requestID)
	if token != "" {
		freq.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}

	switch {
	case req.Form != nil:
		freq.Header.SetContentType("application/x-www-form-urlencoded")
		freq.SetBodyString(req.Form.Encode())
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "encode request", err)
		}
		freq.Header.SetContentType("application/json")
		freq.SetBody(payload)
	}
	return nil
}

// send owns freq and fresp and releases them. If ctx ends first the call is abandoned
// and the buffers are released once the client gives them back.
func (g *Gateway) send(ctx context.Context, freq *fasthttp.Request, fresp *fasthttp.Response) (int, []byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	release := func() {
		fasthttp.ReleaseRequest(freq)
		fasthttp.ReleaseResponse(fresp)
	}
	if err := ctx.Err(); err != nil {
		release()
		return 0, nil, err
	}

	deadline := time.Now().Add(g.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	done := make(chan error, 1)
	go func() {
		done <- g.doer.DoDeadline(freq, fresp, deadline)
	}()

	select {
	case err := <-done:
		defer release()
		if err != nil {
			return 0, nil, err
		}
		return fresp.StatusCode(), append([]byte(nil), fresp.Body()...), nil
	case <-ctx.Done():
		go func() {
			<-done
			release()
		}()
		return 0, nil, ctx.Err()
	}
}

func (g *Gateway) isPublic(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.TrimLeft(path, "/")
	for _, p := range g.cfg.PublicPaths {
		if path == p || strings.HasPrefix(path, strings.TrimRight(p, "/")+"/") {
			return true
		}
	}
	return false
}

// invalidate logs out only when the token that was sent is still the current one, so a
// late 401 from an older session leaves a newer login alone.
func (g *Gateway) invalidate(ctx context.Context, log *zap.Logger, sent string, hErr *domain.HTTPError) {
	if g.session == nil {
		return
	}
	if !g.session.Invalidate(ctx, sent) {
		log.Debug("ignoring unauthorized response for replaced session")
		return
	}
	hErr.Invalidated = true
	log.Info("session invalidated by backend")
	if g.onInvalidated != nil {
		g.onInvalidated(ctx, hErr.Path)
	}
}

var _ usecase.Backend = (*Gateway)(nil)
