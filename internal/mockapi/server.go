// Package mockapi is an in-memory stand-in for the scheduling backend, speaking the
// same routes, bearer tokens and {"detail": ...} errors. It backs local development
// and the end-to-end tests of the client.
package mockapi

import (
	"context"
	"net"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/rozklad/pkg/httpcontext"
)

type Config struct {
	Prefix    string
	JWTSecret string
	TokenTTL  time.Duration
	Accounts  []SeedAccount
}

type Server struct {
	Data   *Data
	Issuer *Issuer
	srv    *fasthttp.Server
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "/api/v1"
	}
	if cfg.Accounts == nil {
		cfg.Accounts = DefaultAccounts
	}

	data, err := NewData(cfg.Accounts)
	if err != nil {
		return nil, err
	}
	issuer := NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	api := &API{
		data:    data,
		issuer:  issuer,
		adapter: httpcontext.NewAdapter(5 * time.Second),
		logger:  logger,
	}

	r := newRouter(api, cfg.Prefix, bearerAuth(issuer, data, logger))
	return &Server{
		Data:   data,
		Issuer: issuer,
		logger: logger,
		srv: &fasthttp.Server{
			Handler:      accessLog(logger)(r.Handler),
			Name:         "rozklad-mockapi",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("mock api listening", zap.String("addr", ln.Addr().String()))
	return s.srv.Serve(ln)
}

func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}
