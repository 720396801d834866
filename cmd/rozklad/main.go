package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/rozklad/api/gateway"
	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/internal/config"
	"github.com/fastygo/rozklad/internal/infrastructure/boltdb"
	"github.com/fastygo/rozklad/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/rozklad/internal/infrastructure/redis"
	"github.com/fastygo/rozklad/internal/services/lifecycle"
	"github.com/fastygo/rozklad/pkg/logger"
	"github.com/fastygo/rozklad/repository"
	boltRepo "github.com/fastygo/rozklad/repository/bolt"
	"github.com/fastygo/rozklad/repository/memory"
	redisRepo "github.com/fastygo/rozklad/repository/redis"
	"github.com/fastygo/rozklad/usecase"
	authUC "github.com/fastygo/rozklad/usecase/auth"
	requestUC "github.com/fastygo/rozklad/usecase/changerequest"
	directoryUC "github.com/fastygo/rozklad/usecase/directory"
	notificationUC "github.com/fastygo/rozklad/usecase/notification"
	scheduleUC "github.com/fastygo/rozklad/usecase/schedule"
	"github.com/fastygo/rozklad/usecase/session"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app carries everything a command handler may need.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	session *session.Manager
	api     *gateway.Gateway
	monitor *monitor.Monitor
	cursor  *boltdb.Store
	life    *lifecycle.Manager

	auth          *authUC.UseCase
	schedule      *scheduleUC.UseCase
	requests      *requestUC.UseCase
	directory     *directoryUC.UseCase
	notifications *notificationUC.UseCase

	in     io.Reader
	lines  *bufio.Reader
	out    io.Writer
	errOut io.Writer
	json   bool
}

// run executes one command and returns the process exit code. extra is appended to the
// gateway options.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer, extra ...gateway.Option) int {
	global := flag.NewFlagSet("rozklad", flag.ContinueOnError)
	global.SetOutput(stderr)
	asJSON := global.Bool("json", false, "print results as JSON")
	global.Usage = func() {
		fmt.Fprintln(stderr, "usage: rozklad [-json] <command> [arguments]")
	}
	if err := global.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Output:   stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "logger error: %v\n", err)
		return 1
	}
	defer zapLogger.Sync()

	life := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	ctx, cancel := life.WithSignals(context.Background())
	defer cancel()
	defer func() {
		if err := life.Shutdown(context.Background()); err != nil {
			zapLogger.Error("graceful shutdown error", zap.Error(err))
		}
	}()

	a := &app{cfg: cfg, logger: zapLogger, life: life, in: stdin, out: stdout, errOut: stderr, json: *asJSON}
	if err := a.wire(ctx, extra...); err != nil {
		fmt.Fprintf(stderr, "startup error: %v\n", err)
		return 1
	}

	d := usecase.NewDispatcher()
	a.register(d)

	rest := global.Args()
	if len(rest) == 0 || rest[0] == "help" {
		a.usage(d)
		return 0
	}

	entry, ok := d.Lookup(rest[0])
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		a.usage(d)
		return 2
	}
	if !entry.Public && !a.session.Snapshot().IsAuthenticated() {
		fmt.Fprintln(stderr, "You are not signed in. Run `rozklad login` first.")
		return 1
	}

	result, err := d.Execute(ctx, entry.Name, rest[1:])
	if err != nil {
		a.printError(err)
		return 1
	}
	if result != nil {
		if err := a.render(result); err != nil {
			fmt.Fprintf(stderr, "output error: %v\n", err)
			return 1
		}
	}
	return 0
}

// wire builds the object graph and restores the persisted session before any command
// runs.
func (a *app) wire(ctx context.Context, extra ...gateway.Option) error {
	repo, probe, err := a.openStorage(ctx)
	if err != nil {
		return err
	}

	a.session = session.NewManager(session.NewStore(), repo, a.logger)
	if err := a.session.Hydrate(ctx); err != nil {
		a.logger.Warn("session restore failed, continuing signed out", zap.Error(err))
	}

	opts := append([]gateway.Option{
		gateway.WithLogger(a.logger),
		gateway.OnSessionInvalidated(func(ctx context.Context, path string) {
			fmt.Fprintln(a.errOut, "Your session has expired. Run `rozklad login` to sign in again.")
		}),
	}, extra...)
	a.api = gateway.New(gateway.Config{
		BaseURL:     a.cfg.API.URL,
		Prefix:      a.cfg.API.Prefix,
		Timeout:     a.cfg.API.Timeout,
		MaxConns:    a.cfg.API.MaxConns,
		PublicPaths: a.cfg.Auth.PublicPaths,
		UserAgent:   a.cfg.AppName,
	}, a.session, opts...)

	a.monitor = monitor.New(a.api, a.cfg.Storage.Driver, probe, a.cfg.Poller.MonitorInterval, a.logger)

	a.auth = authUC.New(a.api, a.session, domain.Role(a.cfg.Auth.DefaultRole), a.logger)
	a.schedule = scheduleUC.New(a.api, a.logger)
	a.requests = requestUC.New(a.api, a.logger)
	a.directory = directoryUC.New(a.api, a.logger)
	a.notifications = notificationUC.New(a.api, a.logger)
	return nil
}

func (a *app) openStorage(ctx context.Context) (repository.SessionRepository, monitor.StorageProbe, error) {
	switch a.cfg.Storage.Driver {
	case "redis":
		client, err := redisInfra.NewClient(ctx, a.cfg.Redis, 5*time.Second)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		a.life.RegisterCloser("redis", client)
		probe := func(ctx context.Context) (int, error) {
			return -1, client.Ping(ctx).Err()
		}
		return redisRepo.NewSessionRepository(client, a.cfg.Storage.Record, a.cfg.Redis.SessionTTL), probe, nil

	case "memory":
		probe := func(context.Context) (int, error) { return 0, nil }
		return memory.NewSessionRepository(), probe, nil

	default:
		store, err := boltdb.Open(a.cfg.Storage.Path, a.cfg.Storage.Bucket)
		if err != nil {
			return nil, nil, fmt.Errorf("session store %s: %w", a.cfg.Storage.Path, err)
		}
		a.life.RegisterCloser("session_store", store)
		a.cursor = store
		probe := func(context.Context) (int, error) { return store.Size() }
		return boltRepo.NewSessionRepository(store, a.cfg.Storage.Record), probe, nil
	}
}

func (a *app) usage(d *usecase.Dispatcher) {
	fmt.Fprintln(a.errOut, "usage: rozklad [-json] <command> [arguments]")
	fmt.Fprintln(a.errOut)
	fmt.Fprintln(a.errOut, "commands:")
	for _, e := range d.Entries() {
		fmt.Fprintf(a.errOut, "  %-20s %s\n", e.Name, e.Usage)
	}
}

// printError writes the user-facing lines of err. Field errors from a 422 are listed
// one per line.
func (a *app) printError(err error) {
	switch {
	case errors.Is(err, domain.ErrSessionInvalidated):
		// the invalidation callback already told the user
		return
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(a.errOut, "interrupted")
		return
	case domain.IsDomainError(err, domain.ErrCodeNetwork):
		fmt.Fprintf(a.errOut, "Cannot reach the server at %s. Check your connection.\n", a.cfg.API.URL)
		return
	}
	if fields, ok := domain.AsValidation(err); ok {
		fmt.Fprintln(a.errOut, "The request was rejected:")
		for _, f := range fields {
			fmt.Fprintf(a.errOut, "  %s: %s\n", f.Field, f.Message)
		}
		return
	}
	for _, line := range domain.Messages(err) {
		fmt.Fprintln(a.errOut, "error:", line)
	}
}
