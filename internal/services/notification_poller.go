package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/rozklad/domain"
)

const cursorPrefix = "notifications-cursor:"

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

type SessionReader interface {
	Snapshot() domain.Session
}

type NotificationSource interface {
	List(ctx context.Context, unreadOnly bool) ([]domain.Notification, error)
}

// CursorStore keeps the highest delivered notification id per user across restarts.
// *boltdb.Store satisfies it.
type CursorStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// Sink receives each notification once, in ascending id order.
type Sink func(n domain.Notification)

type PollerConfig struct {
	Interval time.Duration
}

// NotificationPoller periodically fetches unread notifications for the signed-in user
// and hands new ones to a sink.
type NotificationPoller struct {
	source  NotificationSource
	session SessionReader
	monitor ConnectionHealth
	cursor  CursorStore
	sink    Sink
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     PollerConfig

	mu     sync.Mutex
	lastID int64
	userID int64
}

func NewNotificationPoller(
	source NotificationSource,
	session SessionReader,
	monitor ConnectionHealth,
	cursor CursorStore,
	sink Sink,
	logger *zap.Logger,
	cfg PollerConfig,
) *NotificationPoller {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &NotificationPoller{
		source:  source,
		session: session,
		monitor: monitor,
		cursor:  cursor,
		sink:    sink,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := p.Poll(ctx); err != nil {
			p.logger.Warn("notification poll failed", zap.Error(err))
		}
	})

	return p
}

// Start launches the cron scheduler.
func (p *NotificationPoller) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("notification poller started", zap.Duration("interval", p.cfg.Interval))
}

// Stop waits for a running poll to finish or ctx to end.
func (p *NotificationPoller) Stop(ctx context.Context) error {
	if p == nil || p.cron == nil {
		return nil
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	p.logger.Info("notification poller stopped")
	return nil
}

// Poll fetches unread notifications once and delivers those newer than the cursor.
// It does nothing while offline or signed out.
func (p *NotificationPoller) Poll(ctx context.Context) (int, error) {
	if p == nil || p.source == nil {
		return 0, nil
	}
	if p.monitor != nil && !p.monitor.IsOnline() {
		p.logger.Debug("skipping notification poll (offline)")
		return 0, nil
	}
	state := p.session.Snapshot()
	if !state.IsAuthenticated() {
		p.logger.Debug("skipping notification poll (signed out)")
		return 0, nil
	}

	items, err := p.source.List(ctx, true)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.userID != state.User.ID {
		p.userID = state.User.ID
		p.lastID = p.loadCursor(p.userID)
	}

	fresh := make([]domain.Notification, 0, len(items))
	for _, n := range items {
		if n.ID > p.lastID {
			fresh = append(fresh, n)
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].ID < fresh[j].ID })

	for _, n := range fresh {
		if p.sink != nil {
			p.sink(n)
		}
		p.lastID = n.ID
	}
	if len(fresh) > 0 {
		p.saveCursor(p.userID, p.lastID)
	}
	return len(fresh), nil
}

func cursorKey(userID int64) string {
	return cursorPrefix + strconv.FormatInt(userID, 10)
}

func (p *NotificationPoller) loadCursor(userID int64) int64 {
	if p.cursor == nil {
		return 0
	}
	raw, err := p.cursor.Get(cursorKey(userID))
	if err != nil || len(raw) == 0 {
		return 0
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		p.logger.Warn("ignoring unreadable notification cursor", zap.Error(err))
		return 0
	}
	return id
}

func (p *NotificationPoller) saveCursor(userID, id int64) {
	if p.cursor == nil {
		return
	}
	if err := p.cursor.Put(cursorKey(userID), []byte(strconv.FormatInt(id, 10))); err != nil {
		p.logger.Warn("failed to store notification cursor", zap.Error(err))
	}
}
