package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var errNoBackend = errors.New("backend not configured")

// HealthChecker is satisfied by the API gateway.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// StorageProbe reports whether the session storage answers and how many records it
// holds; -1 means the count is unknown.
type StorageProbe func(ctx context.Context) (int, error)

type Monitor struct {
	backend     HealthChecker
	storage     StorageProbe
	storageName string

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(backend HealthChecker, storageName string, storage StorageProbe, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		backend:     backend,
		storage:     storage,
		storageName: storageName,
		interval:    interval,
		stopCh:      make(chan struct{}),
		logger:      logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether the last probe reached the backend.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Backend
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes both dependencies once and records the result.
func (m *Monitor) Refresh(ctx context.Context) Status {
	status := Status{StorageName: m.storageName, LastCheck: time.Now()}
	if err := m.checkBackend(ctx); err != nil {
		status.BackendError = err.Error()
	} else {
		status.Backend = true
	}
	status.Storage, status.StorageSize = m.checkStorage(ctx)

	m.mu.Lock()
	prev := m.status
	m.status = status
	m.mu.Unlock()

	if !prev.LastCheck.IsZero() && prev.Backend != status.Backend {
		m.logger.Info("backend connectivity changed", zap.Bool("online", status.Backend))
	}
	return status
}

func (m *Monitor) checkBackend(ctx context.Context) error {
	if m.backend == nil {
		return errNoBackend
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return m.backend.Health(ctx)
}

func (m *Monitor) checkStorage(ctx context.Context) (bool, int) {
	if m.storage == nil {
		return false, 0
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	size, err := m.storage(ctx)
	if err != nil {
		m.logger.Warn("storage check failed", zap.String("driver", m.storageName), zap.Error(err))
		return false, size
	}
	return true, size
}
