package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/repository"
)

// Manager couples the Store with its persisted copy. Writes to the repository are
// best-effort: a failed write is logged and the in-memory state is kept.
type Manager struct {
	store  *Store
	repo   repository.SessionRepository
	logger *zap.Logger

	// mu orders each transition together with its write, so the persisted record
	// always matches the last state dispatched through the Manager.
	mu sync.Mutex

	hydrateOnce sync.Once
	hydrated    chan struct{}
}

func NewManager(store *Store, repo repository.SessionRepository, logger *zap.Logger) *Manager {
	if store == nil {
		store = NewStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:    store,
		repo:     repo,
		logger:   logger,
		hydrated: make(chan struct{}),
	}
}

func (m *Manager) Store() *Store {
	return m.store
}

func (m *Manager) Snapshot() domain.Session {
	return m.store.Snapshot()
}

// Subscribe registers fn on the underlying Store. fn runs while the Manager holds its
// lock and must not call SetAuth or Logout itself.
func (m *Manager) Subscribe(fn Listener) func() {
	return m.store.Subscribe(fn)
}

// SetAuth stores user and token in memory, then writes the persisted record.
func (m *Manager) SetAuth(ctx context.Context, user *domain.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.store.Dispatch(SetAuth(user, token))
	if err != nil {
		return err
	}
	m.persist(ctx, state)
	return nil
}

// Logout clears the session and removes the persisted record. It is idempotent.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, _ := m.store.Dispatch(Logout())
	m.persist(ctx, state)
}

// Invalidate logs out only when token is still the current one, so of several requests
// rejected together exactly one ends the session. It reports whether it logged out.
func (m *Manager) Invalidate(ctx context.Context, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.store.Snapshot()
	if !current.IsAuthenticated() || current.Token != token {
		return false
	}
	state, _ := m.store.Dispatch(Logout())
	m.persist(ctx, state)
	return true
}

// Hydrate loads the persisted record once and marks the session hydrated whatever the
// outcome. A record holding only one of user and token is discarded.
func (m *Manager) Hydrate(ctx context.Context) error {
	var result error
	m.hydrateOnce.Do(func() {
		defer func() {
			m.store.MarkHydrated()
			close(m.hydrated)
		}()
		if m.repo == nil {
			return
		}
		m.mu.Lock()
		defer m.mu.Unlock()

		record, err := m.repo.Load(ctx)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			m.logger.Debug("no persisted session")
			return
		case err != nil:
			m.logger.Warn("failed to load persisted session", zap.Error(err))
			result = err
			return
		}

		if !record.Complete() {
			m.logger.Warn("discarding incomplete persisted session")
			if err := m.repo.Delete(ctx); err != nil {
				m.logger.Warn("failed to remove incomplete session", zap.Error(err))
			}
			return
		}
		if _, err := m.store.Dispatch(SetAuth(record.User, record.Token)); err != nil {
			m.logger.Warn("persisted session rejected", zap.Error(err))
			result = err
			return
		}
		m.logger.Info("session restored",
			zap.Int64("user_id", record.User.ID),
			zap.String("role", string(record.User.Role)))
	})
	return result
}

// Hydrated returns a channel closed once hydration has completed.
func (m *Manager) Hydrated() <-chan struct{} {
	return m.hydrated
}

// WaitHydrated blocks until hydration completes or ctx is done.
func (m *Manager) WaitHydrated(ctx context.Context) error {
	select {
	case <-m.hydrated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) persist(ctx context.Context, state domain.Session) {
	if m.repo == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	if state.IsAuthenticated() {
		err = m.repo.Save(ctx, &domain.PersistedSession{
			User:    state.User,
			Token:   state.Token,
			Version: domain.PersistedSessionVersion,
		})
	} else {
		err = m.repo.Delete(ctx)
	}
	if err != nil {
		m.logger.Warn("session persistence failed", zap.Bool("authenticated", state.IsAuthenticated()), zap.Error(err))
	}
}
