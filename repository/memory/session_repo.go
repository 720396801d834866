package memory

import (
	"context"
	"sync"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/repository"
)

// SessionRepository keeps the record in process memory; it does not survive a restart
// of the process that owns it.
type SessionRepository struct {
	mu     sync.Mutex
	record *domain.PersistedSession

	// Fail, when set, is returned by every operation.
	Fail error
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

func (r *SessionRepository) Load(ctx context.Context) (*domain.PersistedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return nil, r.Fail
	}
	if r.record == nil {
		return nil, domain.ErrSessionNotFound
	}
	out := *r.record
	if r.record.User != nil {
		u := *r.record.User
		out.User = &u
	}
	return &out, nil
}

func (r *SessionRepository) Save(ctx context.Context, record *domain.PersistedSession) error {
	if record == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	cp := *record
	if record.User != nil {
		u := *record.User
		cp.User = &u
	}
	r.record = &cp
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.record = nil
	return nil
}

var _ repository.SessionRepository = (*SessionRepository)(nil)
