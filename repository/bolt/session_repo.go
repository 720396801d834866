package bolt

import (
	"context"
	"encoding/json"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/internal/infrastructure/boltdb"
	"github.com/fastygo/rozklad/repository"
)

type sessionRepository struct {
	store *boltdb.Store
	key   string
}

// NewSessionRepository creates a device-local session repository on top of a Bolt store.
func NewSessionRepository(store *boltdb.Store, record string) repository.SessionRepository {
	if record == "" {
		record = "auth-storage"
	}
	return &sessionRepository{store: store, key: record}
}

func (r *sessionRepository) Load(ctx context.Context) (*domain.PersistedSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := r.store.Get(r.key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, domain.ErrSessionNotFound
	}

	var record domain.PersistedSession
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "corrupt session record", err)
	}
	return &record, nil
}

func (r *sessionRepository) Save(ctx context.Context, record *domain.PersistedSession) error {
	if record == nil {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.store.Put(r.key, payload)
}

func (r *sessionRepository) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.Delete(r.key)
}
