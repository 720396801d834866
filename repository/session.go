package repository

import (
	"context"

	"github.com/fastygo/rozklad/domain"
)

// SessionRepository persists the single named session record.
// Load returns domain.ErrSessionNotFound when nothing is stored; Delete is idempotent.
type SessionRepository interface {
	Load(ctx context.Context) (*domain.PersistedSession, error)
	Save(ctx context.Context, record *domain.PersistedSession) error
	Delete(ctx context.Context) error
}
