package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/internal/infrastructure/boltdb"
)

func openStore(t *testing.T) *boltdb.Store {
	t.Helper()
	store, err := boltdb.Open(filepath.Join(t.TempDir(), "nested", "session.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	repo := NewSessionRepository(store, "")

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	inst := int64(3)
	record := &domain.PersistedSession{
		User:    &domain.User{ID: 1, Username: "u", FullName: "U", Role: domain.RoleParent, InstitutionID: &inst},
		Token:   "tok",
		Version: domain.PersistedSessionVersion,
	}
	require.NoError(t, repo.Save(ctx, record))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, record, loaded)

	raw, err := store.Get("auth-storage")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"token":"tok"`)

	require.NoError(t, repo.Delete(ctx))
	require.NoError(t, repo.Delete(ctx))
	_, err = repo.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepositoryCorruptRecord(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Put("auth-storage", []byte("{not json")))

	_, err := NewSessionRepository(store, "").Load(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestSessionRepositoryRejectsNil(t *testing.T) {
	repo := NewSessionRepository(openStore(t), "custom")
	assert.ErrorIs(t, repo.Save(context.Background(), nil), domain.ErrInvalidPayload)
}

func TestSessionRepositoryCancelledContext(t *testing.T) {
	repo := NewSessionRepository(openStore(t), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
