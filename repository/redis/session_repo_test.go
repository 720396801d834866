package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/rozklad/domain"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redislib.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sample() *domain.PersistedSession {
	return &domain.PersistedSession{
		User:    &domain.User{ID: 5, Username: "admin", FullName: "Admin", Role: domain.RoleAdmin},
		Token:   "tok",
		Version: domain.PersistedSessionVersion,
	}
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	repo := NewSessionRepository(client, "", 0)

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, repo.Save(ctx, sample()))
	assert.True(t, mr.Exists("rozklad:auth-storage"))
	assert.Equal(t, time.Duration(0), mr.TTL("rozklad:auth-storage"))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample(), loaded)

	require.NoError(t, repo.Delete(ctx))
	require.NoError(t, repo.Delete(ctx))
	_, err = repo.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepositoryExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	repo := NewSessionRepository(client, "device-1", time.Hour)

	require.NoError(t, repo.Save(ctx, sample()))
	assert.Equal(t, time.Hour, mr.TTL("rozklad:device-1"))

	mr.FastForward(2 * time.Hour)
	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepositoryCorruptRecord(t *testing.T) {
	mr, client := newClient(t)
	require.NoError(t, mr.Set("rozklad:auth-storage", "garbage"))

	_, err := NewSessionRepository(client, "", 0).Load(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
