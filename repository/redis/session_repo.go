package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/repository"
)

type sessionRepository struct {
	client *redislib.Client
	prefix string
	record string
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository. A non-positive ttl
// keeps the record until it is deleted.
func NewSessionRepository(client *redislib.Client, record string, ttl time.Duration) repository.SessionRepository {
	if record == "" {
		record = "auth-storage"
	}
	return &sessionRepository{
		client: client,
		prefix: "rozklad:",
		record: record,
		ttl:    ttl,
	}
}

func (r *sessionRepository) Load(ctx context.Context) (*domain.PersistedSession, error) {
	result, err := r.client.Get(ctx, r.key()).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var record domain.PersistedSession
	if err := json.Unmarshal([]byte(result), &record); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "corrupt session record", err)
	}
	return &record, nil
}

func (r *sessionRepository) Save(ctx context.Context, record *domain.PersistedSession) error {
	if record == nil {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.key(), payload, ttl).Err()
}

func (r *sessionRepository) Delete(ctx context.Context) error {
	return r.client.Del(ctx, r.key()).Err()
}

func (r *sessionRepository) key() string {
	return fmt.Sprintf("%s%s", r.prefix, r.record)
}
