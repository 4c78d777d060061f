package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"ceramics-booking/errors"
)

// Registry tracks live session IDs so logout can revoke a token before it expires.
type Registry interface {
	Save(ctx context.Context, id string, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// NoopRegistry keeps sessions stateless. Logout only clears the cookie.
type NoopRegistry struct{}

func (NoopRegistry) Save(ctx context.Context, id string, ttl time.Duration) error { return nil }
func (NoopRegistry) Exists(ctx context.Context, id string) (bool, error)          { return true, nil }
func (NoopRegistry) Delete(ctx context.Context, id string) error                   { return nil }

const keyPrefix = "admin_session:"

type RedisRegistry struct {
	client redis.Cmdable
}

func NewRedisRegistry(client redis.Cmdable) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func (r *RedisRegistry) Save(ctx context.Context, id string, ttl time.Duration) error {
	if err := r.client.Set(ctx, keyPrefix+id, "1", ttl).Err(); err != nil {
		return errors.Unavailable(err)
	}
	return nil
}

func (r *RedisRegistry) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, errors.Unavailable(err)
	}
	return n > 0, nil
}

func (r *RedisRegistry) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return errors.Unavailable(err)
	}
	return nil
}
