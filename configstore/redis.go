package configstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores the record as a plain string value.
type RedisBackend struct {
	redis redis.UniversalClient
	key   string
}

var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend stores the record under keyPrefix+StorageKey. An empty
// prefix uses the bare key.
func NewRedisBackend(client redis.UniversalClient, keyPrefix string) *RedisBackend {
	return &RedisBackend{
		redis: client,
		key:   keyPrefix + StorageKey,
	}
}

func (r *RedisBackend) Get(ctx context.Context) ([]byte, error) {
	if r == nil || r.redis == nil {
		return nil, ErrBackendUnavailable
	}

	data, err := r.redis.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return data, nil
}

func (r *RedisBackend) Put(ctx context.Context, data []byte) error {
	if r == nil || r.redis == nil {
		return ErrBackendUnavailable
	}

	if err := r.redis.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
