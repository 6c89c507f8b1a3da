package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionTTL keeps abandoned sessions from accumulating forever. Every
// write refreshes it, so an active session never expires out from
// under its user.
const sessionTTL = 30 * 24 * time.Hour

// RedisStore is a session-scoped Store on a shared Redis instance.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis returns a Store whose keys are namespaced by the given
// session scope.
func NewRedis(client *redis.Client, scope string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: SessionPrefix(scope),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("localstore get %q: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, sessionTTL).Err(); err != nil {
		return fmt.Errorf("localstore set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("localstore delete: %w", err)
	}
	return nil
}
