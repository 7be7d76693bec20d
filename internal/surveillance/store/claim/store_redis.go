// Package claim grants short-lived exclusive claims for sweep work. Claims
// expire on their own so a crashed worker never wedges a surveillance.
package claim

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements claims with SET NX and a TTL: the claim and its
// expiry are taken in one atomic command, so two concurrent sweeps can never
// both win.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed claim store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
