package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/review-auth-api/internal/config"
)

// Store is the ephemeral key-value contract the credential services depend
// on. Keys carry a TTL; expired keys behave as absent. SetNX is the atomic
// conditional write used to arm throttle keys without a check-then-act race.
type Store interface {
	// Get returns the value for key and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// SetWithTTL stores value under key, overwriting any previous value and TTL.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value only if key is absent; reports whether it was set.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Increment atomically increments the integer at key, creating it at 0
	// first if absent, and returns the new value. The key carries no TTL.
	Increment(ctx context.Context, key string) (int64, error)
}

type redisStore struct {
	rdb *redis.Client
}

// NewStore connects to Redis using cfg.RedisURL (e.g. redis://:pass@host:6379/0)
// and fails fast if the server is unreachable.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &redisStore{rdb: rdb}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *redisStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *redisStore) Increment(ctx context.Context, key string) (int64, error) {
	return s.rdb.Incr(ctx, key).Result()
}
