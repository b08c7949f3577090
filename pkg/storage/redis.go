package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RedisClient defines the Redis operations the store uses. The
// interface is compatible with github.com/redis/go-redis/v9, which
// stays out of this module's dependencies; callers wrap their client
// to satisfy it.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) RedisStatusCmd
	Get(ctx context.Context, key string) RedisStringCmd
	Del(ctx context.Context, keys ...string) RedisIntCmd
	Keys(ctx context.Context, pattern string) RedisStringSliceCmd
	Close() error
}

// RedisStatusCmd represents a Redis status command result.
type RedisStatusCmd interface {
	Err() error
}

// RedisStringCmd represents a Redis string command result.
type RedisStringCmd interface {
	Bytes() ([]byte, error)
	Err() error
}

// RedisIntCmd represents a Redis int command result.
type RedisIntCmd interface {
	Err() error
}

// RedisStringSliceCmd represents a Redis string-slice command result.
type RedisStringSliceCmd interface {
	Result() ([]string, error)
}

// ErrRedisNil is the missing-key error. It matches redis.Nil from
// go-redis by message, and wrappers may return it directly.
var ErrRedisNil = errors.New("redis: nil")

// Redis stores values in Redis under a key prefix. Suitable when
// several processes share persisted atom state.
type Redis struct {
	client RedisClient
	prefix string
}

// RedisOption configures the Redis store.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix string
}

// WithRedisPrefix sets the key prefix. Default: "jotai:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *redisConfig) {
		c.prefix = prefix
	}
}

// NewRedis creates a Redis-backed store.
func NewRedis(client RedisClient, opts ...RedisOption) *Redis {
	cfg := &redisConfig{prefix: "jotai:"}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Redis{
		client: client,
		prefix: cfg.prefix,
	}
}

// Load retrieves the value for key.
func (r *Redis) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, ErrRedisNil) || err.Error() == ErrRedisNil.Error() {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: loading %s from redis: %w", key, err)
	}
	return data, nil
}

// Save persists data under key with no expiration.
func (r *Redis) Save(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("storage: saving %s to redis: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("storage: deleting %s from redis: %w", key, err)
	}
	return nil
}

// Keys lists all stored keys under the prefix.
func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	full, err := r.client.Keys(ctx, r.prefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("storage: listing keys in redis: %w", err)
	}
	keys := make([]string, 0, len(full))
	for _, k := range full {
		keys = append(keys, strings.TrimPrefix(k, r.prefix))
	}
	return keys, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Storage = (*Redis)(nil)
