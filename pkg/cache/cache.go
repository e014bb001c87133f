// Package cache wraps go-redis for the small amount of shared state the
// console keeps: stored access tokens and per-session notification queues.
//
//	if err := cache.Connect(); err != nil { ... fall back to memory ... }
//	c := cache.Default()
//	_ = c.Set(ctx, "k", v, time.Hour)
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/muestras/config"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// RDB is the process-wide client set by Connect. Nil means redis is unavailable.
var RDB *redis.Client

// Connect initialises RDB and verifies the connection with a ping.
// Returns an error so the caller can react (log warning, fall back, or abort).
func Connect() error {
	c := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		RDB = nil
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	RDB = c
	return nil
}

// Cache is a JSON-valued view over a redis client with a key prefix.
type Cache struct {
	rdb    *redis.Client
	prefix string
}

// New wraps rdb. prefix is prepended to every key.
func New(rdb *redis.Client, prefix string) *Cache {
	return &Cache{rdb: rdb, prefix: prefix}
}

// Default wraps RDB with the application prefix, or returns nil when redis
// is unavailable.
func Default() *Cache {
	if RDB == nil {
		return nil
	}
	return New(RDB, "muestras:")
}

func (c *Cache) key(k string) string { return c.prefix + k }

// Get unmarshals the value stored under key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache: get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return nil
}

// Set stores value under key for ttl (0 keeps it forever).
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// Del removes one or more keys.
func (c *Cache) Del(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache: del: %w", err)
	}
	return nil
}

// Forget is an alias for Del.
func (c *Cache) Forget(ctx context.Context, key string) error {
	return c.Del(ctx, key)
}

// Push appends value to the list under key and refreshes its ttl.
func (c *Cache) Push(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	pipe := c.rdb.TxPipeline()
	pipe.RPush(ctx, c.key(key), data)
	if ttl > 0 {
		pipe.Expire(ctx, c.key(key), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache: push %s: %w", key, err)
	}
	return nil
}

// Drain atomically returns and removes every raw entry of the list under key.
func (c *Cache) Drain(ctx context.Context, key string) ([][]byte, error) {
	pipe := c.rdb.TxPipeline()
	rng := pipe.LRange(ctx, c.key(key), 0, -1)
	pipe.Del(ctx, c.key(key))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cache: drain %s: %w", key, err)
	}
	vals := rng.Val()
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}
