// Package storage provides the optional local snapshot cache for the flag
// marketplace client. The cache only ever holds copies of server responses
// so the CLI can warm-start; it is never authoritative and every mutation
// invalidates the affected keys before the refetch lands.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flagmarket-client/internal/config"
)

// SnapshotCache caches fetched collections and detail payloads in Redis
// with a TTL.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache connects to Redis and verifies the connection.
func NewSnapshotCache(cfg *config.CacheConfig) (*SnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &SnapshotCache{client: client, ttl: cfg.TTL}, nil
}

// Close releases the Redis connection.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}

// Key builds a cache key from a resource family and its parameters.
// Format: <family>:<param1>:<param2>:...; parameters are lower-cased so
// wallet addresses key consistently.
func Key(family string, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, family)
	for _, p := range params {
		parts = append(parts, strings.ToLower(p))
	}
	return strings.Join(parts, ":")
}

// Put stores a JSON-serialized snapshot under the configured TTL.
func (c *SnapshotCache) Put(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Get loads a snapshot into dest. A miss returns (false, nil).
func (c *SnapshotCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return true, nil
}

// Invalidate removes the given keys. Called after every successful mutation
// so a stale snapshot never outlives the state it mirrors.
func (c *SnapshotCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// InvalidateFamily removes every key of one resource family.
func (c *SnapshotCache) InvalidateFamily(ctx context.Context, family string) error {
	iter := c.client.Scan(ctx, 0, family+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	keys = append(keys, family)
	return c.client.Del(ctx, keys...).Err()
}
