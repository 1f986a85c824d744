// Package cache is a generic TTL cache on Redis with prefix-scoped
// invalidation.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotFound     = errors.New("key not found")
	ErrEncodeFailed = errors.New("failed to encode value")
	ErrDecodeFailed = errors.New("failed to decode value")
)

// Encoder converts a value of type T to a byte slice for storage in Redis.
type Encoder[T any] func(value T) ([]byte, error)

// Decoder converts a byte slice from Redis back to a value of type T.
type Decoder[T any] func(data []byte) (T, error)

// Cache is a generic cache backed by Redis. Keys are namespaced under the
// configured prefix.
type Cache[T any] struct {
	client  *redis.Client
	encoder Encoder[T]
	decoder Decoder[T]
	prefix  string
}

// Options contains configuration options for creating a new Cache.
type Options[T any] struct {
	Client  *redis.Client
	Encoder Encoder[T]
	Decoder Decoder[T]
	Prefix  string
}

// New creates a new generic Cache instance.
func New[T any](opts Options[T]) *Cache[T] {
	return &Cache[T]{
		client:  opts.Client,
		encoder: opts.Encoder,
		decoder: opts.Decoder,
		prefix:  opts.Prefix,
	}
}

// key returns the full Redis key with prefix applied.
func (c *Cache[T]) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Set stores a value in the cache with the given key and TTL.
// Use ttl=0 for no expiration.
func (c *Cache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	data, err := c.encoder(value)
	if err != nil {
		return errors.Join(ErrEncodeFailed, err)
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

// Get retrieves a value from the cache by key.
// Returns ErrNotFound if the key does not exist.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, err
	}

	value, err := c.decoder(data)
	if err != nil {
		return zero, errors.Join(ErrDecodeFailed, err)
	}

	return value, nil
}

// Delete removes a key from the cache.
func (c *Cache[T]) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

// Keys returns every stored key under the prefix matching the glob pattern,
// with the prefix stripped. Uses SCAN so it never blocks the server.
func (c *Cache[T]) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.key(pattern), 0).Iterator()
	strip := 0
	if c.prefix != "" {
		strip = len(c.prefix) + 1
	}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[strip:])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteMany removes a batch of keys in one round trip.
func (c *Cache[T]) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.key(k)
	}
	return c.client.Del(ctx, fullKeys...).Err()
}
