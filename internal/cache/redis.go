package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bjpl/describe-it-sub001/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisTier is the durable remote tier backed by redis. Values are stored
// as the Entry envelope so the remaining TTL can be computed when an entry
// is promoted into the memory tier; the redis server-side expiry is set to
// the same TTL as a backstop.
type RedisTier struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisTier creates a redis-backed durable tier
func NewRedisTier(addr, password string, db int) *RedisTier {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisTier{client: client, now: time.Now}
}

// NewRedisTierFromClient wraps an existing client (used by tests)
func NewRedisTierFromClient(client *redis.Client) *RedisTier {
	return &RedisTier{client: client, now: time.Now}
}

// Get returns the live value for a key, deleting it if expired
func (r *RedisTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &CacheError{Tier: r.Name(), Operation: "get", Key: key, Err: err}
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		// A corrupt envelope is treated as a miss and removed.
		logger.GetLogger().Warn("Dropping corrupt cache entry",
			zap.String("tier", r.Name()), zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return nil, false, nil
	}

	if entry.IsExpired(r.now()) {
		_ = r.client.Del(ctx, key).Err()
		return nil, false, nil
	}

	return entry.Data, true, nil
}

// GetEntry returns the full stored envelope, used by the tiered cache to
// compute the remaining TTL on promotion.
func (r *RedisTier) GetEntry(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, &CacheError{Tier: r.Name(), Operation: "get", Key: key, Err: err}
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		_ = r.client.Del(ctx, key).Err()
		return Entry{}, false, nil
	}

	if entry.IsExpired(r.now()) {
		_ = r.client.Del(ctx, key).Err()
		return Entry{}, false, nil
	}

	return entry, true, nil
}

// Set stores a value with both envelope and server-side expiry
func (r *RedisTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := Entry{
		Data:     append([]byte(nil), value...),
		StoredAt: r.now().UnixMilli(),
		TTL:      ttl.Milliseconds(),
	}

	raw, err := encodeEntry(entry)
	if err != nil {
		return &CacheError{Tier: r.Name(), Operation: "marshal", Key: key, Err: err}
	}

	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return &CacheError{Tier: r.Name(), Operation: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes a key
func (r *RedisTier) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return &CacheError{Tier: r.Name(), Operation: "delete", Key: key, Err: err}
	}
	return nil
}

// Exists reports whether a live entry is present
func (r *RedisTier) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := r.Get(ctx, key)
	return ok, err
}

// Keys returns every key with the given prefix, scanning incrementally so
// large keyspaces do not block the server.
func (r *RedisTier) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, &CacheError{Tier: r.Name(), Operation: "scan", Key: prefix, Err: err}
	}
	return keys, nil
}

// HealthCheck pings the server
func (r *RedisTier) HealthCheck(ctx context.Context) bool {
	return r.client.Ping(ctx).Err() == nil
}

// Name identifies the tier
func (r *RedisTier) Name() string {
	return "redis"
}
