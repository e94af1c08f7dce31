package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bjpl/describe-it-sub001/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TieredCache composes the in-process memory tier in front of an optional
// durable remote tier. The durable tier is purely a latency/cost
// optimization: every one of its failures is absorbed here and downgraded
// to a cache miss, so a broken remote store can degrade performance but
// never correctness.
//
// Durable availability is a sticky flag flipped by actual call outcomes.
// Reads skip a tier marked down; writes still attempt it (their errors are
// swallowed anyway), which is what eventually flips the flag back up after
// an outage. No synthetic health polling runs.
type TieredCache struct {
	memory    *MemoryTier
	durable   Tier // nil when no durable backend is configured
	keyPrefix string
	durableUp atomic.Bool
	group     singleflight.Group
	now       func() time.Time
}

// NewTieredCache creates a tiered cache. durable may be nil. All keys are
// namespaced under keyPrefix before touching either tier.
func NewTieredCache(memory *MemoryTier, durable Tier, keyPrefix string) *TieredCache {
	tc := &TieredCache{
		memory:    memory,
		durable:   durable,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
	tc.durableUp.Store(durable != nil)
	return tc
}

func (tc *TieredCache) prefixed(key string) string {
	return tc.keyPrefix + key
}

// Get reads through the tiers: memory first, then the durable tier if it
// is believed up. A durable hit is promoted into the memory tier with the
// remaining TTL so expirations stay consistent across tiers. Durable
// failures are treated as misses.
func (tc *TieredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	pk := tc.prefixed(key)

	if data, ok, _ := tc.memory.Get(ctx, pk); ok {
		return data, true
	}

	if tc.durable == nil || !tc.durableUp.Load() {
		return nil, false
	}

	entry, ok, err := tc.durable.GetEntry(ctx, pk)
	if err != nil {
		tc.markDurable(false, "get", err)
		return nil, false
	}
	tc.markDurable(true, "get", nil)
	if !ok {
		return nil, false
	}

	remaining := entry.Remaining(tc.now())
	if remaining <= 0 {
		return nil, false
	}
	if err := tc.memory.Set(ctx, pk, entry.Data, remaining); err != nil {
		logger.GetLogger().Warn("Failed to promote cache entry to memory tier",
			zap.String("key", key), zap.Error(err))
	}

	return entry.Data, true
}

// Set writes through: the memory tier synchronously, the durable tier
// best-effort. A durable failure is logged and swallowed.
func (tc *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	pk := tc.prefixed(key)

	if err := tc.memory.Set(ctx, pk, value, ttl); err != nil {
		logger.GetLogger().Warn("Memory tier set failed", zap.String("key", key), zap.Error(err))
	}

	if tc.durable == nil {
		return
	}
	if err := tc.durable.Set(ctx, pk, value, ttl); err != nil {
		tc.markDurable(false, "set", err)
		return
	}
	tc.markDurable(true, "set", nil)
}

// Delete removes a key from both tiers, tolerating durable unavailability
func (tc *TieredCache) Delete(ctx context.Context, key string) {
	pk := tc.prefixed(key)

	_ = tc.memory.Delete(ctx, pk)

	if tc.durable == nil {
		return
	}
	if err := tc.durable.Delete(ctx, pk); err != nil {
		tc.markDurable(false, "delete", err)
		return
	}
	tc.markDurable(true, "delete", nil)
}

// Exists reports whether a live entry is present in any tier
func (tc *TieredCache) Exists(ctx context.Context, key string) bool {
	_, ok := tc.Get(ctx, key)
	return ok
}

// GetOrSet returns the cached value for key, or runs fetch, caches its
// result with the given TTL, and returns it. Concurrent callers for the
// same key share one fetch.
func (tc *TieredCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if data, ok := tc.Get(ctx, key); ok {
		return data, nil
	}

	value, err, _ := tc.group.Do(key, func() (interface{}, error) {
		// Re-check: another flight may have populated the key between the
		// miss above and entering the group.
		if data, ok := tc.Get(ctx, key); ok {
			return data, nil
		}

		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		tc.Set(ctx, key, data, ttl)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

// Clear removes every entry whose key matches the given prefix (relative
// to the cache namespace) from both tiers. Returns the best-effort count
// of removed keys; durable unavailability only reduces the count.
func (tc *TieredCache) Clear(ctx context.Context, prefix string) int {
	pk := tc.prefixed(prefix)
	removed := 0

	if keys, err := tc.memory.Keys(ctx, pk); err == nil {
		for _, key := range keys {
			_ = tc.memory.Delete(ctx, key)
			removed++
		}
	}

	if tc.durable == nil || !tc.durableUp.Load() {
		return removed
	}

	keys, err := tc.durable.Keys(ctx, pk)
	if err != nil {
		tc.markDurable(false, "keys", err)
		return removed
	}
	for _, key := range keys {
		if err := tc.durable.Delete(ctx, key); err != nil {
			tc.markDurable(false, "delete", err)
			return removed
		}
		removed++
	}
	tc.markDurable(true, "clear", nil)

	return removed
}

// HealthCheck round-trips against both tiers and updates the sticky
// durable flag. Used by the cache status command.
func (tc *TieredCache) HealthCheck(ctx context.Context) (memoryUp, durableUp bool) {
	memoryUp = tc.memory.HealthCheck(ctx)
	if tc.durable == nil {
		return memoryUp, false
	}
	durableUp = tc.durable.HealthCheck(ctx)
	tc.durableUp.Store(durableUp)
	return memoryUp, durableUp
}

// DurableUp reports the last-known durable tier availability
func (tc *TieredCache) DurableUp() bool {
	return tc.durable != nil && tc.durableUp.Load()
}

// DurableName returns the durable tier name, or empty when none is wired
func (tc *TieredCache) DurableName() string {
	if tc.durable == nil {
		return ""
	}
	return tc.durable.Name()
}

// MemoryLen returns the memory tier entry count
func (tc *TieredCache) MemoryLen() int {
	return tc.memory.Len()
}

// markDurable flips the sticky availability flag from a call outcome
func (tc *TieredCache) markDurable(up bool, operation string, err error) {
	prev := tc.durableUp.Swap(up)
	if prev == up {
		return
	}
	if up {
		logger.GetLogger().Info("Durable cache tier recovered",
			zap.String("tier", tc.durable.Name()),
			zap.String("operation", operation))
	} else {
		logger.GetLogger().Warn("Durable cache tier marked down",
			zap.String("tier", tc.durable.Name()),
			zap.String("operation", operation),
			zap.Error(err))
	}
}
