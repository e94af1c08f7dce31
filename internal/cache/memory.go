package cache

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"
)

const defaultShardCount = 16

// MemoryTier is the fast in-process tier: a sharded map with lazy TTL
// eviction. Reads take a shard read lock; writes replace the whole entry
// under the shard write lock, so concurrent readers never observe a
// partially written value. No background sweeper runs; expired entries are
// removed by the access that detects them.
type MemoryTier struct {
	shards []*memoryShard
	now    func() time.Time
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryTier creates a memory tier with the default shard count
func NewMemoryTier() *MemoryTier {
	return newMemoryTier(defaultShardCount, time.Now)
}

func newMemoryTier(shardCount int, now func() time.Time) *MemoryTier {
	shards := make([]*memoryShard, shardCount)
	for i := range shards {
		shards[i] = &memoryShard{entries: make(map[string]Entry)}
	}
	return &MemoryTier{shards: shards, now: now}
}

// shardFor selects the shard owning a key
func (m *MemoryTier) shardFor(key string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return m.shards[int(h.Sum32())%len(m.shards)]
}

// Get returns the live value for a key, deleting it if expired
func (m *MemoryTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	shard := m.shardFor(key)

	shard.mu.RLock()
	entry, ok := shard.entries[key]
	shard.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if entry.IsExpired(m.now()) {
		shard.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// replaced the entry with a fresh one.
		if current, ok := shard.entries[key]; ok && current.IsExpired(m.now()) {
			delete(shard.entries, key)
		}
		shard.mu.Unlock()
		return nil, false, nil
	}

	return entry.Data, true, nil
}

// GetEntry returns the full stored envelope for a live key
func (m *MemoryTier) GetEntry(ctx context.Context, key string) (Entry, bool, error) {
	shard := m.shardFor(key)

	shard.mu.RLock()
	entry, ok := shard.entries[key]
	shard.mu.RUnlock()

	if !ok || entry.IsExpired(m.now()) {
		// Route through Get for the lazy delete.
		_, _, _ = m.Get(ctx, key)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Set stores a value, overwriting unconditionally
func (m *MemoryTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := Entry{
		Data:     append([]byte(nil), value...),
		StoredAt: m.now().UnixMilli(),
		TTL:      ttl.Milliseconds(),
	}

	shard := m.shardFor(key)
	shard.mu.Lock()
	shard.entries[key] = entry
	shard.mu.Unlock()
	return nil
}

// Delete removes a key
func (m *MemoryTier) Delete(ctx context.Context, key string) error {
	shard := m.shardFor(key)
	shard.mu.Lock()
	delete(shard.entries, key)
	shard.mu.Unlock()
	return nil
}

// Exists reports whether a live entry is present
func (m *MemoryTier) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := m.Get(ctx, key)
	return ok, err
}

// Keys returns every live key with the given prefix
func (m *MemoryTier) Keys(ctx context.Context, prefix string) ([]string, error) {
	now := m.now()
	var keys []string
	for _, shard := range m.shards {
		shard.mu.RLock()
		for key, entry := range shard.entries {
			if strings.HasPrefix(key, prefix) && !entry.IsExpired(now) {
				keys = append(keys, key)
			}
		}
		shard.mu.RUnlock()
	}
	return keys, nil
}

// HealthCheck is trivially true for the in-process tier
func (m *MemoryTier) HealthCheck(ctx context.Context) bool {
	return true
}

// Name identifies the tier
func (m *MemoryTier) Name() string {
	return "memory"
}

// Len returns the number of stored entries, including any not yet lazily
// evicted. Used by the cache status command.
func (m *MemoryTier) Len() int {
	total := 0
	for _, shard := range m.shards {
		shard.mu.RLock()
		total += len(shard.entries)
		shard.mu.RUnlock()
	}
	return total
}
