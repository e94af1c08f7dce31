package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeDurableTier is an in-memory Tier with injectable failures, standing
// in for the remote durable store.
type fakeDurableTier struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
	failing bool
	sets    int
	gets    int
}

func newFakeDurableTier(now func() time.Time) *fakeDurableTier {
	return &fakeDurableTier{entries: make(map[string]Entry), now: now}
}

func (f *fakeDurableTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, ok, err := f.GetEntry(ctx, key)
	if !ok || err != nil {
		return nil, false, err
	}
	return entry.Data, true, nil
}

func (f *fakeDurableTier) GetEntry(ctx context.Context, key string) (Entry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.failing {
		return Entry{}, false, errors.New("durable store unreachable")
	}
	entry, ok := f.entries[key]
	if !ok || entry.IsExpired(f.now()) {
		delete(f.entries, key)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (f *fakeDurableTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.failing {
		return errors.New("durable store unreachable")
	}
	f.entries[key] = Entry{
		Data:     append([]byte(nil), value...),
		StoredAt: f.now().UnixMilli(),
		TTL:      ttl.Milliseconds(),
	}
	return nil
}

func (f *fakeDurableTier) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("durable store unreachable")
	}
	delete(f.entries, key)
	return nil
}

func (f *fakeDurableTier) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := f.Get(ctx, key)
	return ok, err
}

func (f *fakeDurableTier) Keys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errors.New("durable store unreachable")
	}
	var keys []string
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *fakeDurableTier) HealthCheck(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.failing
}

func (f *fakeDurableTier) Name() string { return "fake-durable" }

func (f *fakeDurableTier) setFailing(failing bool) {
	f.mu.Lock()
	f.failing = failing
	f.mu.Unlock()
}

func newTestTieredCache(clock *fakeClock) (*TieredCache, *fakeDurableTier) {
	durable := newFakeDurableTier(clock.Now)
	tc := NewTieredCache(newMemoryTier(4, clock.Now), durable, "lingo:")
	tc.now = clock.Now
	return tc, durable
}

func TestTieredCacheWriteThrough(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tc, durable := newTestTieredCache(clock)

	tc.Set(ctx, "desc:cat", []byte("a cat"), time.Minute)

	data, ok := tc.Get(ctx, "desc:cat")
	if !ok || string(data) != "a cat" {
		t.Fatalf("Get after Set = (%q, %v), want hit", data, ok)
	}

	// The durable copy is namespaced under the key prefix.
	if _, ok, _ := durable.Get(ctx, "lingo:desc:cat"); !ok {
		t.Error("durable tier missing write-through entry")
	}
}

func TestTieredCacheWriteThroughWithDurableDown(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tc, durable := newTestTieredCache(clock)
	durable.setFailing(true)

	// Set must not raise even though the durable write fails.
	tc.Set(ctx, "desc:cat", []byte("a cat"), time.Minute)

	// The memory tier still serves the value.
	data, ok := tc.Get(ctx, "desc:cat")
	if !ok || string(data) != "a cat" {
		t.Fatalf("memory tier did not serve value with durable down: (%q, %v)", data, ok)
	}
}

func TestTieredCacheDurableFailureIsAMiss(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tc, durable := newTestTieredCache(clock)
	durable.setFailing(true)

	// Memory empty, durable failing: a plain miss, no error escapes.
	if _, ok := tc.Get(ctx, "desc:cat"); ok {
		t.Error("Get returned a hit from a failing durable tier")
	}
	if tc.DurableUp() {
		t.Error("durable tier still marked up after a failed call")
	}
}

func TestTieredCacheSkipsDurableWhenMarkedDown(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tc, durable := newTestTieredCache(clock)

	durable.setFailing(true)
	tc.Get(ctx, "desc:miss") // flips the sticky flag down
	getsAfterFailure := durable.gets

	tc.Get(ctx, "desc:other")
	if durable.gets != getsAfterFailure {
		t.Error("read path called a durable tier marked down")
	}
}

func TestTieredCacheWriteRecoversDurableFlag(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tc, durable := newTestTieredCache(clock)

	durable.setFailing(true)
	tc.Get(ctx, "desc:miss")
	if tc.DurableUp() {
		t.Fatal("durable tier should be marked down")
	}

	// Writes still probe the durable tier; a success flips the flag up.
	durable.setFailing(false)
	tc.Set(ctx, "desc:cat", []byte("a cat"), time.Minute)
	if !tc.DurableUp() {
		t.Error("durable tier not marked up after successful write")
	}
}

func TestTieredCachePromotesWithRemainingTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tc, durable := newTestTieredCache(clock)

	// Entry written to the durable tier 40s ago with a 60s TTL.
	_ = durable.Set(ctx, "lingo:desc:cat", []byte("a cat"), time.Minute)
	clock.Advance(40 * time.Second)

	// Memory miss, durable hit: promoted with the remaining 20s, not 60s.
	if _, ok := tc.Get(ctx, "desc:cat"); !ok {
		t.Fatal("expected durable hit")
	}

	// 15s later the memory copy is still live.
	clock.Advance(15 * time.Second)
	if _, ok := tc.Get(ctx, "desc:cat"); !ok {
		t.Error("promoted entry expired before remaining TTL elapsed")
	}

	// 10s more puts us past the original expiry in both tiers.
	clock.Advance(10 * time.Second)
	if _, ok := tc.Get(ctx, "desc:cat"); ok {
		t.Error("promoted entry outlived the original TTL")
	}
}

func TestTieredCacheGetOrSet(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tc, _ := newTestTieredCache(clock)

	fetches := 0
	fetch := func(ctx context.Context) ([]byte, error) {
		fetches++
		return []byte("computed"), nil
	}

	data, err := tc.GetOrSet(ctx, "vocab:list", time.Minute, fetch)
	if err != nil || string(data) != "computed" {
		t.Fatalf("GetOrSet = (%q, %v)", data, err)
	}

	// Second call is served from cache.
	data, err = tc.GetOrSet(ctx, "vocab:list", time.Minute, fetch)
	if err != nil || string(data) != "computed" {
		t.Fatalf("GetOrSet second call = (%q, %v)", data, err)
	}
	if fetches != 1 {
		t.Errorf("fetch ran %d times, want 1", fetches)
	}
}

func TestTieredCacheGetOrSetFetchError(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tc, _ := newTestTieredCache(clock)

	wantErr := errors.New("fetch failed")
	_, err := tc.GetOrSet(ctx, "vocab:list", time.Minute, func(ctx context.Context) ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("GetOrSet error = %v, want %v", err, wantErr)
	}

	// A failed fetch must not cache anything.
	if _, ok := tc.Get(ctx, "vocab:list"); ok {
		t.Error("failed fetch left an entry in the cache")
	}
}

func TestTieredCacheClear(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tc, _ := newTestTieredCache(clock)

	tc.Set(ctx, "desc:1", []byte("a"), time.Minute)
	tc.Set(ctx, "desc:2", []byte("b"), time.Minute)
	tc.Set(ctx, "vocab:1", []byte("c"), time.Minute)

	// Memory and durable copies both match the prefix: 2 keys x 2 tiers.
	removed := tc.Clear(ctx, "desc:")
	if removed != 4 {
		t.Errorf("Clear removed %d entries, want 4", removed)
	}

	if _, ok := tc.Get(ctx, "desc:1"); ok {
		t.Error("cleared entry still present")
	}
	if _, ok := tc.Get(ctx, "vocab:1"); !ok {
		t.Error("entry outside prefix was cleared")
	}
}

func TestTieredCacheClearWithDurableDown(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tc, durable := newTestTieredCache(clock)

	tc.Set(ctx, "desc:1", []byte("a"), time.Minute)
	durable.setFailing(true)

	// Best-effort: the memory entry still goes, no error raised.
	removed := tc.Clear(ctx, "desc:")
	if removed != 1 {
		t.Errorf("Clear removed %d entries, want 1 (memory only)", removed)
	}
}

func TestTieredCacheWithoutDurableTier(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tc := NewTieredCache(newMemoryTier(4, clock.Now), nil, "lingo:")
	tc.now = clock.Now

	tc.Set(ctx, "desc:cat", []byte("a cat"), time.Minute)
	if _, ok := tc.Get(ctx, "desc:cat"); !ok {
		t.Error("memory-only cache miss after Set")
	}
	if tc.DurableUp() {
		t.Error("DurableUp true with no durable tier")
	}
	if tc.DurableName() != "" {
		t.Error("DurableName non-empty with no durable tier")
	}
}
