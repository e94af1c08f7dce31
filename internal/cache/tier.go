package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Tier is one layer of the cache hierarchy. Implementations must be safe
// for concurrent use and must enforce TTL themselves: Get never returns an
// expired entry and removes it on the access that detects expiry.
type Tier interface {
	// Get returns (value, true, nil) on a live hit and (nil, false, nil)
	// on a miss or expired entry. IO errors return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// GetEntry returns the full stored envelope for a live key so the
	// remaining TTL can be computed when promoting between tiers.
	GetEntry(ctx context.Context, key string) (Entry, bool, error)

	// Set stores the value with the given TTL, overwriting unconditionally.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a live entry is present for the key.
	Exists(ctx context.Context, key string) (bool, error)

	// Keys returns every live key with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// HealthCheck round-trips against the tier's backing store.
	HealthCheck(ctx context.Context) bool

	// Name identifies the tier in logs and errors.
	Name() string
}

// Entry is the stored envelope for one cached value. Each tier serializes
// its own copy; entries are never shared across tiers by reference.
type Entry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt int64           `json:"stored_at_ms"`
	TTL      int64           `json:"ttl_ms"`
}

// NewEntry creates an entry stamped with the current time
func NewEntry(data []byte, ttl time.Duration) Entry {
	return Entry{
		Data:     json.RawMessage(data),
		StoredAt: time.Now().UnixMilli(),
		TTL:      ttl.Milliseconds(),
	}
}

// IsExpired reports whether the entry has outlived its TTL
func (e Entry) IsExpired(now time.Time) bool {
	return now.UnixMilli() > e.StoredAt+e.TTL
}

// Remaining returns the TTL left at the given instant. Promotions between
// tiers use this so expirations stay consistent across tiers.
func (e Entry) Remaining(now time.Time) time.Duration {
	remaining := e.StoredAt + e.TTL - now.UnixMilli()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}

// CacheError represents a structured cache error
type CacheError struct {
	Tier      string
	Operation string
	Key       string
	Err       error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %s failed for key %s: %v", e.Tier, e.Operation, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// encodeEntry marshals the stored envelope
func encodeEntry(entry Entry) ([]byte, error) {
	return json.Marshal(entry)
}

// decodeEntry unmarshals the stored envelope
func decodeEntry(raw []byte) (Entry, error) {
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}
