package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent or its entry has expired.
var ErrCacheMiss = errors.New("cache miss")

// Entry is one cached parse result. An entry is visible to lookups only
// while now < CreatedAt + TTL; expired entries are logically absent even
// before physical eviction.
type Entry struct {
	Payload   json.RawMessage `json:"payload"` // marshaled record or record list
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	HitCount  int             `json:"hit_count"`
}

// ResponseCache maps request fingerprints to parse results with per-entry
// TTL, since different request classes have different staleness tolerance.
type ResponseCache interface {
	// Get returns the entry for key, or ErrCacheMiss when absent or expired.
	Get(ctx context.Context, key string) (*Entry, error)

	// Put stores payload under key, overwriting any existing entry.
	Put(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error

	// Invalidate removes a single entry callers know to be stale.
	Invalidate(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error
}
