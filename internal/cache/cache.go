// Package cache implements the two-tier response cache used by every fetch path:
// a fast in-process map in front of a persistent SQLite table, both with a shared TTL.
package cache

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultTTL is how long a cached response stays valid (1 hour)
	DefaultTTL = time.Hour
)

// Entry is a single cached payload.
type Entry struct {
	Key      string
	Payload  []byte
	StoredAt time.Time
}

// Persistent is the slower, durable tier. Implementations report I/O failures as errors;
// the Store decides what to do with them.
type Persistent interface {
	Get(key string) (Entry, bool, error)
	Set(e Entry) error
	Delete(key string) error
	DeletePrefix(prefix string) (int64, error)
	DeleteStoredAtOrBefore(cutoff time.Time) (int64, error)
	Count() (int, error)
}

// Status summarises the cache for display.
type Status struct {
	MemoryEntries     int
	PersistentEntries int
	TTL               time.Duration
}

// Store is the dual-tier cache. A nil persistent tier makes it memory-only.
//
// Writes are last-write-wins and there is no cross-key atomicity; overlapping fetches
// of the same key may both hit the network, but always store equivalent content.
type Store struct {
	mem        *memoryTier
	persistent Persistent
	ttl        time.Duration
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly so tests can simulate expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store in front of the given persistent tier (which may be nil).
func New(persistent Persistent, opts ...Option) *Store {
	s := &Store{
		mem:        newMemoryTier(),
		persistent: persistent,
		ttl:        DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured time-to-live.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) fresh(e Entry, now time.Time) bool {
	return now.Sub(e.StoredAt) < s.ttl
}

// Get returns the payload stored under key. The memory tier is consulted first;
// a persistent hit is promoted into memory. Expired entries are purged from the tier
// that returned them and reported as absent. Persistent I/O errors count as a miss.
func (s *Store) Get(key string) ([]byte, bool) {
	now := s.now()

	if e, ok := s.mem.get(key); ok {
		if s.fresh(e, now) {
			slog.Debug("Memory cache hit", "key", key)
			return bytes.Clone(e.Payload), true
		}
		s.mem.delete(key)
		slog.Debug("Memory cache entry expired", "key", key, "age", now.Sub(e.StoredAt))
	}

	if s.persistent == nil {
		return nil, false
	}

	e, ok, err := s.persistent.Get(key)
	if err != nil {
		slog.Warn("Persistent cache read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	if !s.fresh(e, now) {
		slog.Debug("Persistent cache entry expired", "key", key, "age", now.Sub(e.StoredAt))
		if err := s.persistent.Delete(key); err != nil {
			slog.Warn("Failed to purge expired cache entry", "key", key, "error", err)
		}
		return nil, false
	}

	s.mem.set(e)
	slog.Debug("Persistent cache hit, promoted to memory", "key", key)
	return bytes.Clone(e.Payload), true
}

// Set writes payload to both tiers. Persistent failures are logged and swallowed.
func (s *Store) Set(key string, payload []byte) {
	e := Entry{
		Key:      key,
		Payload:  bytes.Clone(payload),
		StoredAt: s.now(),
	}

	s.mem.set(e)

	if s.persistent == nil {
		return
	}
	if err := s.persistent.Set(e); err != nil {
		// Caching failure shouldn't stop the fetch that produced the data
		slog.Warn("Failed to write persistent cache", "key", key, "error", err)
	}
}

// Sweep evicts every expired entry from both tiers.
func (s *Store) Sweep() {
	cutoff := s.now().Add(-s.ttl)

	memRemoved := s.mem.deleteStoredAtOrBefore(cutoff)

	var persistentRemoved int64
	if s.persistent != nil {
		n, err := s.persistent.DeleteStoredAtOrBefore(cutoff)
		if err != nil {
			slog.Warn("Persistent cache sweep failed", "error", err)
		}
		persistentRemoved = n
	}

	if memRemoved > 0 || persistentRemoved > 0 {
		slog.Info("Cleared expired cache entries", "memory", memRemoved, "persistent", persistentRemoved)
	}
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
// A non-positive interval uses the TTL.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Clear removes every entry whose key starts with prefix from both tiers.
// An empty prefix clears everything.
func (s *Store) Clear(prefix string) {
	memRemoved := s.mem.deletePrefix(prefix)

	var persistentRemoved int64
	if s.persistent != nil {
		n, err := s.persistent.DeletePrefix(prefix)
		if err != nil {
			slog.Warn("Failed to clear persistent cache", "prefix", prefix, "error", err)
		}
		persistentRemoved = n
	}

	slog.Info("Cache cleared", "prefix", prefix, "memory", memRemoved, "persistent", persistentRemoved)
}

// Status reports entry counts per tier.
func (s *Store) Status() Status {
	st := Status{
		MemoryEntries: s.mem.len(),
		TTL:           s.ttl,
	}
	if s.persistent != nil {
		n, err := s.persistent.Count()
		if err != nil {
			slog.Warn("Failed to count persistent cache entries", "error", err)
		}
		st.PersistentEntries = n
	}
	return st
}

// Close releases the persistent tier if it holds resources.
func (s *Store) Close() error {
	if c, ok := s.persistent.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
