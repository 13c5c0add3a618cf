package cache

import (
	"strings"
	"sync"
	"time"
)

// memoryTier is the fast in-process tier.
type memoryTier struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func newMemoryTier() *memoryTier {
	return &memoryTier{entries: make(map[string]Entry)}
}

func (m *memoryTier) get(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *memoryTier) set(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Key] = e
}

func (m *memoryTier) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *memoryTier) deletePrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// deleteStoredAtOrBefore removes entries stored at or before cutoff.
func (m *memoryTier) deleteStoredAtOrBefore(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if !e.StoredAt.After(cutoff) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

func (m *memoryTier) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
