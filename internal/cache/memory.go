package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a memory store when no limit is given.
const DefaultMaxEntries = 10000

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Memory is an in-process Store safe for concurrent use.
type Memory[V any] struct {
	mu         sync.RWMutex
	items      map[string]entry[V]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemory creates a memory store whose entries live for ttl. When the
// store is full, expired entries are swept first and then an arbitrary
// entry is evicted.
func NewMemory[V any](ttl time.Duration, maxEntries int) *Memory[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory[V]{
		items:      make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get implements Store.
func (m *Memory[V]) Get(_ context.Context, key string) (V, bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return zero, false, nil
	}
	return e.value, true, nil
}

// Set implements Store.
func (m *Memory[V]) Set(_ context.Context, key string, value V) error {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[key]; !exists && len(m.items) >= m.maxEntries {
		m.evictLocked(now)
	}
	m.items[key] = entry[V]{value: value, expiresAt: now.Add(m.ttl)}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory[V]) evictLocked(now time.Time) {
	for k, e := range m.items {
		if !now.Before(e.expiresAt) {
			delete(m.items, k)
		}
	}
	if len(m.items) < m.maxEntries {
		return
	}
	for k := range m.items {
		delete(m.items, k)
		return
	}
}
