// Package cache stores fetched archive documents for a limited time.
package cache

import (
	"sync"
	"time"
)

// Store caches raw documents by key.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte) error
	Clear() error
	Close() error
}

type entry struct {
	data      []byte
	fetchedAt time.Time
}

// Memory is an in-process Store.
type Memory struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates an in-process Store. A ttl <= 0 keeps entries until Clear.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && m.now().Sub(e.fetchedAt) > m.ttl {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.data, true
}

func (m *Memory) Set(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{data: data, fetchedAt: m.now()}
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]entry)
	return nil
}

func (m *Memory) Close() error { return nil }
