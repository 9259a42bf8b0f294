package kv

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store with an injectable clock. The binaries use the
// Redis adapter; Memory backs package tests that need to move time.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: map[string]memoryEntry{}, now: time.Now}
}

// WithClock overrides the time source used for expiry checks.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	live := ok && m.live(entry)
	m.mu.RUnlock()
	if live {
		return cloneBytes(entry.value), nil
	}
	if !ok {
		return nil, ErrNotFound
	}

	// Re-read under the write lock: a Set may have replaced the expired entry.
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok = m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !m.live(entry) {
		delete(m.entries, key)
		return nil, ErrNotFound
	}
	return cloneBytes(entry.value), nil
}

func (m *Memory) live(entry memoryEntry) bool {
	return entry.expiresAt.IsZero() || m.now().Before(entry.expiresAt)
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored keys, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
