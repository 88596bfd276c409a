package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is a process-local bounded LRU with per-key expiry.
type MemoryCache struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

func NewMemoryCache(size int) (*MemoryCache, error) {
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{entries: entries, now: time.Now}, nil
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := m.entries.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if entry.expired(m.now()) {
		m.entries.Remove(key)
		return nil, ErrMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries.Add(key, entry)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}
