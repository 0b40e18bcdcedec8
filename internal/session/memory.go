package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is used when no Redis address is configured. Values do not
// survive a restart and are not shared between instances.
type MemoryStore struct {
	entries sync.Map
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.entries.Store(key, memoryEntry{value: value, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Take(_ context.Context, key string) (string, error) {
	v, ok := s.entries.LoadAndDelete(key)
	if !ok {
		return "", ErrNotFound
	}
	entry, ok := v.(memoryEntry)
	if !ok || s.now().After(entry.expiresAt) {
		return "", ErrNotFound
	}
	return entry.value, nil
}

// RunCleanup drops expired entries every interval until ctx is done.
func (s *MemoryStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.entries.Range(func(key, value any) bool {
		if entry, ok := value.(memoryEntry); ok && now.After(entry.expiresAt) {
			s.entries.Delete(key)
		}
		return true
	})
}
