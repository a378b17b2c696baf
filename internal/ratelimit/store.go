package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store keeps fixed-window counters. Hit records one request for key and
// reports whether it is still within max for the current window.
type Store interface {
	Hit(ctx context.Context, key string, max int, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

type entry struct {
	count int
	start time.Time
}

// MemoryStore is a process-local Store. Entries are recycled lazily when a
// key is hit after its window has elapsed and are never evicted otherwise.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		now:     now,
	}
}

func (s *MemoryStore) Hit(_ context.Context, key string, max int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || now.Sub(e.start) >= window {
		s.entries[key] = &entry{count: 1, start: now}
		return true, nil
	}
	if e.count >= max {
		return false, nil
	}
	e.count++
	return true, nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports how many keys are tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
