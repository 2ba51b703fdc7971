package querycache

import (
	"context"
	"sync"
	"time"
)

// Store persists encoded pages and per-kind generations.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Generation returns the current generation of kind, 0 if never bumped.
	Generation(ctx context.Context, kind string) (int64, error)
	// Bump advances the generation of kind and returns the new value.
	Bump(ctx context.Context, kind string) (int64, error)
	Close() error
}

// =============================================================================
// In-memory store
// =============================================================================

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu          sync.RWMutex
	entries     map[string]memoryEntry
	generations map[string]int64
	now         func() time.Time
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryStore creates a memory store and starts a janitor that evicts
// expired pages every interval. Pass 0 to disable the janitor.
func NewMemoryStore(interval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries:     make(map[string]memoryEntry),
		generations: make(map[string]int64),
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
	if interval > 0 {
		go s.janitor(interval)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.now().After(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Generation(_ context.Context, kind string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generations[kind], nil
}

func (s *MemoryStore) Bump(_ context.Context, kind string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[kind]++
	// Older generations can never be read again.
	prefix := entryPrefix(kind)
	for k := range s.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(s.entries, k)
		}
	}
	return s.generations[kind], nil
}

// Len returns the number of stored pages, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) evictExpired() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
