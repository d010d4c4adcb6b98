// Package cache provides an injected dataset cache keyed by source
// content hash. The analysis stages never touch it; callers that fetch
// datasets may wrap fetches with it.
package cache

import (
	"sync"
	"time"

	"studio/domain/canon"
	"studio/domain/core"
)

// Store is the injected cache capability
type Store interface {
	Get(key core.Hash) (*canon.CanonicalDataset, bool)
	Set(key core.Hash, ds *canon.CanonicalDataset)
	Invalidate(key core.Hash)
	Len() int
}

type entry struct {
	ds      *canon.CanonicalDataset
	expires time.Time
}

// MemoryStore is an in-memory TTL cache. Expiry is checked on access,
// there is no background sweeper.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[core.Hash]entry
	now     func() time.Time
}

// NewMemoryStore builds a TTL cache. A zero ttl means entries never
// expire.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[core.Hash]entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(key core.Hash) (*canon.CanonicalDataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.entries, key)
		return nil, false
	}
	return e.ds, true
}

func (s *MemoryStore) Set(key core.Hash, ds *canon.CanonicalDataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{ds: ds}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.entries[key] = e
}

func (s *MemoryStore) Invalidate(key core.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// NopStore caches nothing
type NopStore struct{}

func (NopStore) Get(core.Hash) (*canon.CanonicalDataset, bool) { return nil, false }
func (NopStore) Set(core.Hash, *canon.CanonicalDataset)        {}
func (NopStore) Invalidate(core.Hash)                          {}
func (NopStore) Len() int                                      { return 0 }
