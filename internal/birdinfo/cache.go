package birdinfo

import (
	gocache "github.com/patrickmn/go-cache"
)

// Store is the memoization backend for lookup results.
type Store interface {
	Get(key string) (cachedLookup, bool)
	Set(key string, value cachedLookup)
}

// memoryStore keeps entries for the process lifetime.
type memoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore() Store {
	return &memoryStore{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (s *memoryStore) Get(key string) (cachedLookup, bool) {
	value, ok := s.cache.Get(key)
	if !ok {
		return cachedLookup{}, false
	}
	entry, ok := value.(cachedLookup)
	return entry, ok
}

func (s *memoryStore) Set(key string, value cachedLookup) {
	s.cache.Set(key, value, gocache.NoExpiration)
}
