package query_store

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/orgsim/orgsim/clause"
)

// Store caches translated fetch expressions keyed by the document text.
// Cached queries are shared between callers and must not be modified
type Store interface {
	Load(document string, parse func(string) (clause.Query, error)) (clause.Query, error)
	Keys() []string
	Get(document string) (clause.Query, bool)
	Delete(document string)
	Len() int
}

const (
	defaultMaxSize = 256
	defaultTTL     = time.Hour
)

// New creates a store holding at most size queries for ttl each
func New(size int, ttl time.Duration) Store {
	if size <= 0 {
		size = defaultMaxSize
	}

	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &lruStore{lru: expirable.NewLRU[string, clause.Query](size, nil, ttl)}
}

type lruStore struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, clause.Query]
}

func (s *lruStore) Keys() []string {
	return s.lru.Keys()
}

func (s *lruStore) Get(document string) (clause.Query, bool) {
	return s.lru.Get(document)
}

func (s *lruStore) Delete(document string) {
	s.lru.Remove(document)
}

func (s *lruStore) Len() int {
	return s.lru.Len()
}

// Load returns the cached translation of document, parsing it on a miss.
// Documents that fail to parse are not cached
func (s *lruStore) Load(document string, parse func(string) (clause.Query, error)) (clause.Query, error) {
	if q, ok := s.lru.Get(document); ok {
		return q, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.lru.Get(document); ok {
		return q, nil
	}

	q, err := parse(document)
	if err != nil {
		return q, err
	}
	s.lru.Add(document, q)
	return q, nil
}
