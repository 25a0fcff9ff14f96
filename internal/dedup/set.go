// Package dedup provides bounded-retention key sets for duplicate suppression.
package dedup

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultSize = 10000
	DefaultTTL  = 24 * time.Hour
)

// Set remembers keys for up to ttl, holding at most size of them.
// Oldest keys are evicted first once the set is full.
type Set struct {
	lru *expirable.LRU[string, struct{}]
}

// New creates a set. size <= 0 uses DefaultSize; ttl == 0 disables expiry.
func New(size int, ttl time.Duration) *Set {
	if size <= 0 {
		size = DefaultSize
	}
	return &Set{lru: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

// Add records key. Empty keys are ignored.
func (s *Set) Add(key string) {
	if key == "" {
		return
	}
	s.lru.Add(key, struct{}{})
}

// Has reports whether key is present and unexpired.
func (s *Set) Has(key string) bool {
	if key == "" {
		return false
	}
	_, ok := s.lru.Peek(key)
	return ok
}

// Take removes key and reports whether it was present.
func (s *Set) Take(key string) bool {
	if key == "" {
		return false
	}
	_, ok := s.lru.Peek(key)
	s.lru.Remove(key)
	return ok
}

// Len returns the number of live keys.
func (s *Set) Len() int {
	return s.lru.Len()
}
