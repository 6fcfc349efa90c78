// Package slate holds the single most recently generated, not-yet-decided
// recommendation - the "current slate". The store is an explicit single-slot
// component: all mutation goes through Set/Clear, last writer wins, and
// absence is a valid state.
package slate

import (
	"sync"

	"github.com/slateops/slate/model/recommendation"
)

// Store is the single-slot recommendation store.
type Store struct {
	mu      sync.RWMutex
	current *recommendation.Recommendation
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the current slate. No merge with prior state.
func (s *Store) Set(rec recommendation.Recommendation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &rec
}

// Get returns the current slate if one exists.
func (s *Store) Get() (recommendation.Recommendation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return recommendation.Recommendation{}, false
	}
	return *s.current, true
}

// Clear drops the current slate so a superseding publish can proceed without
// a stale recommendation lingering.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}
