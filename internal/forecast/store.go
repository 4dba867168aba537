package forecast

import (
	"sync"
)

// ParamStore holds the process-wide default parameter snapshot.
// Snapshots are never mutated; Replace swaps the pointer.
type ParamStore struct {
	mu      sync.RWMutex
	base    *Parameters
	current *Parameters
	version int
}

// NewParamStore creates a store seeded with params, or the defaults when nil
func NewParamStore(params *Parameters) *ParamStore {
	if params == nil {
		params = DefaultParameters()
	}
	base := params.Clone()
	return &ParamStore{base: base, current: base}
}

// Base returns the snapshot the store was created with. Replace never
// changes it.
func (s *ParamStore) Base() *Parameters {
	return s.base
}

// Current returns the active snapshot. Callers must treat it as read-only.
func (s *ParamStore) Current() *Parameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Version returns how many times the snapshot has been replaced
func (s *ParamStore) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Replace installs a copy of params as the new default
func (s *ParamStore) Replace(params *Parameters) error {
	if err := params.Validate(); err != nil {
		return err
	}
	next := params.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next
	s.version++
	return nil
}
