package renderer

import (
	"maps"
	"sync"
	"time"
)

// VariableStore holds the last known value of each state variable.
//
// All methods are thread-safe.
type VariableStore struct {
	mu         sync.RWMutex
	vars       map[string]string
	lastUpdate time.Time
}

// NewVariableStore creates an empty store whose last update is now.
func NewVariableStore() *VariableStore {
	return &VariableStore{
		vars:       make(map[string]string),
		lastUpdate: time.Now(),
	}
}

// Get returns the value of name, or "" if it was never set.
func (s *VariableStore) Get(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vars[name]
}

// Set stores a single value without touching the last-update time.
// Polled values use this so they do not defeat the screensaver.
func (s *VariableStore) Set(name, value string) {
	s.mu.Lock()
	s.vars[name] = value
	s.mu.Unlock()
}

// SetMany stores values as one update and records the update time.
func (s *VariableStore) SetMany(values map[string]string) {
	s.mu.Lock()
	maps.Copy(s.vars, values)
	s.lastUpdate = time.Now()
	s.mu.Unlock()
}

// LastUpdate returns when SetMany last ran.
func (s *VariableStore) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Snapshot returns a copy of all values.
func (s *VariableStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.vars)
}
