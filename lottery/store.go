package lottery

import (
	"sync"
)

// Store persists contract state. Update runs fn against a private copy of
// the state and commits it only when fn returns nil, so a failed operation
// leaves no trace. When a committed update advances the round, the new
// State.Last is appended to the round history in the same commit.
type Store interface {
	// View runs fn against the current state. fn must not retain or modify it.
	View(fn func(s *State) error) error

	// Update runs fn against a mutable copy of the state and commits it atomically.
	Update(fn func(s *State) error) error

	// Rounds returns the history of resolved rounds, oldest first.
	Rounds() ([]Resolution, error)
}

// MemStore is an in-memory implementation of Store.
type MemStore struct {
	mu     sync.RWMutex
	state  *State
	rounds []Resolution
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{state: &State{}}
}

// View runs fn against the current state.
func (m *MemStore) View(fn func(s *State) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.state)
}

// Update runs fn against a copy and swaps it in on success.
func (m *MemStore) Update(fn func(s *State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := next.validate(); err != nil {
		return err
	}
	if next.Round > m.state.Round && next.Last != nil {
		m.rounds = append(m.rounds, *next.Last.Clone())
	}
	m.state = next
	return nil
}

// Rounds returns a copy of the round history.
func (m *MemStore) Rounds() ([]Resolution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Resolution, len(m.rounds))
	for i := range m.rounds {
		result[i] = *m.rounds[i].Clone()
	}
	return result, nil
}
