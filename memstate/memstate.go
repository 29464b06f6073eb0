// Package memstate is the reference, in-memory StateStore implementation:
// a mutex-guarded map, the same pattern the teacher uses for its
// serverConns/clientConns connection registries.
package memstate

import (
	"context"
	"sort"
	"sync"

	"github.com/outofforest/storagep2p/wire"
)

// Store is an in-memory StateStore. The zero value is not usable; construct
// with New. Safe for concurrent use by multiple goroutines.
type Store struct {
	mu     sync.RWMutex
	states map[wire.ConnectionID]wire.ConnectionState
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		states: map[wire.ConnectionID]wire.ConnectionState{},
	}
}

// List enumerates every connection this store currently holds state for,
// ordered by ConnectionID.Less so callers get the same order on every call
// regardless of Go's randomized map iteration.
func (s *Store) List(ctx context.Context) ([]wire.ConnectionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]wire.ConnectionID, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Less(ids[j])
	})
	return ids, nil
}

// Load returns the current state for id, or the zero ConnectionState if id
// has no entry — the "lazy get-or-insert" semantics the protocol relies on.
func (s *Store) Load(ctx context.Context, id wire.ConnectionID) (wire.ConnectionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.states[id], nil
}

// Store overwrites the state for id.
func (s *Store) Store(ctx context.Context, id wire.ConnectionID, state wire.ConnectionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[id] = state
	return nil
}

// Delete removes the entry for id, if present.
func (s *Store) Delete(ctx context.Context, id wire.ConnectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, id)
	return nil
}
