// Package memstorage is the reference, in-memory Storage implementation: a
// mutex-guarded map, the same globally-shared-storage pattern the design
// notes call out for the fuzz harness and that the teacher itself uses for
// its serverConns/clientConns registries.
package memstorage

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/outofforest/storagep2p"
)

// Store is an in-memory Storage. The zero value is not usable; construct
// with New. Safe for concurrent use by multiple goroutines — this is the
// "globally shared mutable storage" collaborator many local endpoints poll
// and mutate concurrently.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		entries: map[string][]byte{},
	}
}

// List returns a snapshot of all entry names currently in the store, sorted
// for deterministic iteration in callers and tests.
func (s *Store) List(ctx context.Context) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([][]byte, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, []byte(name))
	}
	sort.Slice(names, func(i, j int) bool {
		return bytes.Compare(names[i], names[j]) < 0
	})
	return names, nil
}

// Read returns the bytes stored under name, or a wrapped
// storagep2p.ErrNotFound if absent.
func (s *Store) Read(ctx context.Context, name []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.entries[string(name)]
	if !ok {
		return nil, errors.WithStack(storagep2p.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Write atomically creates or replaces the entry named name.
func (s *Store) Write(ctx context.Context, name, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[string(name)] = append([]byte(nil), data...)
	return nil
}

// Delete removes the entry named name, if present.
func (s *Store) Delete(ctx context.Context, name []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, string(name))
	return nil
}
