// Package fuzz is the synthetic error injector the spec names as an
// external collaborator: a Storage decorator that fails a configurable
// fraction of calls with a transient error, so retry-loop behavior and
// idempotence-on-error can be exercised deterministically. It is a test
// artifact, not a shipped interface.
package fuzz

import (
	"context"
	"math/rand"
	"sync"

	"github.com/pkg/errors"

	"github.com/outofforest/storagep2p"
)

// errTransient is the error injected in place of a real call. It carries no
// special meaning beyond "storage failed this time" — callers are expected
// to retry.
var errTransient = errors.New("synthetic storage error")

// Storage wraps another Storage and injects errTransient before forwarding
// to it, at a fixed probability per call. A failed call has no effect on
// the wrapped storage: the injector never calls through on a simulated
// failure, matching the "fails cleanly with no side effect" contract every
// real adapter must uphold.
type Storage struct {
	inner     storagep2p.Storage
	mu        sync.Mutex
	rnd       *rand.Rand
	errorRate float64
}

// NewStorage wraps inner, failing a fraction errorRate (in [0,1]) of calls.
// seed makes the injected failure sequence reproducible across runs.
func NewStorage(inner storagep2p.Storage, errorRate float64, seed int64) *Storage {
	return &Storage{
		inner:     inner,
		rnd:       rand.New(rand.NewSource(seed)), //nolint:gosec
		errorRate: errorRate,
	}
}

func (s *Storage) shouldFail() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64() < s.errorRate
}

// List forwards to the wrapped storage, or injects a synthetic failure.
func (s *Storage) List(ctx context.Context) ([][]byte, error) {
	if s.shouldFail() {
		return nil, errors.WithStack(errTransient)
	}
	return s.inner.List(ctx)
}

// Read forwards to the wrapped storage, or injects a synthetic failure.
func (s *Storage) Read(ctx context.Context, name []byte) ([]byte, error) {
	if s.shouldFail() {
		return nil, errors.WithStack(errTransient)
	}
	return s.inner.Read(ctx, name)
}

// Write forwards to the wrapped storage, or injects a synthetic failure.
// On a simulated failure the wrapped storage is never called, so the write
// genuinely has no side effect.
func (s *Storage) Write(ctx context.Context, name, data []byte) error {
	if s.shouldFail() {
		return errors.WithStack(errTransient)
	}
	return s.inner.Write(ctx, name, data)
}

// Delete forwards to the wrapped storage, or injects a synthetic failure.
func (s *Storage) Delete(ctx context.Context, name []byte) error {
	if s.shouldFail() {
		return errors.WithStack(errTransient)
	}
	return s.inner.Delete(ctx, name)
}
