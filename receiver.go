package storagep2p

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/outofforest/logger"
	"github.com/outofforest/storagep2p/wire"
)

// Receiver peeks/consumes the next incoming message of one connection by
// deterministic name, advances rx on success, and garbage-collects consumed
// inbound entries. It satisfies Viewer in addition to its own consume/GC
// methods — the language-neutral rendering of the source's Viewer->Receiver
// relationship, with no runtime dispatch required.
type Receiver struct {
	conn    wire.ConnectionID
	states  StateStore
	storage Storage
}

var _ Viewer = (*Receiver)(nil)

// NewReceiver constructs a Receiver for the remote->local direction of conn.
func NewReceiver(conn wire.ConnectionID, states StateStore, storage Storage) *Receiver {
	return &Receiver{conn: conn, states: states, storage: storage}
}

func (r *Receiver) nameAt(counter uint64) []byte {
	return wire.Encode(wire.MessageHeader{Sender: r.conn.Remote, Receiver: r.conn.Local, Counter: counter})
}

// Peek returns the message at logical offset rx+nth without consuming it.
func (r *Receiver) Peek(ctx context.Context, nth uint64) ([]byte, error) {
	state, err := r.states.Load(ctx, r.conn)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	m, err := r.storage.Read(ctx, r.nameAt(state.Rx+nth))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Pending returns the smallest k >= 0 such that the message at offset rx+k
// is not yet present, probing contiguous counters against a single snapshot
// of the storage listing.
func (r *Receiver) Pending(ctx context.Context) (uint64, error) {
	state, err := r.states.Load(ctx, r.conn)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	names, err := r.storage.List(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	present := map[uint64]struct{}{}
	for _, name := range names {
		h, ok := decodeHeader(name)
		if !ok {
			continue
		}
		if h.Sender != r.conn.Remote || h.Receiver != r.conn.Local {
			continue
		}
		present[h.Counter] = struct{}{}
	}

	var k uint64
	for {
		if _, ok := present[state.Rx+k]; !ok {
			return k, nil
		}
		k++
	}
}

// Receive fetches and consumes the message at rx: on success it advances rx,
// opportunistically garbage-collects consumed entries (swallowing any GC
// error), and returns the message. If no message is present yet it returns
// ErrNotFound without any state change.
func (r *Receiver) Receive(ctx context.Context) ([]byte, error) {
	var result []byte
	err := r.ReceiveWith(ctx, func(m []byte) error {
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReceiveWith runs f on the message at rx before advancing rx: rx only
// moves if f returns nil. This gives exactly-once delivery against
// caller-side side effects — f may be retried any number of times on the
// same bytes until it succeeds.
func (r *Receiver) ReceiveWith(ctx context.Context, f func([]byte) error) error {
	state, err := r.states.Load(ctx, r.conn)
	if err != nil {
		return errors.WithStack(err)
	}

	m, err := r.storage.Read(ctx, r.nameAt(state.Rx))
	if err != nil {
		return err
	}

	if err := f(m); err != nil {
		return err
	}

	state.Rx++
	if err := r.states.Store(ctx, r.conn, state); err != nil {
		return errors.WithStack(err)
	}

	if err := r.GC(ctx); err != nil {
		logger.Get(ctx).Warn("Garbage collection after receive failed",
			zap.Error(err))
	}

	return nil
}

// GC is idempotent: it takes a fresh snapshot of storage and of rx, then
// deletes every inbound entry (sender == remote, receiver == local) whose
// counter is strictly below the rx snapshot. A delete failure aborts the
// remaining iterations of the loop rather than continuing past it — the
// work skipped because of the abort was never examined, so the GC-safety
// invariant still holds over everything left in storage, and a subsequent
// GC call retries exactly the remaining work.
func (r *Receiver) GC(ctx context.Context) error {
	state, err := r.states.Load(ctx, r.conn)
	if err != nil {
		return errors.WithStack(err)
	}
	rxSnapshot := state.Rx

	names, err := r.storage.List(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, name := range names {
		h, ok := decodeHeader(name)
		if !ok {
			continue
		}
		if h.Sender != r.conn.Remote || h.Receiver != r.conn.Local {
			continue
		}
		if h.Counter >= rxSnapshot {
			continue
		}
		if err := r.storage.Delete(ctx, name); err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}
