package storagep2p

import (
	"context"

	"github.com/pkg/errors"

	"github.com/outofforest/storagep2p/wire"
)

// Sender writes the next outgoing message of one connection under its
// deterministic name, advancing tx on success.
type Sender struct {
	conn    wire.ConnectionID
	states  StateStore
	storage Storage
}

// NewSender constructs a Sender for the local->remote direction of conn.
func NewSender(conn wire.ConnectionID, states StateStore, storage Storage) *Sender {
	return &Sender{conn: conn, states: states, storage: storage}
}

// Send writes message under the next deterministic name for this
// connection, then advances tx. Ordering is load-decide-write-commit: on
// error at any step neither storage nor state is advanced, so the call may
// be retried safely. Retrying with the exact same message is a pure
// overwrite of the same name; retrying with a different message at the same
// counter is last-writer-wins.
func (s *Sender) Send(ctx context.Context, message []byte) error {
	state, err := s.states.Load(ctx, s.conn)
	if err != nil {
		return errors.WithStack(err)
	}

	h := wire.MessageHeader{Sender: s.conn.Local, Receiver: s.conn.Remote, Counter: state.Tx}
	name := wire.Encode(h)

	if err := s.storage.Write(ctx, name, message); err != nil {
		return errors.WithStack(err)
	}

	state.Tx++
	if err := s.states.Store(ctx, s.conn, state); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
