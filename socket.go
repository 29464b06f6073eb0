package storagep2p

import (
	"context"

	"github.com/pkg/errors"

	"github.com/outofforest/storagep2p/wire"
)

// Socket bundles a StateStore and a Storage into a per-endpoint API over
// many connections at once, and adds Destroy (wipe both directions of a
// connection plus its local state).
type Socket struct {
	states    StateStore
	storage   Storage
	discovery *Discovery
}

// New constructs a Socket over states and storage.
func New(states StateStore, storage Storage) *Socket {
	return &Socket{states: states, storage: storage, discovery: NewDiscovery(storage)}
}

func (s *Socket) sender(conn wire.ConnectionID) *Sender {
	return NewSender(conn, s.states, s.storage)
}

func (s *Socket) receiver(conn wire.ConnectionID) *Receiver {
	return NewReceiver(conn, s.states, s.storage)
}

// Peek returns the message at logical offset rx+nth of conn without
// consuming it.
func (s *Socket) Peek(ctx context.Context, conn wire.ConnectionID, nth uint64) ([]byte, error) {
	return s.receiver(conn).Peek(ctx, nth)
}

// CanReceive reports whether a message is immediately available at rx for
// conn.
func (s *Socket) CanReceive(ctx context.Context, conn wire.ConnectionID) (bool, error) {
	pending, err := s.receiver(conn).Pending(ctx)
	if err != nil {
		return false, err
	}
	return pending > 0, nil
}

// Send writes the next outgoing message of conn and advances tx.
func (s *Socket) Send(ctx context.Context, conn wire.ConnectionID, message []byte) error {
	return s.sender(conn).Send(ctx, message)
}

// Receive fetches and consumes the next incoming message of conn.
func (s *Socket) Receive(ctx context.Context, conn wire.ConnectionID) ([]byte, error) {
	return s.receiver(conn).Receive(ctx)
}

// ReceiveWith runs f on the next incoming message of conn before advancing
// rx; rx only moves if f returns nil.
func (s *Socket) ReceiveWith(ctx context.Context, conn wire.ConnectionID, f func([]byte) error) error {
	return s.receiver(conn).ReceiveWith(ctx, f)
}

// GC garbage-collects consumed inbound entries of conn.
func (s *Socket) GC(ctx context.Context, conn wire.ConnectionID) error {
	return s.receiver(conn).GC(ctx)
}

// Discover returns every connection with local as its local address: the
// union of what the state store already knows about and a fresh storage
// scan for pending inbound traffic.
func (s *Socket) Discover(ctx context.Context, local wire.Address) (map[wire.ConnectionID]struct{}, error) {
	conns, err := s.discovery.Scan(ctx, local)
	if err != nil {
		return nil, err
	}

	known, err := s.states.List(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, id := range known {
		if id.Local == local {
			conns[id] = struct{}{}
		}
	}

	return conns, nil
}

// DiscoverAll returns every connection the socket knows about or currently
// sees traffic for, regardless of local address: the union of every entry
// in the state store and a storage-wide scan that keeps every decodable
// header. This is the no-argument discover() of the public surface — there
// is no single local identity to filter the scan by.
func (s *Socket) DiscoverAll(ctx context.Context) (map[wire.ConnectionID]struct{}, error) {
	conns, err := s.discovery.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	known, err := s.states.List(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, id := range known {
		conns[id] = struct{}{}
	}

	return conns, nil
}

// Destroy deletes every blob belonging to either direction of conn and then
// the connection's state entry. It loops its list-then-delete pass to a
// fixpoint — rather than a single snapshot-then-delete — closing the race
// between listing and a peer concurrently writing that a one-shot pass
// would leave open. It is re-runnable: if storage deletion fails mid-way,
// state is not yet cleared and the call may be repeated.
func (s *Socket) Destroy(ctx context.Context, conn wire.ConnectionID) error {
	for {
		names, err := s.storage.List(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		found := false
		for _, name := range names {
			h, ok := decodeHeader(name)
			if !ok {
				continue
			}
			if !belongsToConn(h, conn) {
				continue
			}
			found = true
			if err := s.storage.Delete(ctx, name); err != nil {
				return errors.WithStack(err)
			}
		}

		if !found {
			break
		}
	}

	if err := s.states.Delete(ctx, conn); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func belongsToConn(h wire.MessageHeader, conn wire.ConnectionID) bool {
	if h.Sender == conn.Local && h.Receiver == conn.Remote {
		return true
	}
	return h.Sender == conn.Remote && h.Receiver == conn.Local
}
