package storagep2p

import "context"

// Viewer is the read-only capability a Receiver extends: peeking at pending
// messages without consuming them. Modeled as its own interface — rather
// than a base class the way the source's Viewer is — so a type can expose
// read-only access to a connection's inbound queue without also handing out
// consume/GC rights.
type Viewer interface {
	// Peek returns the message at logical offset rx+nth, or ErrNotFound if
	// no such message is present yet. It never mutates state.
	Peek(ctx context.Context, nth uint64) ([]byte, error)
	// Pending returns the smallest k >= 0 such that the message at offset
	// rx+k does not (yet) exist.
	Pending(ctx context.Context) (uint64, error)
}
