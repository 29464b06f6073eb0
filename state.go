package storagep2p

import (
	"context"

	"github.com/outofforest/storagep2p/wire"
)

// StateStore is the persistence port for per-connection (rx, tx) counters.
// An absent entry is semantically equivalent to the zero ConnectionState —
// that is the contract of Load, not a property of any one implementation
// (the "lazy get-or-insert" of a connection's state on first mention).
//
// The source's single store(id, state | tombstone) operation is split here
// into Store and Delete: two explicit verbs rather than a sum-typed
// argument, matching how Storage already splits Write from Delete.
type StateStore interface {
	// List enumerates every connection this store currently holds state
	// for.
	List(ctx context.Context) ([]wire.ConnectionID, error)
	// Load returns the current state for id, or the zero ConnectionState if
	// id has no entry.
	Load(ctx context.Context, id wire.ConnectionID) (wire.ConnectionState, error)
	// Store overwrites the state for id.
	Store(ctx context.Context, id wire.ConnectionID, state wire.ConnectionState) error
	// Delete removes the entry for id, if present. Absence is not an error.
	Delete(ctx context.Context, id wire.ConnectionID) error
}
