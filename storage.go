// Package storagep2p exchanges ordered, reliable, peer-to-peer message
// streams between endpoints that share nothing but a common, mostly-dumb
// blob store.
package storagep2p

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Storage.Read when the named entry does not
// exist, and is the sentinel Peek/Receive surface for the same condition.
var ErrNotFound = errors.New("entry not found")

// Storage is the blob-store port the protocol is built on: list, read,
// atomic write, delete over entries keyed by short byte names. Adapters
// (cloud folder, IMAP mailbox, shared filesystem, in-memory) implement this
// interface; the protocol never depends on a concrete one.
type Storage interface {
	// List enumerates all entry names currently in the store. It must be a
	// consistent snapshot at least at the granularity of a single call.
	List(ctx context.Context) ([][]byte, error)
	// Read returns the bytes stored under name, or a wrapped ErrNotFound if
	// no such entry exists.
	Read(ctx context.Context, name []byte) ([]byte, error)
	// Write atomically creates or replaces the entry named name. Either the
	// whole write is applied, or none of it is.
	Write(ctx context.Context, name, data []byte) error
	// Delete removes the entry named name, if present. Absence is not an
	// error.
	Delete(ctx context.Context, name []byte) error
}
