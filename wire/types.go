// Package wire defines the addressing primitives of the protocol and their
// canonical, self-describing byte encoding.
package wire

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

// MaxAddressLength is the largest number of bytes an Address may carry.
const MaxAddressLength = 24

// Address is an opaque endpoint identifier of at most MaxAddressLength bytes.
// It is backed by a fixed array rather than a slice so that it stays
// comparable and can be used directly as a map key, the way the teacher uses
// a fixed-size PeerID.
type Address struct {
	data [MaxAddressLength]byte
	n    uint8
}

// NewAddress generates a fresh, cryptographically random, full-length
// Address.
func NewAddress() (Address, error) {
	var a Address
	if _, err := rand.Read(a.data[:]); err != nil {
		return Address{}, errors.WithStack(err)
	}
	a.n = MaxAddressLength
	return a, nil
}

// NewPredefinedAddress builds an Address from caller-supplied bytes. The
// caller is responsible for uniqueness. b must be no longer than
// MaxAddressLength.
func NewPredefinedAddress(b []byte) (Address, error) {
	if len(b) > MaxAddressLength {
		return Address{}, errors.Errorf("address too long: %d bytes", len(b))
	}
	var a Address
	copy(a.data[:], b)
	a.n = uint8(len(b))
	return a, nil
}

// Bytes returns the address's raw bytes, trimmed to its actual length.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a.data[:a.n]...)
}

// Len returns the number of significant bytes in the address.
func (a Address) Len() int {
	return int(a.n)
}

// IsZero reports whether a is the zero-value Address (no bytes at all).
func (a Address) IsZero() bool {
	return a.n == 0
}

// Compare imposes a total order over addresses: first by length, then
// lexicographically over the significant bytes.
func (a Address) Compare(other Address) int {
	if a.n != other.n {
		if a.n < other.n {
			return -1
		}
		return 1
	}
	for i := 0; i < int(a.n); i++ {
		if a.data[i] != other.data[i] {
			if a.data[i] < other.data[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// ConnectionID is a directed pair of addresses. (A,B) and (B,A) are distinct
// IDs representing the same wire connection viewed from the two endpoints.
type ConnectionID struct {
	Local  Address
	Remote Address
}

// Less imposes a total order over connection IDs, local address first, then
// remote address.
func (id ConnectionID) Less(other ConnectionID) bool {
	if c := id.Local.Compare(other.Local); c != 0 {
		return c < 0
	}
	return id.Remote.Compare(other.Remote) < 0
}

// ConnectionState is the per-connection pair of monotonic counters.
type ConnectionState struct {
	// Rx is the number of messages already consumed from remote->local;
	// equivalently, the counter value of the next expected inbound message.
	Rx uint64
	// Tx is the number of messages already sent local->remote; the counter
	// value of the next outbound message.
	Tx uint64
}

// MessageHeader is the sole addressing primitive of the protocol: the triple
// that names a single message blob.
type MessageHeader struct {
	Sender   Address
	Receiver Address
	Counter  uint64
}

// ConnectionID derives the ConnectionID naming the connection this header
// flows over, viewed from the receiver's side.
func (h MessageHeader) ConnectionID() ConnectionID {
	return ConnectionID{Local: h.Receiver, Remote: h.Sender}
}
