package storagep2p

import (
	"github.com/outofforest/storagep2p/wire"
)

// NewAddress generates a fresh, cryptographically random Address, the way
// the teacher's peerID helper mints a fresh random PeerID.
func NewAddress() (wire.Address, error) {
	return wire.NewAddress()
}

// NewPredefinedAddress builds an Address from caller-supplied bytes. The
// caller is responsible for uniqueness.
func NewPredefinedAddress(b []byte) (wire.Address, error) {
	return wire.NewPredefinedAddress(b)
}

func decodeHeader(name []byte) (wire.MessageHeader, bool) {
	h, err := wire.Decode(name)
	if err != nil {
		return wire.MessageHeader{}, false
	}
	return h, true
}
