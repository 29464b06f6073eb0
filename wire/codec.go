package wire

import (
	"github.com/outofforest/proton/helpers"
	"github.com/pkg/errors"
)

// ErrMalformedHeader is returned by Decode when the input is not the exact
// canonical encoding of some MessageHeader. Callers that walk a storage
// listing are expected to skip entries producing this error rather than
// treat it as fatal — they may be foreign files sharing the store.
var ErrMalformedHeader = errors.New("malformed header")

// Encode renders h into its canonical byte form: a sender length-prefix,
// the sender bytes, a receiver length-prefix, the receiver bytes, and a
// canonical varint-encoded counter. The encoding is pure, deterministic and
// a total injection over MessageHeader values.
func Encode(h MessageHeader) []byte {
	// Two address length-prefix bytes plus the counter's first varint byte;
	// UInt64Size adds only the counter's bytes beyond that first one.
	var n uint64 = 3 + uint64(h.Sender.Len()) + uint64(h.Receiver.Len())
	helpers.UInt64Size(h.Counter, &n)

	buf := make([]byte, n)
	var o uint64

	buf[o] = byte(h.Sender.Len())
	o++
	copy(buf[o:], h.Sender.Bytes())
	o += uint64(h.Sender.Len())

	buf[o] = byte(h.Receiver.Len())
	o++
	copy(buf[o:], h.Receiver.Bytes())
	o += uint64(h.Receiver.Len())

	helpers.UInt64Marshal(h.Counter, buf, &o)

	return buf[:o]
}

// Decode parses the canonical encoding produced by Encode. Any input that is
// not the exact canonical form of some header — including trailing garbage,
// a truncated buffer, or an over-long address — yields ErrMalformedHeader.
func Decode(b []byte) (h MessageHeader, retErr error) {
	// Registered first so it runs last: turns any error a short/malformed
	// buffer produced — including one recovered by helpers.RecoverUnmarshal
	// below, the same panic-to-error boundary the teacher's generated
	// codec installs around its own Unmarshal — into the ErrMalformedHeader
	// sentinel callers key off of.
	defer func() {
		if retErr != nil {
			h = MessageHeader{}
			retErr = errors.Wrap(ErrMalformedHeader, retErr.Error())
		}
	}()
	defer helpers.RecoverUnmarshal(&retErr)

	var o uint64

	senderLen := b[o]
	o++
	if senderLen > MaxAddressLength {
		return MessageHeader{}, errors.New("sender address too long")
	}
	sender, err := NewPredefinedAddress(b[o : o+uint64(senderLen)])
	if err != nil {
		return MessageHeader{}, err
	}
	o += uint64(senderLen)

	receiverLen := b[o]
	o++
	if receiverLen > MaxAddressLength {
		return MessageHeader{}, errors.New("receiver address too long")
	}
	receiver, err := NewPredefinedAddress(b[o : o+uint64(receiverLen)])
	if err != nil {
		return MessageHeader{}, err
	}
	o += uint64(receiverLen)

	var counter uint64
	helpers.UInt64Unmarshal(&counter, b, &o)

	if o != uint64(len(b)) {
		return MessageHeader{}, errors.New("trailing bytes after header")
	}

	return MessageHeader{Sender: sender, Receiver: receiver, Counter: counter}, nil
}
