package record

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	"github.com/danmuck/idlctl/internal/protocol"
)

const (
	DiscriminatorLen = 8
	AuthorityLen     = 32
	LengthFieldLen   = 8
	// HeaderLen is discriminator + authority + payload length.
	HeaderLen = DiscriminatorLen + AuthorityLen + LengthFieldLen

	authorityOffset = DiscriminatorLen
	lengthOffset    = DiscriminatorLen + AuthorityLen

	// DefaultPreimage is hashed to produce the expected discriminator.
	DefaultPreimage = "anchor:idl"
)

// Header is the fixed 48-byte prefix of an IDL record.
type Header struct {
	Discriminator [DiscriminatorLen]byte
	Authority     [AuthorityLen]byte
	PayloadLen    uint64
}

// Record is a decoded IDL account.
type Record struct {
	Header   Header
	Document Document
}

// Discriminator returns the first 8 bytes of sha256(preimage).
func Discriminator(preimage string) [DiscriminatorLen]byte {
	sum := sha256.Sum256([]byte(preimage))
	var out [DiscriminatorLen]byte
	copy(out[:], sum[:DiscriminatorLen])
	return out
}

// Encode frames payload behind h. PayloadLen is taken from len(payload).
func Encode(h Header, payload []byte) []byte {
	buf := make([]byte, HeaderLen+len(payload))
	copy(buf[0:DiscriminatorLen], h.Discriminator[:])
	copy(buf[authorityOffset:lengthOffset], h.Authority[:])
	binary.LittleEndian.PutUint64(buf[lengthOffset:HeaderLen], uint64(len(payload)))
	copy(buf[HeaderLen:], payload)
	return buf
}

// Extract validates framing against disc and returns the header and a view of
// the payload window. raw is never modified or copied.
//
// Checks run in a fixed order and the first failure wins: a record whose
// discriminator does not match never has its length field read.
func Extract(raw []byte, disc [DiscriminatorLen]byte) (Header, []byte, error) {
	if len(raw) <= DiscriminatorLen {
		return Header{}, nil, &protocol.Error{
			Kind: protocol.KindTooShort,
			Op:   "decode",
			Need: DiscriminatorLen + 1,
			Have: uint64(len(raw)),
		}
	}

	if !bytes.Equal(raw[:DiscriminatorLen], disc[:]) {
		return Header{}, nil, &protocol.Error{
			Kind: protocol.KindWrongDiscriminator,
			Op:   "decode",
			Got:  bytes.Clone(raw[:DiscriminatorLen]),
			Want: bytes.Clone(disc[:]),
		}
	}

	if len(raw) < HeaderLen {
		return Header{}, nil, &protocol.Error{
			Kind: protocol.KindTooShort,
			Op:   "decode",
			Need: HeaderLen,
			Have: uint64(len(raw)),
		}
	}

	var h Header
	copy(h.Discriminator[:], raw[:DiscriminatorLen])
	copy(h.Authority[:], raw[authorityOffset:lengthOffset])
	h.PayloadLen = binary.LittleEndian.Uint64(raw[lengthOffset:HeaderLen])

	// Compare against the remaining bytes so a huge length cannot overflow.
	available := uint64(len(raw) - HeaderLen)
	if h.PayloadLen > available {
		return Header{}, nil, &protocol.Error{
			Kind: protocol.KindTruncated,
			Op:   "decode",
			Need: h.PayloadLen,
			Have: available,
		}
	}

	end := HeaderLen + int(h.PayloadLen)
	return h, raw[HeaderLen:end], nil
}
