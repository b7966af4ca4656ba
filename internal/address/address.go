package address

import (
	"errors"
	"fmt"

	"github.com/danmuck/idlctl/internal/protocol"
	"github.com/mr-tron/base58"
)

const (
	Len = 32
	// MaxTextLen is the longest base58 string that can encode 32 bytes.
	MaxTextLen = 44
)

// Identifier is a 32-byte account or program address.
type Identifier [Len]byte

// Parse decodes base58 text into an Identifier. It never pads or truncates.
func Parse(text string) (Identifier, error) {
	if text == "" {
		return Identifier{}, formatError(text, errors.New("empty address"))
	}
	if len(text) > MaxTextLen {
		return Identifier{}, formatError(text, fmt.Errorf("address longer than %d characters", MaxTextLen))
	}
	raw, err := base58.Decode(text)
	if err != nil {
		return Identifier{}, formatError(text, err)
	}
	if len(raw) != Len {
		return Identifier{}, formatError(text, fmt.Errorf("decoded to %d bytes, want %d", len(raw), Len))
	}
	var id Identifier
	copy(id[:], raw)
	return id, nil
}

// MustParse is Parse for compile-time constants.
func MustParse(text string) Identifier {
	id, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return id
}

func (id Identifier) String() string {
	return base58.Encode(id[:])
}

func (id Identifier) Bytes() []byte {
	return id[:]
}

func (id Identifier) IsZero() bool {
	return id == Identifier{}
}

func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func formatError(text string, err error) error {
	return &protocol.Error{
		Kind:    protocol.KindAddressFormat,
		Op:      "parse address",
		Subject: text,
		Err:     err,
	}
}
