package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Kind names one failure class. The set is closed; callers switch on it.
type Kind uint8

const (
	KindAddressFormat Kind = iota + 1
	KindTransport
	KindNotFound
	KindNotExecutable
	KindTooShort
	KindWrongDiscriminator
	KindTruncated
	KindMalformedDocument
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindAddressFormat:
		return "address format"
	case KindTransport:
		return "transport"
	case KindNotFound:
		return "not found"
	case KindNotExecutable:
		return "not executable"
	case KindTooShort:
		return "too short"
	case KindWrongDiscriminator:
		return "wrong discriminator"
	case KindTruncated:
		return "truncated"
	case KindMalformedDocument:
		return "malformed document"
	case KindIO:
		return "io"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is the structured failure returned by every stage of the pipeline.
// Only the fields relevant to Kind are populated.
type Error struct {
	Kind Kind
	// Op is the stage that failed, e.g. "decode" or "fetch".
	Op string
	// Subject is the address, path or input text the failure concerns.
	Subject string
	// Need and Have are byte counts for TooShort and Truncated.
	Need uint64
	Have uint64
	// Got and Want are discriminator bytes for WrongDiscriminator.
	Got  []byte
	Want []byte
	Err  error
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrAddressFormat      = &Error{Kind: KindAddressFormat}
	ErrTransport          = &Error{Kind: KindTransport}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrNotExecutable      = &Error{Kind: KindNotExecutable}
	ErrTooShort           = &Error{Kind: KindTooShort}
	ErrWrongDiscriminator = &Error{Kind: KindWrongDiscriminator}
	ErrTruncated          = &Error{Kind: KindTruncated}
	ErrMalformedDocument  = &Error{Kind: KindMalformedDocument}
	ErrIO                 = &Error{Kind: KindIO}
)

func (e *Error) Error() string {
	msg := "protocol: " + e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + e.Kind.String()
	}
	if e.Subject != "" {
		msg += " (" + e.Subject + ")"
	}
	counted := e.Need != 0 || e.Have != 0
	switch {
	case e.Kind == KindTooShort && counted:
		msg += fmt.Sprintf(": need %d bytes, have %d", e.Need, e.Have)
	case e.Kind == KindTruncated && counted:
		msg += fmt.Sprintf(": payload declares %d bytes, %d available", e.Need, e.Have)
	case e.Kind == KindWrongDiscriminator && (len(e.Got) > 0 || len(e.Want) > 0):
		msg += fmt.Sprintf(": got %s, want %s", hex.EncodeToString(e.Got), hex.EncodeToString(e.Want))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf reports the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
