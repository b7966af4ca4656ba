package protocol

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/danmuck/idlctl/internal/testutil/testlog"
)

func TestErrorIsMatchesKindOnly(t *testing.T) {
	testlog.Start(t)
	err := fmt.Errorf("fetch record: %w", &Error{Kind: KindTruncated, Op: "decode", Need: 100, Have: 10})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated")
	}
	if errors.Is(err, ErrTooShort) {
		t.Fatalf("unexpected ErrTooShort match")
	}
	if KindOf(err) != KindTruncated {
		t.Fatalf("unexpected kind: %v", KindOf(err))
	}
	if KindOf(io.EOF) != 0 || KindOf(nil) != 0 {
		t.Fatalf("expected zero kind for foreign errors")
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	testlog.Start(t)
	err := &Error{Kind: KindIO, Op: "write document", Subject: "out.json", Err: io.ErrShortWrite}
	if !errors.Is(err, io.ErrShortWrite) || !errors.Is(err, ErrIO) {
		t.Fatalf("expected both cause and kind to match")
	}
	if got := err.Error(); got != "write document: io (out.json): short write" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestErrorMessages(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: KindTooShort, Op: "decode", Need: 48, Have: 20}, "decode: too short: need 48 bytes, have 20"},
		{&Error{Kind: KindTruncated, Op: "decode", Need: 9, Have: 2}, "decode: truncated: payload declares 9 bytes, 2 available"},
		{&Error{Kind: KindWrongDiscriminator, Op: "decode", Got: []byte{0, 1}, Want: []byte{0xff}}, "decode: wrong discriminator: got 0001, want ff"},
		{&Error{Kind: KindNotExecutable, Subject: "abc"}, "protocol: not executable (abc)"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("got %q want %q", got, tc.want)
		}
	}
	if !strings.Contains(Kind(42).String(), "42") {
		t.Fatalf("unknown kind should render its number")
	}
}

func TestSentinelMessagesOmitEmptyDetail(t *testing.T) {
	testlog.Start(t)
	cases := map[*Error]string{
		ErrTooShort:           "protocol: too short",
		ErrTruncated:          "protocol: truncated",
		ErrWrongDiscriminator: "protocol: wrong discriminator",
		ErrIO:                 "protocol: io",
	}
	for err, want := range cases {
		if got := err.Error(); got != want {
			t.Fatalf("got %q want %q", got, want)
		}
	}
}
