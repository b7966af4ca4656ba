package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/danmuck/idlctl/internal/protocol"
)

// Document is a schema-agnostic JSON tree. Numbers are kept as json.Number so
// integer fields wider than float64 survive a decode/write cycle.
type Document struct {
	root any
}

// Root returns the underlying tree: map[string]any, []any, string,
// json.Number, bool or nil.
func (d Document) Root() any {
	return d.root
}

// ParseDocument parses payload as exactly one JSON value. Surrounding
// whitespace is allowed; anything else after the value is not.
func ParseDocument(payload []byte) (Document, error) {
	if !utf8.Valid(payload) {
		return Document{}, malformed(errors.New("payload is not valid UTF-8"))
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("unexpected end of input")
		}
		return Document{}, malformed(err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("trailing data after document: %v", tok)
		}
		return Document{}, malformed(err)
	}
	return Document{root: root}, nil
}

// MarshalIndent renders d with two-space indentation, sorted object keys and a
// trailing newline. HTML characters are not escaped.
func (d Document) MarshalIndent() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d.root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.root)
}

func malformed(err error) error {
	return &protocol.Error{
		Kind: protocol.KindMalformedDocument,
		Op:   "decode",
		Err:  err,
	}
}
