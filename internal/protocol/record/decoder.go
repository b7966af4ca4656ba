package record

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// PayloadEncoding selects how the payload window is turned into JSON text.
type PayloadEncoding string

const (
	// EncodingJSON parses the payload window as JSON directly.
	EncodingJSON PayloadEncoding = "json"
	// EncodingZlib always inflates the payload window first.
	EncodingZlib PayloadEncoding = "zlib"
	// EncodingAuto inflates only payloads that carry a zlib header.
	EncodingAuto PayloadEncoding = "auto"
)

// ParseEncoding maps a config value to a PayloadEncoding.
func ParseEncoding(raw string) (PayloadEncoding, error) {
	switch PayloadEncoding(strings.ToLower(strings.TrimSpace(raw))) {
	case "", EncodingJSON:
		return EncodingJSON, nil
	case EncodingZlib:
		return EncodingZlib, nil
	case EncodingAuto:
		return EncodingAuto, nil
	default:
		return "", fmt.Errorf("record: unknown payload encoding %q", raw)
	}
}

// DecoderConfig controls discriminator derivation and payload handling.
type DecoderConfig struct {
	Preimage string
	Encoding PayloadEncoding
	// MaxInflatedBytes caps zlib output. It does not bound plain JSON payloads.
	MaxInflatedBytes uint64
}

func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		Preimage:         DefaultPreimage,
		Encoding:         EncodingJSON,
		MaxInflatedBytes: 16 * 1024 * 1024,
	}
}

// Decoder is immutable after construction and safe for concurrent use.
type Decoder struct {
	disc     [DiscriminatorLen]byte
	encoding PayloadEncoding
	maxOut   uint64
}

func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	if cfg.Preimage == "" {
		return nil, errors.New("record: discriminator preimage required")
	}
	enc, err := ParseEncoding(string(cfg.Encoding))
	if err != nil {
		return nil, err
	}
	if enc != EncodingJSON && (cfg.MaxInflatedBytes == 0 || cfg.MaxInflatedBytes >= math.MaxInt64) {
		return nil, fmt.Errorf("record: max inflated bytes out of range: %d", cfg.MaxInflatedBytes)
	}
	return &Decoder{
		disc:     Discriminator(cfg.Preimage),
		encoding: enc,
		maxOut:   cfg.MaxInflatedBytes,
	}, nil
}

var defaultDecoder = mustDecoder(DefaultDecoderConfig())

func mustDecoder(cfg DecoderConfig) *Decoder {
	d, err := NewDecoder(cfg)
	if err != nil {
		panic(err)
	}
	return d
}

// Decode validates raw against the default layout and returns its document.
func Decode(raw []byte) (Document, error) {
	return defaultDecoder.Decode(raw)
}

// Discriminator returns the tag this decoder expects at offset 0.
func (d *Decoder) Discriminator() [DiscriminatorLen]byte {
	return d.disc
}

func (d *Decoder) Decode(raw []byte) (Document, error) {
	rec, err := d.DecodeRecord(raw)
	if err != nil {
		return Document{}, err
	}
	return rec.Document, nil
}

// DecodeRecord is Decode plus the parsed header.
func (d *Decoder) DecodeRecord(raw []byte) (Record, error) {
	h, payload, err := Extract(raw, d.disc)
	if err != nil {
		return Record{}, err
	}

	text := payload
	if d.encoding == EncodingZlib || (d.encoding == EncodingAuto && looksZlib(payload)) {
		text, err = d.inflate(payload)
		if err != nil {
			return Record{}, malformed(err)
		}
	}

	doc, err := ParseDocument(text)
	if err != nil {
		return Record{}, err
	}
	return Record{Header: h, Document: doc}, nil
}

func (d *Decoder) inflate(payload []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, int64(d.maxOut)+1))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	if uint64(len(out)) > d.maxOut {
		return nil, fmt.Errorf("inflate: output exceeds %d bytes", d.maxOut)
	}
	return out, nil
}

// looksZlib reports whether p starts with an RFC 1950 header: deflate method,
// window <= 32K, valid check bits and no preset dictionary. No JSON text
// satisfies all four.
func looksZlib(p []byte) bool {
	if len(p) < 2 {
		return false
	}
	cmf, flg := p[0], p[1]
	if cmf&0x0f != 8 || cmf>>4 > 7 {
		return false
	}
	if flg&0x20 != 0 {
		return false
	}
	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}
