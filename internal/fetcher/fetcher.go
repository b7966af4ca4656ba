package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/idlctl/internal/address"
	"github.com/danmuck/idlctl/internal/catalog"
	"github.com/danmuck/idlctl/internal/logging"
	"github.com/danmuck/idlctl/internal/protocol"
	"github.com/danmuck/idlctl/internal/protocol/record"
	"github.com/danmuck/idlctl/internal/store"
	"github.com/rs/zerolog"
)

var ErrMissingDependency = errors.New("fetcher: missing dependency")

// AccountSource reads account state from a cluster.
type AccountSource interface {
	IsExecutable(ctx context.Context, id address.Identifier) (bool, error)
	FetchBytes(ctx context.Context, id address.Identifier) ([]byte, error)
}

// DocumentSink persists a decoded document for a program.
type DocumentSink interface {
	Write(program address.Identifier, doc record.Document) (store.Receipt, error)
}

// Recorder indexes successful fetches.
type Recorder interface {
	Put(e catalog.Entry) error
}

// Deps are the collaborators of one Service. Recorder is optional.
type Deps struct {
	Source   AccountSource
	Deriver  address.Deriver
	Decoder  *record.Decoder
	Sink     DocumentSink
	Recorder Recorder
}

type Options struct {
	// Cluster names the catalog partition for recorded entries.
	Cluster string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result describes one completed fetch.
type Result struct {
	Program       address.Identifier
	RecordAddress address.Identifier
	Authority     address.Identifier
	Receipt       store.Receipt
}

type Service struct {
	deps Deps
	opts Options
	log  zerolog.Logger
}

func New(deps Deps, opts Options) (*Service, error) {
	switch {
	case deps.Source == nil:
		return nil, fmt.Errorf("%w: account source", ErrMissingDependency)
	case deps.Deriver == nil:
		return nil, fmt.Errorf("%w: deriver", ErrMissingDependency)
	case deps.Decoder == nil:
		return nil, fmt.Errorf("%w: decoder", ErrMissingDependency)
	case deps.Sink == nil:
		return nil, fmt.Errorf("%w: document sink", ErrMissingDependency)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{deps: deps, opts: opts, log: logging.Component("fetcher")}, nil
}

// Fetch retrieves the IDL record of programText and writes its document.
// Every failure is terminal and nothing is written before decoding succeeds.
func (s *Service) Fetch(ctx context.Context, programText string) (Result, error) {
	program, err := address.Parse(programText)
	if err != nil {
		return Result{}, err
	}
	log := s.log.With().Str("program", program.String()).Logger()

	executable, err := s.deps.Source.IsExecutable(ctx, program)
	if err != nil {
		return Result{}, fmt.Errorf("check program: %w", err)
	}
	if !executable {
		return Result{}, &protocol.Error{
			Kind:    protocol.KindNotExecutable,
			Op:      "check program",
			Subject: program.String(),
		}
	}
	log.Debug().Msg("program is executable")

	recordAddr, err := s.deps.Deriver.RecordAddress(program)
	if err != nil {
		return Result{}, fmt.Errorf("derive record address: %w", err)
	}
	log.Debug().Str("record", recordAddr.String()).Msg("record address derived")

	raw, err := s.deps.Source.FetchBytes(ctx, recordAddr)
	if err != nil {
		return Result{}, fmt.Errorf("fetch record: %w", err)
	}
	log.Debug().Int("bytes", len(raw)).Msg("record fetched")

	rec, err := s.deps.Decoder.DecodeRecord(raw)
	if err != nil {
		return Result{}, fmt.Errorf("decode record %s: %w", recordAddr, err)
	}
	authority := address.Identifier(rec.Header.Authority)
	log.Debug().
		Str("authority", authority.String()).
		Uint64("payload_len", rec.Header.PayloadLen).
		Msg("record decoded")

	receipt, err := s.deps.Sink.Write(program, rec.Document)
	if err != nil {
		return Result{}, fmt.Errorf("write document: %w", err)
	}

	res := Result{
		Program:       program,
		RecordAddress: recordAddr,
		Authority:     authority,
		Receipt:       receipt,
	}
	if s.deps.Recorder != nil {
		if err := s.record(res); err != nil {
			return res, err
		}
	}

	log.Info().
		Str("path", receipt.Path).
		Int("size", receipt.Size).
		Str("cid", receipt.CID.String()).
		Msg("idl written")
	return res, nil
}

func (s *Service) record(res Result) error {
	entry := catalog.Entry{
		Program:       res.Program,
		Cluster:       s.opts.Cluster,
		RecordAddress: res.RecordAddress,
		Authority:     res.Authority,
		Path:          res.Receipt.Path,
		Size:          uint64(res.Receipt.Size),
		FetchedAt:     s.opts.Now(),
	}
	if res.Receipt.CID.Defined() {
		entry.DocumentCID = res.Receipt.CID.Bytes()
	}
	if err := s.deps.Recorder.Put(entry); err != nil {
		if protocol.KindOf(err) == 0 {
			err = &protocol.Error{Kind: protocol.KindIO, Op: "put catalog entry", Subject: res.Program.String(), Err: err}
		}
		return fmt.Errorf("record catalog entry: %w", err)
	}
	return nil
}
