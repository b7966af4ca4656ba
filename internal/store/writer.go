package store

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/danmuck/idlctl/internal/address"
	"github.com/danmuck/idlctl/internal/protocol"
	"github.com/danmuck/idlctl/internal/protocol/record"
	"github.com/ipfs/go-cid"
)

const fileExt = ".json"

// Receipt describes one written document.
type Receipt struct {
	Path string
	Size int
	CID  cid.Cid
}

// Writer persists documents as <dir>/<program>.json.
//
// Writes go to a temp file in dir that is fsynced and renamed over the
// target, so readers never observe a partial document.
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ioError("create output dir", dir, err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) Dir() string {
	return w.dir
}

func (w *Writer) PathFor(program address.Identifier) string {
	return filepath.Join(w.dir, program.String()+fileExt)
}

func (w *Writer) Write(program address.Identifier, doc record.Document) (Receipt, error) {
	path := w.PathFor(program)
	data, err := doc.MarshalIndent()
	if err != nil {
		return Receipt{}, ioError("encode document", path, err)
	}
	id, err := ContentID(data)
	if err != nil {
		return Receipt{}, ioError("hash document", path, err)
	}

	f, err := os.CreateTemp(w.dir, "."+program.String()+".*.tmp")
	if err != nil {
		return Receipt{}, ioError("write document", path, err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return Receipt{}, ioError("write document", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return Receipt{}, ioError("write document", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return Receipt{}, ioError("write document", path, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return Receipt{}, ioError("write document", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Receipt{}, ioError("write document", path, err)
	}

	return Receipt{Path: path, Size: len(data), CID: id}, nil
}

// Read returns a previously written document after checking it against want.
// A zero want skips verification.
func (w *Writer) Read(program address.Identifier, want cid.Cid) ([]byte, error) {
	return ReadVerified(w.PathFor(program), want)
}

// ReadVerified reads path and checks its content id against want.
func ReadVerified(path string, want cid.Cid) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError("read document", path, err)
	}
	if !want.Defined() {
		return data, nil
	}
	got, err := ContentID(data)
	if err != nil {
		return nil, ioError("hash document", path, err)
	}
	if !got.Equals(want) {
		return nil, ioError("read document", path, errors.New("content id mismatch"))
	}
	return data, nil
}

func ioError(op, path string, err error) error {
	return &protocol.Error{
		Kind:    protocol.KindIO,
		Op:      op,
		Subject: path,
		Err:     err,
	}
}
