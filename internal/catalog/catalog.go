package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/danmuck/idlctl/internal/address"
	"github.com/danmuck/idlctl/internal/protocol"
	"github.com/fxamacker/cbor/v2"
)

var PrefixIDL = []byte("idl:")

const entryVersion = 1

// Entry records one successful fetch.
type Entry struct {
	Version       uint16             `cbor:"version"`
	Program       address.Identifier `cbor:"program"`
	Cluster       string             `cbor:"cluster"`
	RecordAddress address.Identifier `cbor:"record_address"`
	Authority     address.Identifier `cbor:"authority"`
	DocumentCID   []byte             `cbor:"document_cid"`
	Path          string             `cbor:"path"`
	Size          uint64             `cbor:"size"`
	FetchedAt     time.Time          `cbor:"fetched_at"`
}

// Catalog is a local index of fetched documents keyed by cluster and program.
type Catalog struct {
	db      *pebble.DB
	encMode cbor.EncMode
	decMode cbor.DecMode
}

// Open opens a Pebble-backed catalog in dir, creating it if needed.
func Open(dir string) (*Catalog, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, ioError("open catalog", dir, err)
	}
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Catalog{db: db, encMode: em, decMode: dm}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) Put(e Entry) error {
	if e.Cluster == "" {
		return ioError("put catalog entry", e.Program.String(), errors.New("cluster required"))
	}
	e.Version = entryVersion
	e.FetchedAt = e.FetchedAt.UTC().Truncate(time.Second)
	val, err := c.encMode.Marshal(e)
	if err != nil {
		return ioError("encode catalog entry", e.Program.String(), err)
	}
	if err := c.db.Set(entryKey(e.Cluster, e.Program), val, pebble.Sync); err != nil {
		return ioError("put catalog entry", e.Program.String(), err)
	}
	return nil
}

func (c *Catalog) Get(cluster string, program address.Identifier) (Entry, bool, error) {
	val, closer, err := c.db.Get(entryKey(cluster, program))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return Entry{}, false, nil
		}
		return Entry{}, false, ioError("get catalog entry", program.String(), err)
	}
	defer closer.Close()

	e, err := c.decode(val)
	if err != nil {
		return Entry{}, false, ioError("decode catalog entry", program.String(), err)
	}
	return e, true, nil
}

// List visits entries in key order: by cluster, then program.
func (c *Catalog) List(fn func(Entry) error) error {
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: PrefixIDL,
		UpperBound: incrementByte(PrefixIDL),
	})
	if err != nil {
		return ioError("list catalog", "", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		e, err := c.decode(iter.Value())
		if err != nil {
			return ioError("decode catalog entry", string(iter.Key()), err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return ioError("list catalog", "", err)
	}
	return nil
}

func (c *Catalog) decode(val []byte) (Entry, error) {
	var e Entry
	if err := c.decMode.Unmarshal(val, &e); err != nil {
		return Entry{}, err
	}
	if e.Version != entryVersion {
		return Entry{}, fmt.Errorf("unsupported catalog entry version %d", e.Version)
	}
	return e, nil
}

func entryKey(cluster string, program address.Identifier) []byte {
	var b bytes.Buffer
	b.Write(PrefixIDL)
	b.WriteString(cluster)
	b.WriteByte(':')
	b.WriteString(program.String())
	return b.Bytes()
}

func incrementByte(b []byte) []byte {
	res := make([]byte, len(b))
	copy(res, b)
	for i := len(res) - 1; i >= 0; i-- {
		res[i]++
		if res[i] != 0 {
			return res
		}
	}
	return nil
}

func ioError(op, subject string, err error) error {
	return &protocol.Error{
		Kind:    protocol.KindIO,
		Op:      op,
		Subject: subject,
		Err:     err,
	}
}
