package catalog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/idlctl/internal/address"
	"github.com/danmuck/idlctl/internal/protocol"
	"github.com/danmuck/idlctl/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleEntry(program, cluster string) Entry {
	return Entry{
		Program:       address.MustParse(program),
		Cluster:       cluster,
		RecordAddress: address.MustParse("57U3UjoQGw3wC1pkZCX1xJk48nUxeTp4vaCkSnk9TbmW"),
		Authority:     address.MustParse("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"),
		DocumentCID:   []byte{0x01, 0x55, 0x12, 0x20},
		Path:          program + ".json",
		Size:          128,
		FetchedAt:     time.Date(2026, 10, 19, 12, 30, 45, 999, time.UTC),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	testlog.Start(t)
	c := openTest(t)
	in := sampleEntry("ADcaide4vBtKuyZQqdU689YqEGZMCmS4tL35bdTv9wJa", "devnet")
	require.NoError(t, c.Put(in))

	got, ok, err := c.Get("devnet", in.Program)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.Program, got.Program)
	assert.Equal(t, in.RecordAddress, got.RecordAddress)
	assert.Equal(t, in.Authority, got.Authority)
	assert.Equal(t, in.DocumentCID, got.DocumentCID)
	assert.Equal(t, in.Path, got.Path)
	assert.Equal(t, in.Size, got.Size)
	assert.True(t, got.FetchedAt.Equal(in.FetchedAt.Truncate(time.Second)), "fetched_at=%v", got.FetchedAt)

	_, ok, err = c.Get("mainnet", in.Program)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutOverwritesSameKey(t *testing.T) {
	testlog.Start(t)
	c := openTest(t)
	e := sampleEntry("ADcaide4vBtKuyZQqdU689YqEGZMCmS4tL35bdTv9wJa", "devnet")
	require.NoError(t, c.Put(e))
	e.Size = 256
	require.NoError(t, c.Put(e))

	got, ok, err := c.Get("devnet", e.Program)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(256), got.Size)
}

func TestListOrdersByClusterThenProgram(t *testing.T) {
	testlog.Start(t)
	c := openTest(t)
	require.NoError(t, c.Put(sampleEntry("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", "mainnet")))
	require.NoError(t, c.Put(sampleEntry("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", "devnet")))
	require.NoError(t, c.Put(sampleEntry("ADcaide4vBtKuyZQqdU689YqEGZMCmS4tL35bdTv9wJa", "devnet")))

	var seen []string
	require.NoError(t, c.List(func(e Entry) error {
		seen = append(seen, e.Cluster+"/"+e.Program.String())
		return nil
	}))
	assert.Equal(t, []string{
		"devnet/ADcaide4vBtKuyZQqdU689YqEGZMCmS4tL35bdTv9wJa",
		"devnet/TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
		"mainnet/TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
	}, seen)
}

func TestListStopsOnCallbackError(t *testing.T) {
	testlog.Start(t)
	c := openTest(t)
	require.NoError(t, c.Put(sampleEntry("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", "devnet")))
	require.NoError(t, c.Put(sampleEntry("ADcaide4vBtKuyZQqdU689YqEGZMCmS4tL35bdTv9wJa", "devnet")))

	stop := errors.New("stop")
	calls := 0
	err := c.List(func(Entry) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestPutRequiresCluster(t *testing.T) {
	testlog.Start(t)
	c := openTest(t)
	err := c.Put(sampleEntry("ADcaide4vBtKuyZQqdU689YqEGZMCmS4tL35bdTv9wJa", ""))
	require.ErrorIs(t, err, protocol.ErrIO)
}

func TestCorruptEntryIsIOKind(t *testing.T) {
	testlog.Start(t)
	c := openTest(t)
	program := address.MustParse("ADcaide4vBtKuyZQqdU689YqEGZMCmS4tL35bdTv9wJa")
	require.NoError(t, c.db.Set(entryKey("devnet", program), []byte{0xff, 0x00}, nil))

	_, _, err := c.Get("devnet", program)
	require.ErrorIs(t, err, protocol.ErrIO)
	err = c.List(func(Entry) error { return nil })
	require.ErrorIs(t, err, protocol.ErrIO)
}

func TestReopenPersists(t *testing.T) {
	testlog.Start(t)
	dir := filepath.Join(t.TempDir(), "catalog")
	c, err := Open(dir)
	require.NoError(t, err)
	e := sampleEntry("ADcaide4vBtKuyZQqdU689YqEGZMCmS4tL35bdTv9wJa", "testnet")
	require.NoError(t, c.Put(e))
	require.NoError(t, c.Close())

	c, err = Open(dir)
	require.NoError(t, err)
	defer c.Close()
	_, ok, err := c.Get("testnet", e.Program)
	require.NoError(t, err)
	assert.True(t, ok)
}
