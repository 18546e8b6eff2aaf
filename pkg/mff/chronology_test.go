package mff

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentStoreBeginSegmentAdvancesTip(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSegmentStore(dir, "stream")
	require.NoError(t, err)

	require.NoError(t, store.BeginSegment(5))
	assert.Equal(t, uint32(5), store.Tip())
	_, err = store.Writer().WriteString("segment-5")
	require.NoError(t, err)

	require.NoError(t, store.BeginSegment(6))
	assert.Equal(t, uint32(6), store.Tip())
	_, err = store.Writer().WriteString("segment-6")
	require.NoError(t, err)

	require.NoError(t, store.Close())
}

func TestSegmentReaderConcatenatesInHeightOrder(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSegmentStore(dir, "stream")
	require.NoError(t, err)

	for _, height := range []uint32{3, 1, 2} {
		require.NoError(t, store.BeginSegment(height))
		_, err := store.Writer().WriteString(string(rune('A' + height)))
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	reader, err := OpenSegmentReader(dir, "stream")
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, []uint32{1, 2, 3}, reader.Heights())

	data, err := io.ReadAll(reader.Reader())
	require.NoError(t, err)
	assert.Equal(t, "BCD", string(data))
}

// TestWriterOnFreshSegmentStoreHandlesGenesisEvents drives a real Writer
// over a real SegmentStore through tx_entered followed by confirm_block at
// height 1, with no prior BeginSegment call of its own — a store fresh out
// of OpenSegmentStore must already have somewhere for tx_entered to land.
func TestWriterOnFreshSegmentStoreHandlesGenesisEvents(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSegmentStore(dir, "stream")
	require.NoError(t, err)
	w := NewWriter(store, nil)

	tx := &Tx{
		Hash:   hashOf(0x11),
		Weight: 400,
		Fee:    1000,
		Vin:    []Outpoint{OutpointFromHash(0, hashOf(0xAA))},
		Vout:   []uint64{900},
	}
	require.NoError(t, w.TxEntered(1000, tx))
	require.NoError(t, w.ConfirmBlock(1001, 1, hashOf(0xBB), []*Tx{tx}))
	require.NoError(t, w.Flush())
	require.NoError(t, store.Close())

	reader, err := OpenSegmentReader(dir, "stream")
	require.NoError(t, err)
	defer reader.Close()

	delegate := &recordingDelegate{}
	r := NewReader(reader.Reader(), delegate, nil)
	for {
		more, err := r.Iterate()
		require.NoError(t, err)
		if !more {
			break
		}
	}

	require.Len(t, delegate.calls, 2)
	assert.Equal(t, "receive", delegate.calls[0].kind)
	assert.Equal(t, "confirmed", delegate.calls[1].kind)
	assert.Equal(t, uint32(1), delegate.calls[1].block.Height)
}

// TestSegmentStoreReorgReplaysInRecordOrder drives a real SegmentStore
// through a reorg that returns to an already-written height (confirm 2,
// confirm 3, reorg back and re-confirm 2) and checks, via a real
// SegmentReader, that replay sees events in the order they were recorded
// rather than the order their segment files happen to sort in.
func TestSegmentStoreReorgReplaysInRecordOrder(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSegmentStore(dir, "stream")
	require.NoError(t, err)
	w := NewWriter(store, nil)

	require.NoError(t, w.ConfirmBlock(2000, 2, hashOf(0x02), nil))
	require.NoError(t, w.ConfirmBlock(2001, 3, hashOf(0x03), nil))
	require.NoError(t, w.ConfirmBlock(2002, 2, hashOf(0x12), nil))
	require.NoError(t, w.Flush())
	require.NoError(t, store.Close())

	reader, err := OpenSegmentReader(dir, "stream")
	require.NoError(t, err)
	defer reader.Close()

	delegate := &recordingDelegate{}
	r := NewReader(reader.Reader(), delegate, nil)
	for {
		more, err := r.Iterate()
		require.NoError(t, err)
		if !more {
			break
		}
	}

	kinds := make([]string, len(delegate.calls))
	for i, c := range delegate.calls {
		kinds[i] = c.kind
	}
	assert.Equal(t, []string{"confirmed", "confirmed", "reorged", "reorged", "confirmed"}, kinds)
	assert.Equal(t, hashOf(0x12), delegate.calls[4].block.Hash)
	assert.Equal(t, uint32(2), r.Chain().Tip())
}
