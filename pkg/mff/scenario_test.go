package mff

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSegmentWriter is a single-stream stand-in for SegmentStore: it
// satisfies SegmentWriter without touching the filesystem, for tests that
// exercise event framing rather than segmentation itself.
type memSegmentWriter struct {
	buf *bytes.Buffer
	w   *bufio.Writer
	tip uint32
}

func newMemSegmentWriter() *memSegmentWriter {
	buf := &bytes.Buffer{}
	return &memSegmentWriter{buf: buf, w: bufio.NewWriter(buf)}
}

func (m *memSegmentWriter) BeginSegment(height uint32) error {
	m.tip = height
	return nil
}
func (m *memSegmentWriter) Writer() *bufio.Writer { return m.w }
func (m *memSegmentWriter) Tip() uint32           { return m.tip }

func hashOf(b byte) Hash {
	var h Hash
	for i := range h {
		h[i] = b
	}
	return h
}

type recordedCall struct {
	kind     string
	tx       *Tx
	hash     Hash
	reason   uint8
	offender *Hash
	rawtx    []byte
	block    *Block
	height   uint32
}

type recordingDelegate struct {
	calls []recordedCall
}

func (d *recordingDelegate) ReceiveTransaction(tx *Tx) {
	d.calls = append(d.calls, recordedCall{kind: "receive", tx: tx})
}
func (d *recordingDelegate) ReceiveTransactionWithTxID(h Hash) {
	d.calls = append(d.calls, recordedCall{kind: "receive_txid", hash: h})
}
func (d *recordingDelegate) ForgetTransactionWithTxID(h Hash, reason uint8) {
	d.calls = append(d.calls, recordedCall{kind: "forget", hash: h, reason: reason})
}
func (d *recordingDelegate) DiscardTransactionWithTxID(h Hash, rawtx []byte, reason uint8, offender *Hash) {
	d.calls = append(d.calls, recordedCall{kind: "discard", hash: h, rawtx: rawtx, reason: reason, offender: offender})
}
func (d *recordingDelegate) BlockConfirmed(b *Block) {
	d.calls = append(d.calls, recordedCall{kind: "confirmed", block: b})
}
func (d *recordingDelegate) BlockReorged(height uint32) {
	d.calls = append(d.calls, recordedCall{kind: "reorged", height: height})
}
func (d *recordingDelegate) String() string {
	if len(d.calls) == 0 {
		return "(no calls)"
	}
	return d.calls[len(d.calls)-1].kind
}

func TestScenarioSingleTxSingleBlock(t *testing.T) {
	seg := newMemSegmentWriter()
	w := NewWriter(seg, nil)

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

	delegate := &recordingDelegate{}
	r := NewReader(bufio.NewReader(bytes.NewReader(seg.buf.Bytes())), delegate, nil)

	more, err := r.Iterate()
	require.NoError(t, err)
	require.True(t, more)

	more, err = r.Iterate()
	require.NoError(t, err)
	require.True(t, more)

	more, err = r.Iterate()
	require.NoError(t, err)
	require.False(t, more)

	require.Len(t, delegate.calls, 2)
	assert.Equal(t, "receive", delegate.calls[0].kind)
	assert.Equal(t, tx.Hash, delegate.calls[0].tx.Hash)
	assert.Equal(t, uint64(400), delegate.calls[0].tx.Weight)
	assert.Equal(t, uint64(1000), delegate.calls[0].tx.Fee)

	assert.Equal(t, "confirmed", delegate.calls[1].kind)
	assert.Equal(t, uint32(1), delegate.calls[1].block.Height)
	assert.Equal(t, hashOf(0xBB), delegate.calls[1].block.Hash)
	_, ok := delegate.calls[1].block.TxIDs[hashOf(0x11)]
	assert.True(t, ok)
}

func TestScenarioReferenceReuse(t *testing.T) {
	seg := newMemSegmentWriter()
	w := NewWriter(seg, nil)

	tx := &Tx{Hash: hashOf(0x11), Weight: 400, Fee: 1000}
	offender := &Tx{Hash: hashOf(0x22), Weight: 200, Fee: 500}
	require.NoError(t, w.TxEntered(1000, tx))
	require.NoError(t, w.TxLeft(1002, tx, ReasonReplaced, offender))
	require.NoError(t, w.Flush())

	delegate := &recordingDelegate{}
	r := NewReader(bufio.NewReader(bytes.NewReader(seg.buf.Bytes())), delegate, nil)
	for {
		more, err := r.Iterate()
		require.NoError(t, err)
		if !more {
			break
		}
	}

	require.Len(t, delegate.calls, 2)
	forget := delegate.calls[1]
	assert.Equal(t, "forget", forget.kind)
	assert.Equal(t, hashOf(0x11), forget.hash)
	assert.Equal(t, ReasonReplaced, forget.reason)
}

func TestScenarioReorg(t *testing.T) {
	seg := newMemSegmentWriter()
	w := NewWriter(seg, nil)

	require.NoError(t, w.ConfirmBlock(2000, 2, hashOf(0x02), nil))
	require.NoError(t, w.ConfirmBlock(2001, 3, hashOf(0x03), nil))
	require.NoError(t, w.ConfirmBlock(2002, 2, hashOf(0x12), nil))
	require.NoError(t, w.Flush())
	assert.Equal(t, uint32(2), w.Chain().Tip())

	delegate := &recordingDelegate{}
	r := NewReader(bufio.NewReader(bytes.NewReader(seg.buf.Bytes())), delegate, nil)
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
	assert.Equal(t, uint32(3), delegate.calls[2].height)
	assert.Equal(t, uint32(2), delegate.calls[3].height)
	assert.Equal(t, uint32(2), r.Chain().Tip())
}

func TestScenarioInvalidationWithRawPayload(t *testing.T) {
	seg := newMemSegmentWriter()
	w := NewWriter(seg, nil)

	tx := &Tx{Hash: hashOf(0x33)}
	rawtx := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, w.TxDiscarded(3000, tx, rawtx, ReasonConflict, nil))
	require.NoError(t, w.Flush())

	delegate := &recordingDelegate{}
	r := NewReader(bufio.NewReader(bytes.NewReader(seg.buf.Bytes())), delegate, nil)
	more, err := r.Iterate()
	require.NoError(t, err)
	assert.True(t, more)

	require.Len(t, delegate.calls, 1)
	got := delegate.calls[0]
	assert.Equal(t, "discard", got.kind)
	assert.Equal(t, tx.Hash, got.hash)
	assert.Equal(t, rawtx, got.rawtx)
	assert.Equal(t, ReasonConflict, got.reason)
	assert.Nil(t, got.offender)
}

func TestScenarioTruncatedTail(t *testing.T) {
	seg := newMemSegmentWriter()
	w := NewWriter(seg, nil)

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

	full := seg.buf.Bytes()
	truncated := full[:len(full)-1]

	delegate := &recordingDelegate{}
	r := NewReader(bufio.NewReader(bytes.NewReader(truncated)), delegate, nil)

	more, err := r.Iterate()
	require.NoError(t, err)
	require.True(t, more)
	require.Len(t, delegate.calls, 1)
	assert.Equal(t, "receive", delegate.calls[0].kind)

	_, err = r.Iterate()
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestScenarioUnknownReasonPassthrough(t *testing.T) {
	seg := newMemSegmentWriter()
	w := NewWriter(seg, nil)

	tx := &Tx{Hash: hashOf(0x44)}
	require.NoError(t, w.TxEntered(1000, tx))
	require.NoError(t, w.TxLeft(1001, tx, 0x7F, nil))
	require.NoError(t, w.Flush())

	delegate := &recordingDelegate{}
	r := NewReader(bufio.NewReader(bytes.NewReader(seg.buf.Bytes())), delegate, nil)
	for {
		more, err := r.Iterate()
		require.NoError(t, err)
		if !more {
			break
		}
	}

	require.Len(t, delegate.calls, 2)
	assert.Equal(t, uint8(0x7F), delegate.calls[1].reason)
}
