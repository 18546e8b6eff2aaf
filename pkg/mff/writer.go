package mff

import (
	"bufio"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// SegmentWriter is the write side of the chronology substrate a Writer
// drives: something that can begin a new segment keyed by block height
// and hand back the current segment's buffered stream to append events
// to. *SegmentStore satisfies this; tests may substitute a single-segment
// stub.
type SegmentWriter interface {
	BeginSegment(height uint32) error
	Writer() *bufio.Writer
	Tip() uint32
}

// Writer packs mempool and chain events into the wire format and appends
// them to a SegmentWriter, driving the reference dictionary and the
// segmentation discipline described for confirm_block.
type Writer struct {
	seg    SegmentWriter
	dict   *Dictionary
	chain  *Chain
	lastTs uint64
	began  bool
	log    *zap.Logger
}

// NewWriter returns a Writer over seg with a fresh dictionary and chain.
// A nil logger defaults to a no-op logger.
func NewWriter(seg SegmentWriter, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		seg:   seg,
		dict:  NewDictionary(),
		chain: &Chain{},
		log:   logger,
	}
}

// Dictionary exposes the writer's reference dictionary, e.g. to prime it
// when resuming a stream mid-life.
func (w *Writer) Dictionary() *Dictionary { return w.dict }

// Chain exposes the writer's chain-tip state.
func (w *Writer) Chain() *Chain { return w.chain }

func (w *Writer) pushEvent(ts uint64, cmd uint8, body func(io.Writer) error) error {
	if w.began && ts < w.lastTs {
		return fmt.Errorf("%w: got %d after %d", ErrNonMonotonicTime, ts, w.lastTs)
	}
	delta := ts - w.lastTs
	w.lastTs = ts
	w.began = true

	out := w.seg.Writer()
	if err := writeFlag(out, cmd); err != nil {
		return err
	}
	if err := WriteVarint(out, delta); err != nil {
		return err
	}
	if body == nil {
		return nil
	}
	return body(out)
}

// TxEntered records a transaction entering the mempool (MEMPOOL_IN). The
// principal is always written in full and interned, even if its hash was
// already interned as someone else's spent outpoint: a tx entering the
// mempool for the first time has never been seen as a tx, and
// receive_transaction_with_txid must only fire for a hash the delegate
// already has in full from a prior MEMPOOL_IN or BLOCK_MINED.
func (w *Writer) TxEntered(ts uint64, tx *Tx) error {
	return w.pushEvent(ts, uint8(CmdMempoolIn), func(out io.Writer) error {
		return w.dict.writeFullTx(out, tx)
	})
}

// TxLeft records a transaction leaving the mempool without invalidation
// (MEMPOOL_OUT): expiry, size-limit eviction, reorg, conflict or
// replacement. offender is nil when there is none.
func (w *Writer) TxLeft(ts uint64, tx *Tx, reason uint8, offender *Tx) error {
	cmd, sid, known := w.mempoolOutCmd(CmdMempoolOut, tx, offender)
	var offSid SID
	var offKnown bool
	if offender != nil {
		offSid, offKnown = w.dict.SIDFor(offender.Hash)
	}
	return w.pushEvent(ts, cmd, func(out io.Writer) error {
		if err := w.writeTxRefBody(out, known, sid, tx); err != nil {
			return err
		}
		if err := writeFlag(out, reason); err != nil {
			return err
		}
		if offender != nil {
			return w.writeTxRefBody(out, offKnown, offSid, offender)
		}
		return nil
	})
}

// TxDiscarded records a transaction invalidation (MEMPOOL_INVALIDATED),
// carrying the opaque consensus-serialized rawtx alongside it.
func (w *Writer) TxDiscarded(ts uint64, tx *Tx, rawtx []byte, reason uint8, offender *Tx) error {
	cmd, sid, known := w.mempoolOutCmd(CmdMempoolInvalidated, tx, offender)
	var offSid SID
	var offKnown bool
	if offender != nil {
		offSid, offKnown = w.dict.SIDFor(offender.Hash)
	}
	return w.pushEvent(ts, cmd, func(out io.Writer) error {
		if err := w.writeTxRefBody(out, known, sid, tx); err != nil {
			return err
		}
		if err := writeFlag(out, reason); err != nil {
			return err
		}
		if offender != nil {
			if err := w.writeTxRefBody(out, offKnown, offSid, offender); err != nil {
				return err
			}
		}
		return WriteBytes(out, rawtx)
	})
}

func (w *Writer) mempoolOutCmd(opcode Opcode, tx *Tx, offender *Tx) (cmd uint8, sid SID, known bool) {
	sid, known = w.dict.SIDFor(tx.Hash)
	cmd = uint8(opcode)
	if known {
		cmd |= FlagPrincipalKnown
	}
	if offender != nil {
		cmd |= FlagOffenderPresent
		if _, offKnown := w.dict.SIDFor(offender.Hash); offKnown {
			cmd |= FlagOffenderKnown
		}
	}
	return cmd, sid, known
}

func (w *Writer) writeTxRefBody(out io.Writer, known bool, sid SID, tx *Tx) error {
	if known {
		tx.SID = sid
		return WriteVarint(out, uint64(sid))
	}
	return w.dict.writeFullTx(out, tx)
}

// ConfirmBlock records height's confirmation (BLOCK_MINED). The writer
// opens a segment for height-1 first if the segment tip lags, so that any
// BLOCK_UNMINED events emitted while unconfirming a pre-existing tip at or
// above height land in that segment rather than a stale one, then a
// segment for height itself immediately after the event — but only if the
// segment tip is still below height; it is not when a reorg
// returns to a height whose segment was begun (and since closed) earlier
// in the same run; re-beginning it would otherwise put the reorg's events
// out of order relative to the higher segments already written.
func (w *Writer) ConfirmBlock(ts uint64, height uint32, hash Hash, txs []*Tx) error {
	if height > 0 && w.seg.Tip() < height-1 {
		if err := w.seg.BeginSegment(height - 1); err != nil {
			return fmt.Errorf("mff: opening predecessor segment: %w", err)
		}
	}
	for !w.chain.IsEmpty() && w.chain.Tip() >= height {
		if err := w.UnconfirmTip(ts); err != nil {
			return err
		}
	}
	txids := make(map[Hash]struct{}, len(txs))
	for _, tx := range txs {
		txids[tx.Hash] = struct{}{}
	}
	if err := w.pushEvent(ts, uint8(CmdBlockMined), func(out io.Writer) error {
		if err := w.dict.WriteTxRefSet(out, txs); err != nil {
			return err
		}
		if err := WriteHash(out, hash); err != nil {
			return err
		}
		return WriteUint32LE(out, height)
	}); err != nil {
		return err
	}
	w.chain.Push(NewBlock(height, hash, txids))
	if w.seg.Tip() < height {
		if err := w.seg.BeginSegment(height); err != nil {
			return fmt.Errorf("mff: opening segment for confirmed block: %w", err)
		}
	}
	w.log.Debug("block confirmed", zap.Uint32("height", height), zap.Int("txs", len(txs)))
	return nil
}

// UnconfirmTip records the current tip being unmined (BLOCK_UNMINED).
// Unlike the read side, the write side refuses this on an empty chain.
func (w *Writer) UnconfirmTip(ts uint64) error {
	if w.chain.IsEmpty() {
		return ErrEmptyChain
	}
	tip := w.chain.Tip()
	if err := w.pushEvent(ts, uint8(CmdBlockUnmined), func(out io.Writer) error {
		return WriteUint32LE(out, tip)
	}); err != nil {
		return err
	}
	w.chain.PopTip()
	w.log.Debug("block unmined", zap.Uint32("height", tip))
	return nil
}

// Flush flushes the underlying segment's buffer.
func (w *Writer) Flush() error {
	return w.seg.Writer().Flush()
}
