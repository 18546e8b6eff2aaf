// Package mffdiag provides a diagnostic delegate that snapshots the last
// event seen while replaying a stream, and a text formatter for it. It is
// tooling for tests and the mffcat command, not part of the core codec.
package mffdiag

import (
	"fmt"

	"github.com/dgarage/mff/pkg/mff"
)

// LastEvent is a stable snapshot of whatever callback an Analyzer last
// received; only the fields relevant to that callback are populated.
type LastEvent struct {
	Kind     string
	Tx       *mff.Tx
	Hash     mff.Hash
	Reason   uint8
	Offender *mff.Hash
	RawTx    []byte
	Block    *mff.Block
	Height   uint32
}

// String renders the last event for display, the mff.Delegate analogue of
// a to_string() diagnostic.
func (e LastEvent) String() string {
	switch e.Kind {
	case "":
		return "(no events yet)"
	case "receive":
		return fmt.Sprintf("receive_transaction(%x, weight=%d, fee=%d)", e.Tx.Hash, e.Tx.Weight, e.Tx.Fee)
	case "receive_txid":
		return fmt.Sprintf("receive_transaction_with_txid(%x)", e.Hash)
	case "forget":
		return fmt.Sprintf("forget_transaction_with_txid(%x, reason=%s)", e.Hash, mff.ReasonString(e.Reason))
	case "discard":
		return fmt.Sprintf("discard_transaction_with_txid(%x, reason=%s, rawtx=%dB)", e.Hash, mff.ReasonString(e.Reason), len(e.RawTx))
	case "confirmed":
		return fmt.Sprintf("block_confirmed(height=%d, hash=%x, txs=%d)", e.Block.Height, e.Block.Hash, len(e.Block.TxIDs))
	case "reorged":
		return fmt.Sprintf("block_reorged(height=%d)", e.Height)
	default:
		return fmt.Sprintf("unknown(%s)", e.Kind)
	}
}

// Analyzer is the tooling counterpart of the original's mff_analyzer: a
// delegate that records the most recent callback (and every callback when
// RecordHistory is set), plus running per-kind counters, for diagnostic
// tools to report on.
type Analyzer struct {
	Last    LastEvent
	Counts  map[string]int
	History []LastEvent
	// RecordHistory, when true, retains every event rather than only the
	// last one. Off by default since long streams would otherwise make
	// the analyzer unbounded.
	RecordHistory bool
}

// NewAnalyzer returns an Analyzer ready to be driven as an mff.Delegate.
func NewAnalyzer() *Analyzer {
	return &Analyzer{Counts: make(map[string]int)}
}

func (a *Analyzer) record(e LastEvent) {
	a.Last = e
	a.Counts[e.Kind]++
	if a.RecordHistory {
		a.History = append(a.History, e)
	}
}

func (a *Analyzer) ReceiveTransaction(tx *mff.Tx) {
	a.record(LastEvent{Kind: "receive", Tx: tx})
}

func (a *Analyzer) ReceiveTransactionWithTxID(hash mff.Hash) {
	a.record(LastEvent{Kind: "receive_txid", Hash: hash})
}

func (a *Analyzer) ForgetTransactionWithTxID(hash mff.Hash, reason uint8) {
	a.record(LastEvent{Kind: "forget", Hash: hash, Reason: reason})
}

func (a *Analyzer) DiscardTransactionWithTxID(hash mff.Hash, rawtx []byte, reason uint8, offender *mff.Hash) {
	a.record(LastEvent{Kind: "discard", Hash: hash, RawTx: rawtx, Reason: reason, Offender: offender})
}

func (a *Analyzer) BlockConfirmed(block *mff.Block) {
	a.record(LastEvent{Kind: "confirmed", Block: block})
}

func (a *Analyzer) BlockReorged(height uint32) {
	a.record(LastEvent{Kind: "reorged", Height: height})
}

// String satisfies mff.Delegate by rendering the last event observed.
func (a *Analyzer) String() string {
	return a.Last.String()
}

// Summary reports how many callbacks of each kind the analyzer has seen.
func (a *Analyzer) Summary() map[string]int {
	out := make(map[string]int, len(a.Counts))
	for k, v := range a.Counts {
		out[k] = v
	}
	return out
}
