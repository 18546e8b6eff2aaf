package mffdiag

import (
	"testing"

	"github.com/dgarage/mff/pkg/mff"
	"github.com/stretchr/testify/assert"
)

func TestAnalyzerRecordsLastAndCounts(t *testing.T) {
	a := NewAnalyzer()
	assert.Equal(t, "(no events yet)", a.Last.String())

	hash := mff.Hash{0x11}
	a.ReceiveTransactionWithTxID(hash)
	assert.Equal(t, "receive_txid", a.Last.Kind)
	assert.Contains(t, a.Last.String(), "receive_transaction_with_txid")

	a.ForgetTransactionWithTxID(hash, mff.ReasonExpired)
	assert.Equal(t, "forget", a.Last.Kind)
	assert.Equal(t, 1, a.Summary()["receive_txid"])
	assert.Equal(t, 1, a.Summary()["forget"])
}

func TestAnalyzerHistoryOptIn(t *testing.T) {
	a := NewAnalyzer()
	a.RecordHistory = true

	a.BlockReorged(5)
	a.BlockReorged(4)
	assert.Len(t, a.History, 2)
	assert.Equal(t, uint32(5), a.History[0].Height)
	assert.Equal(t, uint32(4), a.History[1].Height)
}
