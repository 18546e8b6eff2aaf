package mff

// Delegate is the callback surface a Reader drives while replaying a
// stream. Implementations may assume:
//
//   - ReceiveTransactionWithTxID is only called for a hash previously
//     seen via ReceiveTransaction or a prior BlockConfirmed whose txid
//     set contained it.
//   - ForgetTransactionWithTxID and DiscardTransactionWithTxID may be
//     called with a hash the delegate never saw, if the recording began
//     mid-life; implementations must tolerate this.
//   - BlockConfirmed arrives at strictly increasing heights interleaved
//     with zero or more BlockReorged calls that monotonically reduce the
//     expected next height.
type Delegate interface {
	// ReceiveTransaction is called when a transaction enters the mempool
	// and its full body was present in the stream (first mention).
	ReceiveTransaction(tx *Tx)

	// ReceiveTransactionWithTxID is called when a transaction enters the
	// mempool and the stream referenced it by a previously interned hash.
	ReceiveTransactionWithTxID(hash Hash)

	// ForgetTransactionWithTxID is called when a transaction leaves the
	// mempool without being invalidated (expiry, eviction, conflict).
	ForgetTransactionWithTxID(hash Hash, reason uint8)

	// DiscardTransactionWithTxID is called when a transaction is
	// invalidated; rawtx is the opaque consensus-serialized payload
	// recorded alongside it.
	DiscardTransactionWithTxID(hash Hash, rawtx []byte, reason uint8, offender *Hash)

	// BlockConfirmed is called when a block is mined onto the chain.
	BlockConfirmed(block *Block)

	// BlockReorged is called when the block at height is unmined.
	BlockReorged(height uint32)

	// String renders whatever the delegate last observed, for diagnostics.
	String() string
}

// NopDelegate is a Delegate that discards every callback. Embed it to
// implement only the callbacks a particular use case cares about.
type NopDelegate struct{}

func (NopDelegate) ReceiveTransaction(*Tx)                                 {}
func (NopDelegate) ReceiveTransactionWithTxID(Hash)                       {}
func (NopDelegate) ForgetTransactionWithTxID(Hash, uint8)                 {}
func (NopDelegate) DiscardTransactionWithTxID(Hash, []byte, uint8, *Hash) {}
func (NopDelegate) BlockConfirmed(*Block)                                 {}
func (NopDelegate) BlockReorged(uint32)                                  {}
func (NopDelegate) String() string                                       { return "(nop)" }
