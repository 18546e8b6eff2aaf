package mff

// OutpointState annotates an Outpoint in memory only; it is never part of
// the wire format.
type OutpointState uint8

const (
	StateUnknown OutpointState = iota
	StateKnown
	StateConfirmed
	StateCoinbase
)

// Outpoint references the N-th output of some previous transaction.
// Exactly one of SID or Hash is authoritative: if SID != UnknownSID it
// takes precedence over Hash for identity and equality.
type Outpoint struct {
	N     uint64
	SID   SID
	Hash  Hash
	State OutpointState
}

// OutpointFromHash builds an Outpoint whose previous transaction is known
// only by hash (not yet interned, or interned under a different SID).
func OutpointFromHash(n uint64, hash Hash) Outpoint {
	return Outpoint{N: n, Hash: hash}
}

// OutpointFromSID builds an Outpoint whose previous transaction is already
// interned under sid.
func OutpointFromSID(n uint64, sid SID) Outpoint {
	return Outpoint{N: n, SID: sid}
}

// CoinbaseOutpoint returns the sentinel outpoint used by coinbase inputs:
// index 0xFFFFFFFF, zero hash.
func CoinbaseOutpoint() Outpoint {
	return Outpoint{N: CoinbaseIndex, State: StateCoinbase}
}

// Equal compares two outpoints by SID when set, else by Hash.
func (o Outpoint) Equal(other Outpoint) bool {
	if o.SID != UnknownSID {
		return o.SID == other.SID
	}
	return o.Hash == other.Hash
}

// TxLocation annotates where a Tx currently sits; in-memory only, never
// serialized.
type TxLocation uint8

const (
	LocationInMempool TxLocation = iota
	LocationConfirmed
	LocationDiscarded
	LocationInvalid
)

// Tx is a mempool transaction as recorded by the format. Weight, fee, vin
// and vout are wire fields; Location and the reason annotations are
// in-memory bookkeeping a delegate may use but the codec never writes.
type Tx struct {
	Hash Hash
	SID  SID

	Weight uint64
	Fee    uint64

	Vin  []Outpoint
	Vout []uint64

	Location      TxLocation
	OutReason     uint8 // non-authoritative; the stream's reason byte is canonical
	InvalidReason uint8
}

// VSize is the virtual size in the usual ceil(weight/4) sense.
func (t *Tx) VSize() uint64 {
	return (t.Weight + 3) / 4
}

// FeeRate is fee per virtual byte; zero vsize yields zero rather than
// dividing by zero.
func (t *Tx) FeeRate() float64 {
	vsize := t.VSize()
	if vsize == 0 {
		return 0
	}
	return float64(t.Fee) / float64(vsize)
}

// Spends reports whether t has an input whose previous transaction
// matches by SID (when seq is not UnknownSID) or by txid, returning that
// input's output index N within the previous transaction. Mirrors the
// original tx::spends helper; a convenience for delegates, not part of
// the codec.
func (t *Tx) Spends(txid Hash, seq SID) (index uint64, ok bool) {
	for _, prevout := range t.Vin {
		if (seq != UnknownSID && prevout.SID == seq) || prevout.Hash == txid {
			return prevout.N, true
		}
	}
	return 0, false
}

// Block is a confirmed block: height, hash, and the set of transaction
// hashes it contains. Heights strictly increase along a Chain.
type Block struct {
	Height uint32
	Hash   Hash
	TxIDs  map[Hash]struct{}
}

// NewBlock builds a Block from an explicit txid set.
func NewBlock(height uint32, hash Hash, txids map[Hash]struct{}) *Block {
	if txids == nil {
		txids = make(map[Hash]struct{})
	}
	return &Block{Height: height, Hash: hash, TxIDs: txids}
}

// Chain is the ordered sequence of confirmed blocks, append-on-confirm,
// truncate-from-the-end on reorg.
type Chain struct {
	blocks []*Block
}

// Tip is the height of the last block, or 0 if the chain is empty.
func (c *Chain) Tip() uint32 {
	if len(c.blocks) == 0 {
		return 0
	}
	return c.blocks[len(c.blocks)-1].Height
}

// IsEmpty reports whether the chain holds no blocks.
func (c *Chain) IsEmpty() bool {
	return len(c.blocks) == 0
}

// Push appends a newly confirmed block.
func (c *Chain) Push(b *Block) {
	c.blocks = append(c.blocks, b)
}

// PopTip removes and returns the current tip, or nil if the chain is empty.
func (c *Chain) PopTip() *Block {
	if len(c.blocks) == 0 {
		return nil
	}
	tip := c.blocks[len(c.blocks)-1]
	c.blocks = c.blocks[:len(c.blocks)-1]
	return tip
}

// Blocks returns the chain's blocks, oldest first. The slice is owned by
// the Chain; callers must not mutate it.
func (c *Chain) Blocks() []*Block {
	return c.blocks
}
