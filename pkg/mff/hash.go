package mff

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Hash is the opaque 32-byte transaction/block identifier used throughout
// the format. It is the same type dogecoin/bitcoin RPC clients use, so a
// hash read off an MFF stream can be handed straight to a node client.
type Hash = chainhash.Hash

// SID is a sequence identifier assigned by the reference dictionary the
// first time an object's hash is interned. IDs are strictly monotonic.
type SID uint64

// UnknownSID marks an Outpoint or Tx whose SID has not been assigned yet.
const UnknownSID SID = 0

// CoinbaseIndex is the sentinel output index used by the coinbase outpoint.
const CoinbaseIndex uint64 = 0xFFFFFFFF
