package mff

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Reader replays an MFF byte stream against a Delegate, decoding exactly
// one event per Iterate call and maintaining the reference dictionary and
// chain state the writer produced.
type Reader struct {
	in       byteReader
	dict     *Dictionary
	chain    *Chain
	delegate Delegate
	lastTs   uint64
	log      *zap.Logger
}

// NewReader returns a Reader over in, driving delegate as it replays. A
// nil logger defaults to a no-op logger.
func NewReader(in byteReader, delegate Delegate, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		in:       in,
		dict:     NewDictionary(),
		chain:    &Chain{},
		delegate: delegate,
		log:      logger,
	}
}

// Dictionary exposes the reader's reference dictionary.
func (r *Reader) Dictionary() *Dictionary { return r.dict }

// Chain exposes the reader's chain-tip state.
func (r *Reader) Chain() *Chain { return r.chain }

// Iterate consumes exactly one event and invokes the matching delegate
// callback. It returns (false, nil) at a clean end-of-stream (no bytes
// remained at a command-byte boundary) and (false, err) on any decode
// error, per the "never silently drop an event" policy: replay stops at
// the first fatal error.
func (r *Reader) Iterate() (bool, error) {
	cmd, err := r.in.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, shortRead(err)
	}

	if cmd&FlagOffenderKnown != 0 && cmd&FlagOffenderPresent == 0 {
		return false, ErrBadFlags
	}

	delta, err := ReadVarint(r.in)
	if err != nil {
		return false, err
	}
	r.lastTs += delta

	op := OpcodeOf(cmd)
	switch op {
	case CmdTimeSet:
		return true, nil

	case CmdMempoolIn:
		err = r.readMempoolIn(cmd)

	case CmdMempoolOut:
		err = r.readMempoolOut(cmd)

	case CmdMempoolInvalidated:
		err = r.readMempoolInvalidated(cmd)

	case CmdBlockMined:
		err = r.readBlockMined()

	case CmdBlockUnmined:
		err = r.readBlockUnmined()

	default:
		return false, fmt.Errorf("%w: 0x%02x", ErrInvalidCommand, uint8(op))
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Reader) readMempoolIn(cmd uint8) error {
	known := cmd&FlagPrincipalKnown != 0
	tx, err := r.dict.ReadTxRefFull(r.in, known)
	if err != nil {
		return err
	}
	if known {
		r.delegate.ReceiveTransactionWithTxID(tx.Hash)
	} else {
		r.delegate.ReceiveTransaction(tx)
	}
	return nil
}

func (r *Reader) readMempoolOut(cmd uint8) error {
	known := cmd&FlagPrincipalKnown != 0
	txid, err := r.dict.ReadTxRef(r.in, known)
	if err != nil {
		return err
	}
	reason, err := r.in.ReadByte()
	if err != nil {
		return shortRead(err)
	}
	if cmd&FlagOffenderPresent != 0 {
		offenderKnown := cmd&FlagOffenderKnown != 0
		if _, err := r.dict.ReadTxRef(r.in, offenderKnown); err != nil {
			return err
		}
	}
	r.delegate.ForgetTransactionWithTxID(txid, reason)
	return nil
}

func (r *Reader) readMempoolInvalidated(cmd uint8) error {
	known := cmd&FlagPrincipalKnown != 0
	txid, err := r.dict.ReadTxRef(r.in, known)
	if err != nil {
		return err
	}
	reason, err := r.in.ReadByte()
	if err != nil {
		return shortRead(err)
	}
	var offender *Hash
	if cmd&FlagOffenderPresent != 0 {
		offenderKnown := cmd&FlagOffenderKnown != 0
		h, err := r.dict.ReadTxRef(r.in, offenderKnown)
		if err != nil {
			return err
		}
		offender = &h
	}
	rawtx, err := ReadBytes(r.in)
	if err != nil {
		return err
	}
	r.delegate.DiscardTransactionWithTxID(txid, rawtx, reason, offender)
	return nil
}

func (r *Reader) readBlockMined() error {
	txids, err := r.dict.ReadTxRefSet(r.in)
	if err != nil {
		return err
	}
	hash, err := ReadHash(r.in)
	if err != nil {
		return err
	}
	height, err := ReadUint32LE(r.in)
	if err != nil {
		return err
	}
	block := NewBlock(height, hash, txids)
	r.chain.Push(block)
	r.delegate.BlockConfirmed(block)
	return nil
}

func (r *Reader) readBlockUnmined() error {
	height, err := ReadUint32LE(r.in)
	if err != nil {
		return err
	}
	if r.chain.IsEmpty() {
		r.log.Warn("block_unmined on empty chain, ignoring", zap.Uint32("height", height))
	} else {
		r.chain.PopTip()
	}
	r.delegate.BlockReorged(height)
	return nil
}
