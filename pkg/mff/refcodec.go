package mff

import "io"

// ReadTxRef is FERBO for a transaction reference that is not expected to
// carry a full body at this call site (MEMPOOL_OUT/INVALIDATED principal
// and offender slots): known reads a SID and resolves it; fresh reads and
// interns a full record, discarding everything but its hash.
func (d *Dictionary) ReadTxRef(r byteReader, known bool) (Hash, error) {
	if known {
		sid, err := ReadVarint(r)
		if err != nil {
			return Hash{}, err
		}
		hash, ok := d.HashFor(SID(sid))
		if !ok {
			return Hash{}, ErrUnknownSID
		}
		return hash, nil
	}
	tx, err := d.readFullTx(r)
	if err != nil {
		return Hash{}, err
	}
	return tx.Hash, nil
}

// ReadTxRefFull is FERBO where the caller needs the whole record when
// fresh (MEMPOOL_IN): known resolves a SID to a stub Tx carrying only the
// hash and SID (the dictionary does not retain full bodies); fresh reads,
// interns and returns the full record.
func (d *Dictionary) ReadTxRefFull(r byteReader, known bool) (*Tx, error) {
	if known {
		sid, err := ReadVarint(r)
		if err != nil {
			return nil, err
		}
		hash, ok := d.HashFor(SID(sid))
		if !ok {
			return nil, ErrUnknownSID
		}
		return &Tx{Hash: hash, SID: SID(sid)}, nil
	}
	return d.readFullTx(r)
}

func (d *Dictionary) writeFullTx(w io.Writer, tx *Tx) error {
	if err := WriteHash(w, tx.Hash); err != nil {
		return err
	}
	if err := WriteVarint(w, tx.Weight); err != nil {
		return err
	}
	if err := WriteVarint(w, tx.Fee); err != nil {
		return err
	}
	if err := WriteVarint(w, uint64(len(tx.Vin))); err != nil {
		return err
	}
	for i := range tx.Vin {
		if err := d.WriteOutpointRef(w, &tx.Vin[i]); err != nil {
			return err
		}
	}
	if err := WriteVarint(w, uint64(len(tx.Vout))); err != nil {
		return err
	}
	for _, v := range tx.Vout {
		if err := WriteVarint(w, v); err != nil {
			return err
		}
	}
	tx.SID = d.Intern(tx.Hash)
	return nil
}

func (d *Dictionary) readFullTx(r byteReader) (*Tx, error) {
	tx := &Tx{}
	hash, err := ReadHash(r)
	if err != nil {
		return nil, err
	}
	tx.Hash = hash
	if tx.Weight, err = ReadVarint(r); err != nil {
		return nil, err
	}
	if tx.Fee, err = ReadVarint(r); err != nil {
		return nil, err
	}
	vinCount, err := ReadVarint(r)
	if err != nil {
		return nil, err
	}
	tx.Vin = make([]Outpoint, vinCount)
	for i := range tx.Vin {
		op, err := d.ReadOutpointRef(r)
		if err != nil {
			return nil, err
		}
		tx.Vin[i] = op
	}
	voutCount, err := ReadVarint(r)
	if err != nil {
		return nil, err
	}
	tx.Vout = make([]uint64, voutCount)
	for i := range tx.Vout {
		if tx.Vout[i], err = ReadVarint(r); err != nil {
			return nil, err
		}
	}
	tx.SID = d.Intern(tx.Hash)
	return tx, nil
}

// WriteOutpointRef writes an outpoint's own known/fresh flag byte (there
// is no command-byte bit to spare for objects nested inside a tx body),
// followed by the referenced previous-transaction identity, followed by
// the output index. The index is always present: it is specific to this
// occurrence of the outpoint even when the previous transaction's
// identity is shared with another outpoint.
func (d *Dictionary) WriteOutpointRef(w io.Writer, op *Outpoint) error {
	sid, known := op.SID, op.SID != UnknownSID
	if !known {
		sid, known = d.SIDFor(op.Hash)
	}
	if known {
		if err := writeFlag(w, 1); err != nil {
			return err
		}
		if err := WriteVarint(w, uint64(sid)); err != nil {
			return err
		}
		op.SID = sid
	} else {
		if err := writeFlag(w, 0); err != nil {
			return err
		}
		if err := WriteHash(w, op.Hash); err != nil {
			return err
		}
		op.SID = d.Intern(op.Hash)
	}
	return WriteVarint(w, op.N)
}

// ReadOutpointRef is the inverse of WriteOutpointRef.
func (d *Dictionary) ReadOutpointRef(r byteReader) (Outpoint, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return Outpoint{}, shortRead(err)
	}
	var op Outpoint
	if flag != 0 {
		sid, err := ReadVarint(r)
		if err != nil {
			return Outpoint{}, err
		}
		hash, ok := d.HashFor(SID(sid))
		if !ok {
			return Outpoint{}, ErrUnknownSID
		}
		op.SID, op.Hash, op.State = SID(sid), hash, StateKnown
	} else {
		hash, err := ReadHash(r)
		if err != nil {
			return Outpoint{}, err
		}
		op.Hash = hash
		op.SID = d.Intern(hash)
		op.State = StateUnknown
	}
	n, err := ReadVarint(r)
	if err != nil {
		return Outpoint{}, err
	}
	op.N = n
	return op, nil
}

// WriteTxRefSet writes refset(S): count:varint followed by, per element,
// a known/fresh flag byte and the reference body.
func (d *Dictionary) WriteTxRefSet(w io.Writer, txs []*Tx) error {
	if err := WriteVarint(w, uint64(len(txs))); err != nil {
		return err
	}
	for _, tx := range txs {
		sid, known := d.SIDFor(tx.Hash)
		if known {
			if err := writeFlag(w, 1); err != nil {
				return err
			}
			tx.SID = sid
			if err := WriteVarint(w, uint64(sid)); err != nil {
				return err
			}
			continue
		}
		if err := writeFlag(w, 0); err != nil {
			return err
		}
		if err := d.writeFullTx(w, tx); err != nil {
			return err
		}
	}
	return nil
}

// ReadTxRefSet reads a refset(S) of transaction hashes written by
// WriteTxRefSet.
func (d *Dictionary) ReadTxRefSet(r byteReader) (map[Hash]struct{}, error) {
	count, err := ReadVarint(r)
	if err != nil {
		return nil, err
	}
	out := make(map[Hash]struct{}, count)
	for i := uint64(0); i < count; i++ {
		flag, err := r.ReadByte()
		if err != nil {
			return nil, shortRead(err)
		}
		if flag != 0 {
			sid, err := ReadVarint(r)
			if err != nil {
				return nil, err
			}
			hash, ok := d.HashFor(SID(sid))
			if !ok {
				return nil, ErrUnknownSID
			}
			out[hash] = struct{}{}
			continue
		}
		tx, err := d.readFullTx(r)
		if err != nil {
			return nil, err
		}
		out[tx.Hash] = struct{}{}
	}
	return out, nil
}
