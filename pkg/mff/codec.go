package mff

import (
	"encoding/binary"
	"fmt"
	"io"
)

// byteReader is what ReadVarint needs: a plain reader plus ReadByte, which
// *bufio.Reader satisfies. Segment boundaries are crossed transparently by
// the caller's io.MultiReader, so this is the only reader type the codec
// ever sees.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// WriteUint32LE writes a fixed-width little-endian u32.
func WriteUint32LE(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteUint64LE writes a fixed-width little-endian u64.
func WriteUint64LE(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteVarint writes v as a self-delimiting varint (LEB128-style, via
// encoding/binary's Uvarint encoding).
func WriteVarint(w io.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

// WriteHash writes the raw 32 hash bytes with no length prefix.
func WriteHash(w io.Writer, h Hash) error {
	_, err := w.Write(h[:])
	return err
}

// WriteBytes writes a length-prefixed byte vector: varint(len) || bytes.
func WriteBytes(w io.Writer, b []byte) error {
	if err := WriteVarint(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadUint32LE reads a fixed-width little-endian u32.
func ReadUint32LE(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, shortRead(err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadUint64LE reads a fixed-width little-endian u64.
func ReadUint64LE(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, shortRead(err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// ReadVarint reads a self-delimiting varint written by WriteVarint.
func ReadVarint(r byteReader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, shortRead(err)
	}
	return v, nil
}

// ReadHash reads 32 raw hash bytes.
func ReadHash(r io.Reader) (Hash, error) {
	var h Hash
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return Hash{}, shortRead(err)
	}
	return h, nil
}

// ReadBytes reads a length-prefixed byte vector written by WriteBytes.
func ReadBytes(r byteReader) ([]byte, error) {
	n, err := ReadVarint(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, shortRead(err)
	}
	return buf, nil
}

// writeFlag writes a single per-element known/fresh flag byte, used by
// refset and nested outpoint encoding where no command-byte bit is
// available.
func writeFlag(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func shortRead(cause error) error {
	if cause == io.EOF || cause == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %v", ErrShortRead, cause)
	}
	return cause
}
