// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package puff

import (
	"encoding/binary"

	"github.com/google/go-puffin/internal/perr"
)

// Reader consumes puff-encoded bytes from a caller-owned buffer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.pos }

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Peek returns the unconsumed tail of the underlying buffer without
// advancing, for callers (the dynamic Huffman header codec) that
// parse their own byte layout directly. Pair with Advance once the
// bytes have been consumed.
func (r *Reader) Peek() []byte { return r.buf[r.pos:] }

// Advance commits n bytes previously parsed via the slice Peek
// returned.
func (r *Reader) Advance(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return perr.New(perr.InsufficientInput, int64(r.pos), 0, "puff buffer exhausted, need %d more bytes", n)
	}
	return nil
}

// ReadByte consumes and returns a single raw byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes consumes and returns the next n raw bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadBlockMarker consumes the one-byte block header.
func (r *Reader) ReadBlockMarker() (final bool, blockType uint8, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, 0, err
	}
	return b&1 != 0, (b >> 1) & 0x3, nil
}

// ReadUncompressedLength consumes an uncompressed block's
// little-endian length.
func (r *Reader) ReadUncompressedLength() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// PeekTag returns the next byte without consuming it, distinguishing
// a literal-run length (1..MaxLiteralRun) from a copy marker (0).
func (r *Reader) PeekTag() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	return r.buf[r.pos], nil
}

// ReadLiteralRun consumes a literal-run count byte plus that many raw
// bytes. Call PeekTag first to confirm the next token is a literal run.
func (r *Reader) ReadLiteralRun() ([]byte, error) {
	count, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if count == CopyTag || int(count) > MaxLiteralRun {
		return nil, perr.New(perr.InvalidInput, int64(r.pos)-1, 0, "literal run length %d out of range", count)
	}
	return r.ReadBytes(int(count))
}

// ReadEndOfBlock consumes the block-body terminator. Call PeekTag
// first to confirm the next byte is EndOfBlockTag.
func (r *Reader) ReadEndOfBlock() error {
	tag, err := r.ReadByte()
	if err != nil {
		return err
	}
	if tag != EndOfBlockTag {
		return perr.New(perr.InvalidInput, int64(r.pos)-1, 0, "expected end-of-block tag, got %d", tag)
	}
	return nil
}

// ReadCopy consumes a copy token: the copy tag (already confirmed by
// the caller via PeekTag), the biased length byte, and the varint
// biased distance.
func (r *Reader) ReadCopy() (length, distance uint16, err error) {
	tag, err := r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	if tag != CopyTag {
		return 0, 0, perr.New(perr.InvalidInput, int64(r.pos)-1, 0, "expected copy tag, got %d", tag)
	}
	lb, err := r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	length = uint16(lb) + 3

	dv, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, 0, perr.New(perr.InsufficientInput, int64(r.pos), 0, "truncated copy distance varint")
	}
	r.pos += n
	distance = uint16(dv + 1)
	return length, distance, nil
}
