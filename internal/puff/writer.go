// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package puff implements byte-granular read and write access to the
// puff token stream: the byte-aligned, diffable restatement of a
// DEFLATE bit stream that the Puffer and Huffer state machines
// produce and consume.
package puff

import (
	"encoding/binary"

	"github.com/google/go-puffin/internal/perr"
)

// Block type tags, packed into bits 1-2 of a block marker byte.
const (
	BlockUncompressed = 0
	BlockFixed        = 1
	BlockDynamic      = 2
)

// CopyTag marks the start of a length/distance copy in a block body;
// a byte value in [1,128] is instead a literal-run length.
const CopyTag = 0

// EndOfBlockTag terminates a block's body in the puff stream: the
// byte immediately following the last literal run or copy of a
// block, distinguishable from CopyTag and every literal-run length
// since it falls outside [0,128].
const EndOfBlockTag = 255

// MaxLiteralRun is the longest run of literal bytes a single puff
// token can carry. Longer runs are split across multiple tokens.
const MaxLiteralRun = 128

// Writer appends puff-encoded bytes to a caller-owned buffer.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter returns a Writer that fills buf from the start.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int { return w.pos }

// Reserve returns the unwritten tail of the underlying buffer, for
// callers (the dynamic Huffman header codec) that write their own
// byte layout directly rather than through WriteByte/WriteBytes.
// Pair with Advance once the bytes have been filled in.
func (w *Writer) Reserve() []byte { return w.buf[w.pos:] }

// Advance commits n bytes previously filled in via the slice Reserve
// returned.
func (w *Writer) Advance(n int) error {
	if err := w.ensure(n); err != nil {
		return err
	}
	w.pos += n
	return nil
}

// Bytes returns the portion of the underlying buffer written so far.
func (w *Writer) Bytes() []byte { return w.buf[:w.pos] }

func (w *Writer) ensure(n int) error {
	if w.pos+n > len(w.buf) {
		return perr.New(perr.InsufficientOutput, int64(w.pos), 0, "puff buffer exhausted, need %d more bytes", n)
	}
	return nil
}

// WriteByte appends a single raw byte.
func (w *Writer) WriteByte(b byte) error {
	if err := w.ensure(1); err != nil {
		return err
	}
	w.buf[w.pos] = b
	w.pos++
	return nil
}

// WriteBytes appends p verbatim.
func (w *Writer) WriteBytes(p []byte) error {
	if err := w.ensure(len(p)); err != nil {
		return err
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return nil
}

// WriteBlockMarker appends the one-byte block header: bit 0 is the
// final-block flag, bits 1-2 are the block type.
func (w *Writer) WriteBlockMarker(final bool, blockType uint8) error {
	var b byte
	if final {
		b = 1
	}
	b |= blockType << 1
	return w.WriteByte(b)
}

// WriteUncompressedLength appends an uncompressed block's length as
// two little-endian bytes.
func (w *Writer) WriteUncompressedLength(n uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], n)
	return w.WriteBytes(b[:])
}

// WriteLiteralRun appends a run of 1..MaxLiteralRun literal bytes as
// a one-byte count followed by the bytes themselves. The count byte
// doubles as the copy/literal discriminator: CopyTag (0) can never be
// a valid run length.
func (w *Writer) WriteLiteralRun(data []byte) error {
	if len(data) == 0 || len(data) > MaxLiteralRun {
		return perr.New(perr.InvalidInput, int64(w.pos), 0, "literal run length %d out of range", len(data))
	}
	if err := w.WriteByte(byte(len(data))); err != nil {
		return err
	}
	return w.WriteBytes(data)
}

// WriteEndOfBlock appends the block-body terminator.
func (w *Writer) WriteEndOfBlock() error {
	return w.WriteByte(EndOfBlockTag)
}

// WriteCopy appends a length/distance copy: the copy tag, the length
// (biased by 3, fitting the full [3,258] range in one byte), and the
// distance (biased by 1, varint-encoded to cover the full [1,32768]
// range compactly).
func (w *Writer) WriteCopy(length, distance uint16) error {
	if length < 3 || length > 258 {
		return perr.New(perr.InvalidInput, int64(w.pos), 0, "copy length %d out of range", length)
	}
	if distance < 1 || distance > 32768 {
		return perr.New(perr.InvalidInput, int64(w.pos), 0, "copy distance %d out of range", distance)
	}
	if err := w.WriteByte(CopyTag); err != nil {
		return err
	}
	if err := w.WriteByte(byte(length - 3)); err != nil {
		return err
	}
	var varintBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(varintBuf[:], uint64(distance-1))
	return w.WriteBytes(varintBuf[:n])
}
