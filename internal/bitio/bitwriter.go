// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package bitio

import "github.com/google/go-puffin/internal/perr"

// Writer packs bits LSB-first into a caller-owned output buffer. It
// never grows the buffer; once it is exhausted, every subsequent
// write fails with InsufficientOutput.
type Writer struct {
	buf   []byte
	pos   int    // index of the next byte to flush into
	cache uint64 // bits not yet flushed to buf, LSB-first
	nbits uint   // number of valid bits in cache
}

// NewWriter wraps buf for bit-granular writing starting at its first byte.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// WriteBits packs the low n bits of value into the stream, LSB-first.
func (w *Writer) WriteBits(n uint, value uint32) error {
	w.cache |= uint64(value&(uint32(1)<<n-1)) << w.nbits
	w.nbits += n
	for w.nbits >= 8 {
		if w.pos >= len(w.buf) {
			return perr.New(perr.InsufficientOutput, int64(w.pos), 0, "no room for another byte")
		}
		w.buf[w.pos] = byte(w.cache)
		w.pos++
		w.cache >>= 8
		w.nbits -= 8
	}
	return nil
}

// WriteBoundaryBits pads the current byte to alignment with the low
// bits of value (conventionally zero).
func (w *Writer) WriteBoundaryBits(value uint32) error {
	if pad := (8 - w.nbits%8) % 8; pad != 0 {
		return w.WriteBits(pad, value)
	}
	return nil
}

// WriteBytes emits n raw bytes; the writer must be byte-aligned.
func (w *Writer) WriteBytes(p []byte) error {
	if w.nbits%8 != 0 {
		return perr.New(perr.InvalidInput, int64(w.pos), w.nbits%8, "WriteBytes called while not byte-aligned")
	}
	if w.pos+len(p) > len(w.buf) {
		return perr.New(perr.InsufficientOutput, int64(w.pos), 0, "need %d raw bytes, have %d", len(p), len(w.buf)-w.pos)
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return nil
}

// Offset returns the index of the next byte to be flushed.
func (w *Writer) Offset() int64 {
	return int64(w.pos)
}

// Flush pads any partial trailing byte with zero bits and writes it
// out, returning the total number of bytes written.
func (w *Writer) Flush() (int, error) {
	if w.nbits > 0 {
		if err := w.WriteBoundaryBits(0); err != nil {
			return w.pos, err
		}
	}
	return w.pos, nil
}
