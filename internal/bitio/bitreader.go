// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package bitio provides LSB-first bit-granular readers and writers
// over in-memory byte buffers, the building block every other puffin
// component is layered on. The split peek/drop shape of BitReader
// mirrors the teacher's compress/flate decompressor, which keeps a
// bit register (b, nb) and only commits a read once the Huffman
// lookup has told it how many bits the code actually consumed.
package bitio

import "github.com/google/go-puffin/internal/perr"

// maxCacheBits is the most bits CacheBits will ever be asked to hold
// at once; it bounds the width of the cache register.
const maxCacheBits = 32

// Reader reads bits LSB-first out of an in-memory buffer.
//
// Callers must CacheBits(n) before ReadBits(n); ReadBits never
// triggers a load itself. DropBits then commits however many of
// those bits were actually consumed (which may be less than n, as
// when peeking ahead to decide a Huffman code's length).
type Reader struct {
	buf    []byte
	pos    int    // index of the next unread byte in buf
	cache  uint64 // bits already pulled out of buf, LSB-first
	nbits  uint   // number of valid bits in cache
}

// NewReader wraps buf for bit-granular reading starting at its first byte.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// CacheBits ensures at least n bits (n <= 32) are available to
// ReadBits, pulling whole bytes out of the underlying buffer as
// needed. It fails with InsufficientInput if the buffer runs dry
// first.
func (r *Reader) CacheBits(n uint) error {
	if n > maxCacheBits {
		return perr.New(perr.InvalidInput, int64(r.pos), 0, "cannot cache %d bits at once", n)
	}
	for r.nbits < n {
		if r.pos >= len(r.buf) {
			return perr.New(perr.InsufficientInput, int64(r.pos), 0, "need %d bits, have %d", n, r.nbits)
		}
		r.cache |= uint64(r.buf[r.pos]) << r.nbits
		r.pos++
		r.nbits += 8
	}
	return nil
}

// ReadBits returns the next n cached bits as an unsigned integer,
// without advancing. The caller must have called CacheBits(n) (or
// more) first.
func (r *Reader) ReadBits(n uint) uint32 {
	return uint32(r.cache & (uint64(1)<<n - 1))
}

// DropBits advances past n bits previously returned by ReadBits.
func (r *Reader) DropBits(n uint) {
	r.cache >>= n
	r.nbits -= n
}

// ReadBoundaryBits returns the bits, if any, needed to reach the
// next byte boundary, without advancing.
func (r *Reader) ReadBoundaryBits() uint32 {
	n := r.nbits % 8
	return r.ReadBits(n)
}

// SkipBoundaryBits consumes the sub-byte padding bits returned by a
// preceding ReadBoundaryBits, leaving the reader byte-aligned.
func (r *Reader) SkipBoundaryBits() {
	r.DropBits(r.nbits % 8)
}

// Offset returns the index of the byte in the underlying buffer that
// holds the next unread bit. Once the reader is byte-aligned
// (immediately after SkipBoundaryBits, or before any bits have been
// cached) that is the next unread byte.
func (r *Reader) Offset() int64 {
	return int64(r.pos) - int64((r.nbits+7)/8)
}

// BitOffset returns the position (0..7) of the next unread bit within
// the byte at Offset(), used to annotate errors and checkpoints.
func (r *Reader) BitOffset() uint {
	return (8 - r.nbits%8) % 8
}

// AtEnd reports whether every bit of the underlying buffer has been
// consumed, with nothing left cached. Used by the puffer to detect
// concatenated DEFLATE streams: after a final block, any remaining
// bytes start another logical stream.
func (r *Reader) AtEnd() bool {
	return r.nbits == 0 && r.pos >= len(r.buf)
}

// ReadBytes copies the next n raw bytes (the reader must be
// byte-aligned) into a fresh slice, advancing past them.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if r.nbits%8 != 0 {
		return nil, perr.New(perr.InvalidInput, int64(r.pos), r.nbits%8, "ReadBytes called while not byte-aligned")
	}
	start := r.pos - int(r.nbits/8)
	if start+n > len(r.buf) {
		return nil, perr.New(perr.InsufficientInput, int64(start), 0, "need %d raw bytes, have %d", n, len(r.buf)-start)
	}
	out := make([]byte, n)
	copy(out, r.buf[start:start+n])
	r.pos = start + n
	r.cache = 0
	r.nbits = 0
	return out, nil
}
