// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package puffin transcodes between RFC 1951 DEFLATE bit streams and
// puff, a byte-aligned restatement of the same stream that is cheap
// to diff and patch. Puffing and then huffing back reproduces the
// original DEFLATE bytes exactly, including any sub-byte padding.
package puffin

import (
	"fmt"
	"io"

	"github.com/google/go-puffin/internal/transcode"
)

// Puff transforms a DEFLATE byte sequence into its puff representation,
// writing into out and returning the number of bytes written.
func Puff(deflate []byte, out []byte) (n int, err error) {
	return transcode.Puff(deflate, out)
}

// Huff transforms a puff byte sequence back into the DEFLATE bytes it
// was puffed from, writing into out and returning the number of bytes
// written.
func Huff(puff []byte, out []byte) (n int, err error) {
	return transcode.Huff(puff, out)
}

// readChunk is the growth increment used while buffering an io.Reader
// of unknown length in PuffStream/HuffStream.
const readChunk = 1 << 20

// outputHeadroom bounds the scratch buffer PuffStream/HuffStream
// allocate for transcoder output, sized generously above the input
// length: a literal run's one-byte count adds at most 1/128 overhead
// on the puff side, and a dynamic header's code-length expansion adds
// a comparable constant amount on the DEFLATE side.
const outputHeadroom = 2

// PuffStream reads all of r, puffs it, and writes the result to w. A
// DEFLATE bit stream has no byte-level resync points below a whole
// block boundary, so unlike a typical streaming transform this
// necessarily buffers r in full before producing any output; this is
// the right tradeoff for puffin's patch-making inputs, which are
// bounded artifacts rather than an unbounded firehose. It returns the
// number of bytes read from r.
func PuffStream(r io.Reader, w io.Writer) (n int64, err error) {
	return transcodeStream(r, w, Puff)
}

// HuffStream is PuffStream's inverse: it reads all of r (puff bytes),
// huffs it, and writes the resulting DEFLATE bytes to w.
func HuffStream(r io.Reader, w io.Writer) (n int64, err error) {
	return transcodeStream(r, w, Huff)
}

func transcodeStream(r io.Reader, w io.Writer, step func([]byte, []byte) (int, error)) (int64, error) {
	in, err := readAll(r)
	if err != nil {
		return 0, err
	}

	out := make([]byte, len(in)*outputHeadroom+64)
	nw, err := step(in, out)
	if err != nil {
		return int64(len(in)), fmt.Errorf("puffin: transcoding %d-byte input: %w", len(in), err)
	}
	if _, err := w.Write(out[:nw]); err != nil {
		return int64(len(in)), err
	}
	return int64(len(in)), nil
}

// readAll buffers r to completion in readChunk-sized increments, the
// same chunked-growth idiom the teacher's resumable DEFLATE reader
// uses for its own buffering.
func readAll(r io.Reader) ([]byte, error) {
	buf := make([]byte, 0, readChunk)
	for {
		if len(buf) == cap(buf) {
			buf = append(buf, 0)[:len(buf)]
		}
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if err != nil {
			if err == io.EOF {
				return buf, nil
			}
			return buf, err
		}
	}
}
