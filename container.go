// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package puffin

import (
	"io"

	"github.com/google/go-puffin/internal/container"
)

// Extent is one DEFLATE-compressed byte range inside a container,
// alongside the uncompressed range it expands to. It's the type
// LocateGzipStreams, LocateZipStreams, and LocateDeflateBlocks return
// and NewPuffinStream consumes.
type Extent = container.Extent

// Checkpoint marks the start of a DEFLATE block, as found by
// LocateDeflateBlocks.
type Checkpoint = container.Checkpoint

// ErrUnsupportedMethod is returned when a ZIP member uses a
// compression method other than stored or deflate.
var ErrUnsupportedMethod = container.ErrUnsupportedMethod

// ErrFormat is returned when a container's framing cannot be parsed.
var ErrFormat = container.ErrFormat

// LocateGzipStreams walks every gzip member in r (RFC 1952 allows
// concatenation) and returns the byte extent of each member's DEFLATE
// payload.
func LocateGzipStreams(r io.ReaderAt, size int64) ([]Extent, error) {
	return container.LocateGzipStreams(r, size)
}

// LocateZipStreams reads a ZIP archive's central directory and
// returns the byte extent of every member compressed with DEFLATE.
func LocateZipStreams(r io.ReaderAt, size int64) ([]Extent, error) {
	return container.LocateZipStreams(r, size)
}

// LocateDeflateBlocks walks every block header in a single DEFLATE
// stream, returning the number of bytes the stream occupies. If
// checkpoints is non-nil, one Checkpoint is appended per block.
func LocateDeflateBlocks(deflate []byte, checkpoints *[]Checkpoint) (consumed int, err error) {
	return container.LocateDeflateBlocks(deflate, checkpoints)
}
