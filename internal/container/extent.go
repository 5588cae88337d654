// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package container locates DEFLATE byte ranges inside gzip and ZIP
// archives (and, within a single DEFLATE stream, the block
// boundaries themselves) so the transcoder and PuffinStream never
// need to understand container framing.
package container

import "errors"

// Extent is one DEFLATE-compressed byte range inside a container,
// alongside the uncompressed range it expands to. PuffinStream uses
// only the compressed fields: it addresses puff-space (each extent's
// puffed bytes, in extent order) and puffs whichever Extent covers a
// read.
type Extent struct {
	CompressedOffset   int64
	CompressedLength   int64
	UncompressedOffset int64
	UncompressedLength int64 // 0 if unknown ahead of decompression
}

// ErrUnsupportedMethod is returned when a ZIP member uses a
// compression method other than stored or deflate.
var ErrUnsupportedMethod = errors.New("container: unsupported compression method")

// ErrFormat is returned when a container's framing cannot be parsed.
var ErrFormat = errors.New("container: not a recognized archive")
