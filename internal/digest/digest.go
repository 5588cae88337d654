// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package digest computes the content and identity hashes PuffinStream
// uses to key its decoded-block cache and to check a cache hit against
// the bytes last puffed. Extent identifies a byte range by offset and
// length only; it carries no identity of the container itself.
package digest

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Content returns a 64-bit digest of decoded block bytes.
func Content(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// Extent returns a 64-bit identity for one compressed byte range
// within a container, combining its offset and length the same way
// fileid combines an inode number with a creation time: fields that
// are individually cheap to collide on, hashed together so their
// combination isn't.
func Extent(compressedOffset, compressedLength int64) uint64 {
	var h xxhash.Digest
	binary.Write(&h, binary.BigEndian, compressedOffset)
	binary.Write(&h, binary.BigEndian, compressedLength)
	return h.Sum64()
}
