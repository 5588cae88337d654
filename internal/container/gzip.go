// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package container

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	gzipMagic0        = 0x1f
	gzipMagic1        = 0x8b
	gzipDeflateMethod = 8

	flagText    = 1 << 0
	flagHCRC    = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

// LocateGzipStreams walks every gzip member in r (RFC 1952 allows
// concatenation) and returns the byte extent of each member's DEFLATE
// payload. UncompressedLength is filled in from the member's trailing
// ISIZE field (mod 2^32, per the format).
func LocateGzipStreams(r io.ReaderAt, size int64) ([]Extent, error) {
	var extents []Extent
	offset := int64(0)
	for offset < size {
		header := make([]byte, 10)
		if _, err := r.ReadAt(header, offset); err != nil {
			return nil, fmt.Errorf("%w: reading gzip header at %d: %v", ErrFormat, offset, err)
		}
		if header[0] != gzipMagic0 || header[1] != gzipMagic1 {
			return nil, fmt.Errorf("%w: bad gzip magic at offset %d", ErrFormat, offset)
		}
		if header[2] != gzipDeflateMethod {
			return nil, fmt.Errorf("%w: gzip compression method %d", ErrUnsupportedMethod, header[2])
		}
		flags := header[3]
		pos := offset + 10

		if flags&flagExtra != 0 {
			var xlen [2]byte
			if _, err := r.ReadAt(xlen[:], pos); err != nil {
				return nil, fmt.Errorf("%w: reading FEXTRA length at %d: %v", ErrFormat, pos, err)
			}
			pos += 2 + int64(binary.LittleEndian.Uint16(xlen[:]))
		}
		if flags&flagName != 0 {
			var err error
			pos, err = skipNulTerminated(r, pos, size)
			if err != nil {
				return nil, err
			}
		}
		if flags&flagComment != 0 {
			var err error
			pos, err = skipNulTerminated(r, pos, size)
			if err != nil {
				return nil, err
			}
		}
		if flags&flagHCRC != 0 {
			pos += 2
		}

		if size-pos < 8 {
			return nil, fmt.Errorf("%w: gzip member at %d has no room for a trailer", ErrFormat, offset)
		}

		payloadStart := pos
		payloadEnd, isize, err := deflatePayloadEnd(r, payloadStart, size)
		if err != nil {
			return nil, err
		}

		extents = append(extents, Extent{
			CompressedOffset:   payloadStart,
			CompressedLength:   payloadEnd - payloadStart,
			UncompressedOffset: 0,
			UncompressedLength: int64(isize),
		})

		if payloadEnd+8 > size {
			return nil, fmt.Errorf("%w: gzip member at %d missing CRC32/ISIZE trailer", ErrFormat, offset)
		}
		var trailerBuf [8]byte
		if _, err := r.ReadAt(trailerBuf[:], payloadEnd); err != nil {
			return nil, fmt.Errorf("%w: reading gzip trailer at %d: %v", ErrFormat, payloadEnd, err)
		}
		offset = payloadEnd + 8
	}
	return extents, nil
}

func skipNulTerminated(r io.ReaderAt, pos, size int64) (int64, error) {
	buf := make([]byte, 1)
	for pos < size {
		if _, err := r.ReadAt(buf, pos); err != nil {
			return 0, fmt.Errorf("%w: scanning NUL-terminated field at %d: %v", ErrFormat, pos, err)
		}
		pos++
		if buf[0] == 0 {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("%w: unterminated field starting before %d", ErrFormat, pos)
}

// deflatePayloadEnd locates the end of the raw DEFLATE stream starting
// at payloadStart by walking its block headers (LocateDeflateBlocks),
// then reads the ISIZE trailing the stream's 8-byte trailer.
func deflatePayloadEnd(r io.ReaderAt, payloadStart, size int64) (end int64, isize uint32, err error) {
	// The DEFLATE payload can't extend past the rest of the file, so
	// reading exactly that much guarantees the block walk below never
	// runs out of buffer before it reaches the final block.
	buf := make([]byte, size-payloadStart)
	n, rerr := r.ReadAt(buf, payloadStart)
	if n == 0 && rerr != nil {
		return 0, 0, fmt.Errorf("%w: reading DEFLATE payload at %d: %v", ErrFormat, payloadStart, rerr)
	}
	buf = buf[:n]

	consumed, err := LocateDeflateBlocks(buf, nil)
	if err != nil {
		return 0, 0, err
	}
	end = payloadStart + int64(consumed)

	var isizeBuf [4]byte
	if _, err := r.ReadAt(isizeBuf[:], end+4); err != nil {
		return 0, 0, fmt.Errorf("%w: reading ISIZE at %d: %v", ErrFormat, end+4, err)
	}
	isize = binary.LittleEndian.Uint32(isizeBuf[:])
	return end, isize, nil
}
