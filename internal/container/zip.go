// Copyright Elliot Nunn. Portions copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package container

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	zipMethodStored  = 0
	zipMethodDeflate = 8
)

// LocateZipStreams reads a ZIP archive's central directory and
// returns the byte extent of every member compressed with DEFLATE
// (method 8). Stored members (method 0) carry no DEFLATE payload and
// are skipped; any other method is reported via ErrUnsupportedMethod
// rather than silently dropped, since puffin cannot make a patch
// smaller for data it cannot see inside.
func LocateZipStreams(r io.ReaderAt, size int64) ([]Extent, error) {
	eocd, eocdOffset, err := getEOCD(r, size)
	if err != nil {
		return nil, err
	}

	thisDisk := uint32(binary.LittleEndian.Uint16(eocd[4:]))
	centralDisk := uint32(binary.LittleEndian.Uint16(eocd[6:]))
	centralSize := int64(binary.LittleEndian.Uint32(eocd[12:]))
	centralOffset := int64(binary.LittleEndian.Uint32(eocd[16:]))
	recordsTotal := uint64(binary.LittleEndian.Uint16(eocd[10:]))

	sixtyFour := recordsTotal == 0xffff || centralSize == 0xffff || centralOffset == 0xffffffff
	if sixtyFour {
		locator := make([]byte, 20)
		if _, err := r.ReadAt(locator, eocdOffset-20); err != nil {
			return nil, fmt.Errorf("%w: reading ZIP64 EOCD locator: %v", ErrFormat, err)
		}
		if string(locator[:4]) != "PK\x06\x07" {
			return nil, fmt.Errorf("%w: missing ZIP64 EOCD locator signature", ErrFormat)
		}
		eocd64Disk := binary.LittleEndian.Uint32(locator[4:])
		eocd64Offset := int64(binary.LittleEndian.Uint64(locator[8:]))
		totalDisks := binary.LittleEndian.Uint32(locator[16:])
		if eocd64Disk != 0 || totalDisks != 1 {
			return nil, fmt.Errorf("%w: spanned archives not supported", ErrFormat)
		}

		eocd64 := make([]byte, 56)
		if _, err := r.ReadAt(eocd64, eocd64Offset); err != nil {
			return nil, fmt.Errorf("%w: reading ZIP64 EOCD record: %v", ErrFormat, err)
		}
		if string(eocd64[:4]) != "PK\x06\x06" {
			return nil, fmt.Errorf("%w: missing ZIP64 EOCD record signature", ErrFormat)
		}
		thisDisk = binary.LittleEndian.Uint32(eocd64[16:])
		centralDisk = binary.LittleEndian.Uint32(eocd64[20:])
		centralSize = int64(binary.LittleEndian.Uint64(eocd64[40:]))
		centralOffset = int64(binary.LittleEndian.Uint64(eocd64[48:]))
		eocdOffset = eocd64Offset
	}
	if thisDisk != 0 || centralDisk != 0 {
		return nil, fmt.Errorf("%w: spanned archives not supported", ErrFormat)
	}

	// Correct for ZIP data that was carelessly appended after leading
	// non-ZIP bytes: the creator's recorded offsets are relative to
	// the start of its own view of the file.
	baseCorrection := eocdOffset - centralSize - centralOffset
	if centralOffset > eocdOffset {
		return nil, fmt.Errorf("%w: central directory offset past EOCD", ErrFormat)
	}

	dir := make([]byte, eocdOffset-centralOffset)
	if _, err := r.ReadAt(dir, baseCorrection+centralOffset); err != nil {
		return nil, fmt.Errorf("%w: reading central directory: %v", ErrFormat, err)
	}

	var extents []Extent
	for len(dir) >= 46 && string(dir[:4]) == "PK\x01\x02" {
		method := binary.LittleEndian.Uint16(dir[10:])
		packed := int64(binary.LittleEndian.Uint32(dir[20:]))
		unpacked := int64(binary.LittleEndian.Uint32(dir[24:]))
		namelen := int(binary.LittleEndian.Uint16(dir[28:]))
		extralen := int(binary.LittleEndian.Uint16(dir[30:]))
		commentlen := int(binary.LittleEndian.Uint16(dir[32:]))
		loc := int64(binary.LittleEndian.Uint32(dir[42:]))

		if len(dir) < 46+namelen+extralen+commentlen {
			return nil, fmt.Errorf("%w: truncated central directory entry", ErrFormat)
		}
		extra := dir[46+namelen : 46+namelen+extralen]
		dir = dir[46+namelen+extralen+commentlen:]

		if sixtyFour {
			// ZIP64 extra packs, in order, only the fields whose
			// 32-bit central-directory counterpart was the escape
			// value 0xffffffff: uncompressed size, compressed size,
			// then local header offset.
			fields := parseZip64Extra(extra)
			for _, escapedField := range []*int64{&unpacked, &packed, &loc} {
				if *escapedField == 0xffffffff && len(fields) >= 8 {
					*escapedField = int64(binary.LittleEndian.Uint64(fields))
					fields = fields[8:]
				}
			}
		}

		switch method {
		case zipMethodStored:
			// No DEFLATE payload to locate.
		case zipMethodDeflate:
			dataOffset, err := localFileDataOffset(r, baseCorrection+loc)
			if err != nil {
				return nil, err
			}
			extents = append(extents, Extent{
				CompressedOffset:   dataOffset,
				CompressedLength:   packed,
				UncompressedLength: unpacked,
			})
		default:
			return nil, fmt.Errorf("%w: ZIP method %d", ErrUnsupportedMethod, method)
		}
	}
	return extents, nil
}

// parseZip64Extra returns the payload of extra field 0x0001, which
// packs uncompressed size, compressed size, and local header offset
// (each present only if its 32-bit central-directory counterpart was
// the ZIP64 escape value 0xffffffff).
func parseZip64Extra(extra []byte) []byte {
	for len(extra) >= 4 {
		kind := binary.LittleEndian.Uint16(extra)
		size := int(binary.LittleEndian.Uint16(extra[2:]))
		if len(extra) < 4+size {
			break
		}
		if kind == 1 {
			return extra[4 : 4+size]
		}
		extra = extra[4+size:]
	}
	return nil
}

// localFileDataOffset reads a member's local file header to find
// where its compressed data actually begins, skipping the filename
// and extra fields it repeats from the central directory.
func localFileDataOffset(r io.ReaderAt, headerOffset int64) (int64, error) {
	buf := make([]byte, 30)
	if _, err := r.ReadAt(buf, headerOffset); err != nil {
		return 0, fmt.Errorf("%w: reading local file header at %d: %v", ErrFormat, headerOffset, err)
	}
	if string(buf[:4]) != "PK\x03\x04" {
		return 0, fmt.Errorf("%w: missing local file header signature at %d", ErrFormat, headerOffset)
	}
	namelen := int64(binary.LittleEndian.Uint16(buf[26:]))
	extralen := int64(binary.LittleEndian.Uint16(buf[28:]))
	return headerOffset + 30 + namelen + extralen, nil
}

// getEOCD locates the End Of Central Directory record, scanning
// backward from the end of the file through an optional zip comment
// of up to 65535 bytes.
func getEOCD(r io.ReaderAt, size int64) (record []byte, offset int64, err error) {
	if size < 22 {
		return nil, 0, fmt.Errorf("%w: file too small to be a ZIP", ErrFormat)
	}
	maxComment := int64(65535)
	if maxComment > size-22 {
		maxComment = size - 22
	}
	window := make([]byte, 22+maxComment)
	if _, err := r.ReadAt(window, size-int64(len(window))); err != nil {
		return nil, 0, fmt.Errorf("%w: reading EOCD search window: %v", ErrFormat, err)
	}
	for i := len(window) - 22; i >= 0; i-- {
		if string(window[i:i+4]) == "PK\x05\x06" {
			commentLen := int(binary.LittleEndian.Uint16(window[i+20:]))
			if i+22+commentLen == len(window) {
				start := size - int64(len(window)) + int64(i)
				return window[i:], start, nil
			}
		}
	}
	return nil, 0, fmt.Errorf("%w: missing EOCD record", ErrFormat)
}
