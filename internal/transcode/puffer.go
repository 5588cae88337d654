// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package transcode implements the two halves of the bidirectional
// DEFLATE<->puff transcoder: Puffer walks a DEFLATE bit stream and
// re-emits it as puff tokens, Huffer is its strict inverse.
package transcode

import (
	"github.com/google/go-puffin/internal/bitio"
	"github.com/google/go-puffin/internal/huffman"
	"github.com/google/go-puffin/internal/perr"
	"github.com/google/go-puffin/internal/puff"
)

// reservedBlockType is DEFLATE's undefined third block type.
const reservedBlockType = 3

// Puff transcodes a DEFLATE byte sequence into its puff restatement,
// returning the number of puff bytes written. Multiple concatenated
// DEFLATE streams (each byte-aligned at its end) are all consumed,
// producing one block-marker sequence per stream.
func Puff(deflate []byte, puffOut []byte) (int, error) {
	br := bitio.NewReader(deflate)
	pw := puff.NewWriter(puffOut)

	for !br.AtEnd() {
		final, err := puffBlock(br, pw)
		if err != nil {
			return pw.Offset(), err
		}
		if final {
			br.SkipBoundaryBits()
		}
	}
	return pw.Offset(), nil
}

// puffBlock transcodes a single DEFLATE block, returning whether it
// was marked final.
func puffBlock(br *bitio.Reader, pw *puff.Writer) (final bool, err error) {
	if err := br.CacheBits(3); err != nil {
		return false, err
	}
	header := br.ReadBits(3)
	br.DropBits(3)
	final = header&1 != 0
	blockType := uint8((header >> 1) & 0x3)

	if err := pw.WriteBlockMarker(final, blockType); err != nil {
		return false, err
	}

	switch blockType {
	case puff.BlockUncompressed:
		return final, puffUncompressedBlock(br, pw)
	case puff.BlockFixed:
		litFwd, distFwd, err := huffman.FixedForwardTables()
		if err != nil {
			return false, err
		}
		return final, puffBlockBody(br, pw, litFwd, distFwd)
	case puff.BlockDynamic:
		return final, puffDynamicBlock(br, pw)
	default:
		return false, perr.New(perr.InvalidInput, br.Offset(), br.BitOffset(), "reserved block type %d", reservedBlockType)
	}
}

func puffUncompressedBlock(br *bitio.Reader, pw *puff.Writer) error {
	br.SkipBoundaryBits()
	header, err := br.ReadBytes(4)
	if err != nil {
		return err
	}
	length := uint16(header[0]) | uint16(header[1])<<8
	nlength := uint16(header[2]) | uint16(header[3])<<8
	if length != ^nlength {
		return perr.New(perr.InvalidInput, br.Offset(), 0, "uncompressed block LEN %#x != ~NLEN %#x", length, nlength)
	}
	if err := pw.WriteUncompressedLength(length); err != nil {
		return err
	}
	data, err := br.ReadBytes(int(length))
	if err != nil {
		return err
	}
	return pw.WriteBytes(data)
}

func puffDynamicBlock(br *bitio.Reader, pw *puff.Writer) error {
	written, litLenLens, distLens, err := huffman.DecodeDynamicHeader(br, pw.Reserve())
	if err != nil {
		return err
	}
	if err := pw.Advance(written); err != nil {
		return err
	}

	litFwd, err := huffman.BuildForwardTable(litLenLens)
	if err != nil {
		return err
	}
	distFwd, err := huffman.BuildForwardTable(distLens)
	if err != nil {
		return err
	}
	return puffBlockBody(br, pw, litFwd, distFwd)
}

// puffBlockBody decodes literal/length/distance symbols until the
// end-of-block symbol, batching consecutive literals into runs of up
// to puff.MaxLiteralRun bytes.
func puffBlockBody(br *bitio.Reader, pw *puff.Writer, litFwd, distFwd *huffman.ForwardTable) error {
	var run []byte
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		if err := pw.WriteLiteralRun(run); err != nil {
			return err
		}
		run = run[:0]
		return nil
	}

	for {
		if err := br.CacheBits(litFwd.MaxBits); err != nil {
			return err
		}
		symbol, nbits, err := litFwd.Decode(br.ReadBits(litFwd.MaxBits))
		if err != nil {
			return err
		}
		br.DropBits(nbits)

		switch {
		case symbol < huffman.EndOfBlock:
			run = append(run, byte(symbol))
			if len(run) == puff.MaxLiteralRun {
				if err := flush(); err != nil {
					return err
				}
			}
		case symbol == huffman.EndOfBlock:
			if err := flush(); err != nil {
				return err
			}
			return pw.WriteEndOfBlock()
		case int(symbol)-257 < huffman.NumLengthSymbols:
			length, distance, err := decodeLengthDistance(br, distFwd, symbol)
			if err != nil {
				return err
			}
			if err := flush(); err != nil {
				return err
			}
			if err := pw.WriteCopy(length, distance); err != nil {
				return err
			}
		default:
			return perr.New(perr.InvalidInput, br.Offset(), br.BitOffset(), "reserved literal/length symbol %d", symbol)
		}
	}
}

func decodeLengthDistance(br *bitio.Reader, distFwd *huffman.ForwardTable, lengthSymbol uint16) (length, distance uint16, err error) {
	idx := int(lengthSymbol) - 257
	extraBits := uint(huffman.LengthExtraBits(idx))
	if err := br.CacheBits(extraBits); err != nil {
		return 0, 0, err
	}
	extra := br.ReadBits(extraBits)
	br.DropBits(extraBits)
	length = huffman.LengthBase(idx) + uint16(extra)

	if err := br.CacheBits(distFwd.MaxBits); err != nil {
		return 0, 0, err
	}
	distSymbol, distNbits, err := distFwd.Decode(br.ReadBits(distFwd.MaxBits))
	if err != nil {
		return 0, 0, err
	}
	br.DropBits(distNbits)

	distExtraBits := uint(huffman.DistanceExtraBits(int(distSymbol)))
	if err := br.CacheBits(distExtraBits); err != nil {
		return 0, 0, err
	}
	distExtra := br.ReadBits(distExtraBits)
	br.DropBits(distExtraBits)
	distance = huffman.DistanceBase(int(distSymbol)) + uint16(distExtra)

	return length, distance, nil
}
