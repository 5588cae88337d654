// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package container

import (
	"github.com/google/go-puffin/internal/bitio"
	"github.com/google/go-puffin/internal/huffman"
	"github.com/google/go-puffin/internal/perr"
)

// Checkpoint marks the start of a DEFLATE block: the bit position at
// which it begins and the uncompressed byte offset its first output
// byte lands at. PuffinStream uses a sparse table of these to seek
// into the middle of a large DEFLATE region without re-decoding from
// the start.
type Checkpoint struct {
	ByteOffset         int64
	BitOffset          uint
	UncompressedOffset int64
}

// LocateDeflateBlocks walks every block header in a single DEFLATE
// stream (stopping at the first final block) without puffing its
// body, returning the number of bytes the stream occupies. If
// checkpoints is non-nil, one Checkpoint is appended per block,
// letting a caller later resume decoding from any block boundary
// instead of only from the start of the stream.
func LocateDeflateBlocks(deflate []byte, checkpoints *[]Checkpoint) (consumed int, err error) {
	br := bitio.NewReader(deflate)
	var uncompressedOffset int64

	for {
		blockByteOffset, blockBitOffset := br.Offset(), br.BitOffset()
		if checkpoints != nil {
			*checkpoints = append(*checkpoints, Checkpoint{
				ByteOffset:         blockByteOffset,
				BitOffset:          blockBitOffset,
				UncompressedOffset: uncompressedOffset,
			})
		}

		if err := br.CacheBits(3); err != nil {
			return 0, err
		}
		header := br.ReadBits(3)
		br.DropBits(3)
		final := header&1 != 0
		blockType := uint8((header >> 1) & 0x3)

		switch blockType {
		case 0: // uncompressed
			br.SkipBoundaryBits()
			lenBytes, err := br.ReadBytes(4)
			if err != nil {
				return 0, err
			}
			length := int64(lenBytes[0]) | int64(lenBytes[1])<<8
			nlength := int64(lenBytes[2]) | int64(lenBytes[3])<<8
			if length != nlength^0xFFFF {
				return 0, perr.New(perr.InvalidInput, br.Offset(), 0, "uncompressed block LEN %#x != ~NLEN %#x", length, nlength)
			}
			if _, err := br.ReadBytes(int(length)); err != nil {
				return 0, err
			}
			uncompressedOffset += length

		case 1: // fixed
			litFwd, distFwd, err := huffman.FixedForwardTables()
			if err != nil {
				return 0, err
			}
			n, err := skipBlockBody(br, litFwd, distFwd)
			if err != nil {
				return 0, err
			}
			uncompressedOffset += n

		case 2: // dynamic
			scratch := make([]byte, 4+2*(huffman.MaxLitLenCodes+huffman.MaxDistCodes))
			_, litLenLens, distLens, err := huffman.DecodeDynamicHeader(br, scratch)
			if err != nil {
				return 0, err
			}
			litFwd, err := huffman.BuildForwardTable(litLenLens)
			if err != nil {
				return 0, err
			}
			distFwd, err := huffman.BuildForwardTable(distLens)
			if err != nil {
				return 0, err
			}
			n, err := skipBlockBody(br, litFwd, distFwd)
			if err != nil {
				return 0, err
			}
			uncompressedOffset += n

		default:
			return 0, perr.New(perr.InvalidInput, br.Offset(), br.BitOffset(), "reserved block type 3")
		}

		if final {
			br.SkipBoundaryBits()
			return int(br.Offset()), nil
		}
	}
}

// skipBlockBody walks a block's literal/length/distance symbols
// without materializing them, returning the number of uncompressed
// bytes the block expands to.
func skipBlockBody(br *bitio.Reader, litFwd, distFwd *huffman.ForwardTable) (int64, error) {
	var total int64
	for {
		if err := br.CacheBits(litFwd.MaxBits); err != nil {
			return 0, err
		}
		symbol, nbits, err := litFwd.Decode(br.ReadBits(litFwd.MaxBits))
		if err != nil {
			return 0, err
		}
		br.DropBits(nbits)

		switch {
		case symbol < huffman.EndOfBlock:
			total++
		case symbol == huffman.EndOfBlock:
			return total, nil
		case int(symbol)-257 < huffman.NumLengthSymbols:
			idx := int(symbol) - 257
			extraBits := uint(huffman.LengthExtraBits(idx))
			if err := br.CacheBits(extraBits); err != nil {
				return 0, err
			}
			extra := br.ReadBits(extraBits)
			br.DropBits(extraBits)
			length := huffman.LengthBase(idx) + uint16(extra)

			if err := br.CacheBits(distFwd.MaxBits); err != nil {
				return 0, err
			}
			distSymbol, distNbits, err := distFwd.Decode(br.ReadBits(distFwd.MaxBits))
			if err != nil {
				return 0, err
			}
			br.DropBits(distNbits)
			distExtraBits := uint(huffman.DistanceExtraBits(int(distSymbol)))
			if err := br.CacheBits(distExtraBits); err != nil {
				return 0, err
			}
			br.DropBits(distExtraBits)

			total += int64(length)
		default:
			return 0, perr.New(perr.InvalidInput, br.Offset(), br.BitOffset(), "reserved literal/length symbol %d", symbol)
		}
	}
}
