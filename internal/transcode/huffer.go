// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package transcode

import (
	"github.com/google/go-puffin/internal/bitio"
	"github.com/google/go-puffin/internal/huffman"
	"github.com/google/go-puffin/internal/perr"
	"github.com/google/go-puffin/internal/puff"
)

// Huff transcodes a puff byte sequence back into its original DEFLATE
// bit stream, returning the number of DEFLATE bytes written. It is
// the strict inverse of Puff: given the puff output of a prior Puff
// call, it reproduces the input bit-for-bit, including any
// concatenated streams.
func Huff(puffIn []byte, deflateOut []byte) (int, error) {
	pr := puff.NewReader(puffIn)
	bw := bitio.NewWriter(deflateOut)

	for pr.Remaining() > 0 {
		final, err := huffBlock(pr, bw)
		if err != nil {
			n, _ := bw.Flush()
			return n, err
		}
		if final {
			if err := bw.WriteBoundaryBits(0); err != nil {
				n, _ := bw.Flush()
				return n, err
			}
		}
	}
	return bw.Flush()
}

func huffBlock(pr *puff.Reader, bw *bitio.Writer) (final bool, err error) {
	final, blockType, err := pr.ReadBlockMarker()
	if err != nil {
		return false, err
	}

	var header uint32
	if final {
		header = 1
	}
	header |= uint32(blockType) << 1
	if err := bw.WriteBits(3, header); err != nil {
		return false, err
	}

	switch blockType {
	case puff.BlockUncompressed:
		return final, huffUncompressedBlock(pr, bw)
	case puff.BlockFixed:
		litRev, distRev, err := huffman.FixedReverseTables()
		if err != nil {
			return false, err
		}
		return final, huffBlockBody(pr, bw, litRev, distRev)
	case puff.BlockDynamic:
		return final, huffDynamicBlock(pr, bw)
	default:
		return false, perr.New(perr.InvalidInput, int64(pr.Offset()), 0, "reserved block type %d", reservedBlockType)
	}
}

func huffUncompressedBlock(pr *puff.Reader, bw *bitio.Writer) error {
	if err := bw.WriteBoundaryBits(0); err != nil {
		return err
	}
	length, err := pr.ReadUncompressedLength()
	if err != nil {
		return err
	}
	var header [4]byte
	header[0] = byte(length)
	header[1] = byte(length >> 8)
	nlength := ^length
	header[2] = byte(nlength)
	header[3] = byte(nlength >> 8)
	if err := bw.WriteBytes(header[:]); err != nil {
		return err
	}
	data, err := pr.ReadBytes(int(length))
	if err != nil {
		return err
	}
	return bw.WriteBytes(data)
}

func huffDynamicBlock(pr *puff.Reader, bw *bitio.Writer) error {
	consumed, litLenLens, distLens, err := huffman.EncodeDynamicHeader(bw, pr.Peek())
	if err != nil {
		return err
	}
	if err := pr.Advance(consumed); err != nil {
		return err
	}

	litRev, err := huffman.BuildReverseTable(litLenLens)
	if err != nil {
		return err
	}
	distRev, err := huffman.BuildReverseTable(distLens)
	if err != nil {
		return err
	}
	return huffBlockBody(pr, bw, litRev, distRev)
}

// huffBlockBody replays the literal runs and copies of one block's
// puff body, re-emitting their Huffman codes, until it reaches the
// end-of-block tag.
func huffBlockBody(pr *puff.Reader, bw *bitio.Writer, litRev, distRev *huffman.ReverseTable) error {
	for {
		tag, err := pr.PeekTag()
		if err != nil {
			return err
		}

		switch tag {
		case puff.EndOfBlockTag:
			if err := pr.ReadEndOfBlock(); err != nil {
				return err
			}
			code, nbits := litRev.Encode(huffman.EndOfBlock)
			return bw.WriteBits(nbits, code)

		case puff.CopyTag:
			length, distance, err := pr.ReadCopy()
			if err != nil {
				return err
			}
			if err := writeLengthDistance(bw, litRev, distRev, length, distance); err != nil {
				return err
			}

		default:
			run, err := pr.ReadLiteralRun()
			if err != nil {
				return err
			}
			for _, b := range run {
				code, nbits := litRev.Encode(uint16(b))
				if err := bw.WriteBits(nbits, code); err != nil {
					return err
				}
			}
		}
	}
}

func writeLengthDistance(bw *bitio.Writer, litRev, distRev *huffman.ReverseTable, length, distance uint16) error {
	lengthSymbol, lengthExtra := huffman.LengthSymbolFor(length)
	code, nbits := litRev.Encode(257 + lengthSymbol)
	if err := bw.WriteBits(nbits, code); err != nil {
		return err
	}
	lengthExtraBits := uint(huffman.LengthExtraBits(int(lengthSymbol)))
	if err := bw.WriteBits(lengthExtraBits, uint32(lengthExtra)); err != nil {
		return err
	}

	distSymbol, distExtra := huffman.DistanceSymbolFor(distance)
	code, nbits = distRev.Encode(distSymbol)
	if err := bw.WriteBits(nbits, code); err != nil {
		return err
	}
	distExtraBits := uint(huffman.DistanceExtraBits(int(distSymbol)))
	return bw.WriteBits(distExtraBits, uint32(distExtra))
}
