// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package huffman

import (
	"github.com/google/go-puffin/internal/bitio"
	"github.com/google/go-puffin/internal/perr"
)

// checkHeaderCounts rejects HLIT/HDIST/HCLEN combinations that would
// overflow their respective alphabets, the same bound the upstream
// CheckHuffmanArrayLengths enforces.
func checkHeaderCounts(numLitLen, numDist, numCodes int) error {
	if numLitLen > 286 {
		return perr.New(perr.InvalidInput, 0, 0, "HLIT too large: %d literal/length codes", numLitLen)
	}
	if numDist > MaxDistCodes {
		return perr.New(perr.InvalidInput, 0, 0, "HDIST too large: %d distance codes", numDist)
	}
	if numCodes > NumCodeLengthCodes {
		return perr.New(perr.InvalidInput, 0, 0, "HCLEN too large: %d meta codes", numCodes)
	}
	return nil
}

// DecodeDynamicHeader reads a dynamic block's header off br and
// writes its puff encoding (the HLIT/HDIST/HCLEN triplet, the packed
// meta-code lengths, and the expanded literal/length and distance
// code-length sequences) into puffOut. It returns the number of puff
// bytes written along with the decoded code-length arrays, which the
// caller uses to build the tables for the block body.
func DecodeDynamicHeader(br *bitio.Reader, puffOut []byte) (n int, litLenLens, distLens []uint8, err error) {
	if len(puffOut) < 3 {
		return 0, nil, nil, perr.New(perr.InsufficientOutput, br.Offset(), br.BitOffset(), "need 3 bytes for HLIT/HDIST/HCLEN")
	}
	index := 0

	if err := br.CacheBits(14); err != nil {
		return 0, nil, nil, err
	}
	hlit := br.ReadBits(5)
	puffOut[index] = byte(hlit)
	index++
	numLitLen := int(hlit) + 257
	br.DropBits(5)

	hdist := br.ReadBits(5)
	puffOut[index] = byte(hdist)
	index++
	numDist := int(hdist) + 1
	br.DropBits(5)

	hclen := br.ReadBits(4)
	puffOut[index] = byte(hclen)
	index++
	numCodes := int(hclen) + 4
	br.DropBits(4)

	if err := checkHeaderCounts(numLitLen, numDist, numCodes); err != nil {
		return 0, nil, nil, err
	}
	if len(puffOut)-index < (numCodes+1)/2 {
		return 0, nil, nil, perr.New(perr.InsufficientOutput, br.Offset(), br.BitOffset(), "no room for %d packed meta code lengths", numCodes)
	}

	var codeLens [NumCodeLengthCodes]uint8
	checked := false
	idx := 0
	for ; idx < numCodes; idx++ {
		if err := br.CacheBits(3); err != nil {
			return 0, nil, nil, err
		}
		codeLens[kPermutations[idx]] = uint8(br.ReadBits(3))
		if checked {
			puffOut[index] |= uint8(br.ReadBits(3))
			index++
		} else {
			puffOut[index] = uint8(br.ReadBits(3)) << 4
		}
		checked = !checked
		br.DropBits(3)
	}
	if checked {
		index++
	}
	for ; idx < NumCodeLengthCodes; idx++ {
		codeLens[kPermutations[idx]] = 0
	}

	metaFwd, err := BuildForwardTable(codeLens[:])
	if err != nil {
		return 0, nil, nil, err
	}

	litLenLens, written, err := decodeCodeLengthSequence(br, metaFwd, numLitLen, puffOut[index:])
	if err != nil {
		return 0, nil, nil, err
	}
	index += written

	distLens, written, err = decodeCodeLengthSequence(br, metaFwd, numDist, puffOut[index:])
	if err != nil {
		return 0, nil, nil, err
	}
	index += written

	return index, litLenLens, distLens, nil
}

// decodeCodeLengthSequence decodes numCodes code lengths (the body
// of either the literal/length or the distance code-length sequence)
// using the meta-code table, writing puffin's expanded encoding of
// repeat markers 16/17/18 into out. It mirrors the upstream
// BuildHuffmanCodeLengths.
func decodeCodeLengthSequence(br *bitio.Reader, meta *ForwardTable, numCodes int, out []byte) (lens []uint8, n int, err error) {
	lens = make([]uint8, 0, numCodes)
	index := 0
	for idx := 0; idx < numCodes; {
		if err := br.CacheBits(meta.MaxBits); err != nil {
			return nil, 0, err
		}
		code, nbits, err := meta.Decode(br.ReadBits(meta.MaxBits))
		if err != nil {
			return nil, 0, err
		}
		if index >= len(out) {
			return nil, 0, perr.New(perr.InsufficientOutput, br.Offset(), br.BitOffset(), "no room for decoded code length")
		}
		br.DropBits(nbits)

		if code < 16 {
			out[index] = byte(code)
			index++
			lens = append(lens, uint8(code))
			idx++
			continue
		}
		if code > 18 {
			return nil, 0, perr.New(perr.InvalidInput, br.Offset(), br.BitOffset(), "invalid code-length symbol %d", code)
		}

		var copyNum int
		var copyVal uint8
		switch code {
		case 16:
			if idx == 0 {
				return nil, 0, perr.New(perr.InvalidInput, br.Offset(), br.BitOffset(), "code 16 cannot repeat a non-existent previous length")
			}
			if err := br.CacheBits(2); err != nil {
				return nil, 0, err
			}
			extra := br.ReadBits(2)
			copyNum = 3 + int(extra)
			out[index] = byte(16 + extra)
			index++
			copyVal = lens[idx-1]
			br.DropBits(2)
		case 17:
			if err := br.CacheBits(3); err != nil {
				return nil, 0, err
			}
			extra := br.ReadBits(3)
			copyNum = 3 + int(extra)
			out[index] = byte(20 + extra)
			index++
			copyVal = 0
			br.DropBits(3)
		case 18:
			if err := br.CacheBits(7); err != nil {
				return nil, 0, err
			}
			extra := br.ReadBits(7)
			copyNum = 11 + int(extra)
			out[index] = byte(28 + extra)
			index++
			copyVal = 0
			br.DropBits(7)
		}
		idx += copyNum
		for j := 0; j < copyNum; j++ {
			lens = append(lens, copyVal)
		}
	}
	if len(lens) > numCodes {
		lens = lens[:numCodes]
	}
	return lens, index, nil
}

// EncodeDynamicHeader is the strict inverse of DecodeDynamicHeader:
// given the puff encoding of a dynamic header, it writes the
// original bit stream to bw and returns the decoded code-length
// arrays, consuming however many puff bytes the header occupied.
func EncodeDynamicHeader(bw *bitio.Writer, puffIn []byte) (consumed int, litLenLens, distLens []uint8, err error) {
	if len(puffIn) < 3 {
		return 0, nil, nil, perr.New(perr.InsufficientInput, bw.Offset(), 0, "need 3 puff bytes for HLIT/HDIST/HCLEN")
	}
	index := 0

	numLitLen := int(puffIn[index]) + 257
	if err := bw.WriteBits(5, uint32(puffIn[index])); err != nil {
		return 0, nil, nil, err
	}
	index++

	numDist := int(puffIn[index]) + 1
	if err := bw.WriteBits(5, uint32(puffIn[index])); err != nil {
		return 0, nil, nil, err
	}
	index++

	numCodes := int(puffIn[index]) + 4
	if err := bw.WriteBits(4, uint32(puffIn[index])); err != nil {
		return 0, nil, nil, err
	}
	index++

	if err := checkHeaderCounts(numLitLen, numDist, numCodes); err != nil {
		return 0, nil, nil, err
	}
	if len(puffIn)-index < (numCodes+1)/2 {
		return 0, nil, nil, perr.New(perr.InsufficientInput, bw.Offset(), 0, "need %d packed meta code lengths", numCodes)
	}

	var codeLens [NumCodeLengthCodes]uint8
	checked := false
	idx := 0
	for ; idx < numCodes; idx++ {
		var l uint8
		if checked {
			l = puffIn[index] & 0x0F
			index++
		} else {
			l = puffIn[index] >> 4
		}
		checked = !checked
		codeLens[kPermutations[idx]] = l
		if err := bw.WriteBits(3, uint32(l)); err != nil {
			return 0, nil, nil, err
		}
	}
	if checked {
		index++
	}
	for ; idx < NumCodeLengthCodes; idx++ {
		codeLens[kPermutations[idx]] = 0
	}

	metaRev, err := BuildReverseTable(codeLens[:])
	if err != nil {
		return 0, nil, nil, err
	}

	litLenLens, n, err := encodeCodeLengthSequence(bw, metaRev, puffIn[index:], numLitLen)
	if err != nil {
		return 0, nil, nil, err
	}
	index += n

	distLens, n, err = encodeCodeLengthSequence(bw, metaRev, puffIn[index:], numDist)
	if err != nil {
		return 0, nil, nil, err
	}
	index += n

	return index, litLenLens, distLens, nil
}

// encodeCodeLengthSequence is the strict inverse of
// decodeCodeLengthSequence, mirroring the upstream's writer-side
// BuildHuffmanCodeLengths.
func encodeCodeLengthSequence(bw *bitio.Writer, meta *ReverseTable, in []byte, numCodes int) (lens []uint8, consumed int, err error) {
	lens = make([]uint8, 0, numCodes)
	index := 0
	for idx := 0; idx < numCodes; {
		if index >= len(in) {
			return nil, 0, perr.New(perr.InsufficientInput, bw.Offset(), 0, "ran out of puff bytes mid code-length sequence")
		}
		pcode := in[index]
		index++
		if pcode > 155 {
			return nil, 0, perr.New(perr.InvalidInput, bw.Offset(), 0, "puff code-length value %d out of range", pcode)
		}

		var code uint16
		switch {
		case pcode < 16:
			code = uint16(pcode)
		case pcode < 20:
			code = 16
		case pcode < 28:
			code = 17
		default:
			code = 18
		}

		hcode, nbits := meta.Encode(code)
		if err := bw.WriteBits(nbits, hcode); err != nil {
			return nil, 0, err
		}

		if code < 16 {
			lens = append(lens, uint8(code))
			idx++
			continue
		}

		var copyNum int
		var copyVal uint8
		switch code {
		case 16:
			if idx == 0 {
				return nil, 0, perr.New(perr.InvalidInput, bw.Offset(), 0, "code 16 cannot repeat a non-existent previous length")
			}
			if err := bw.WriteBits(2, uint32(pcode-16)); err != nil {
				return nil, 0, err
			}
			copyNum = 3 + int(pcode-16)
			copyVal = lens[idx-1]
		case 17:
			if err := bw.WriteBits(3, uint32(pcode-20)); err != nil {
				return nil, 0, err
			}
			copyNum = 3 + int(pcode-20)
			copyVal = 0
		case 18:
			if err := bw.WriteBits(7, uint32(pcode-28)); err != nil {
				return nil, 0, err
			}
			copyNum = 11 + int(pcode-28)
			copyVal = 0
		}
		idx += copyNum
		for j := 0; j < copyNum; j++ {
			lens = append(lens, copyVal)
		}
	}
	if len(lens) > numCodes {
		lens = lens[:numCodes]
	}
	return lens, index, nil
}
