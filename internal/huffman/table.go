// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package huffman

import (
	"log/slog"
	"sort"

	"github.com/google/go-puffin/internal/perr"
)

// codeIndexPair is one canonical code, already bit-reversed for
// LSB-first reading, paired with the symbol (index into lens) it
// belongs to.
type codeIndexPair struct {
	code  uint32
	index int
}

// initCodes runs RFC 1951's canonical construction over lens,
// returning every symbol's bit-reversed code and the longest code
// length in use (0 if lens has no non-zero entries, which is
// tolerated: a block can legitimately carry no length/distance
// codes at all).
func initCodes(lens []uint8) (pairs []codeIndexPair, maxBits uint, err error) {
	var lenCount [MaxBits + 1]int
	for _, l := range lens {
		lenCount[l]++
	}

	for maxBits = MaxBits; maxBits >= 1; maxBits-- {
		if lenCount[maxBits] != 0 {
			break
		}
	}

	if int(lenCount[0]) == len(lens) {
		slog.Warn("huffman table has no non-zero code lengths")
	}

	for l := uint(1); l <= maxBits; l++ {
		if lenCount[l] > 1<<l {
			return nil, 0, perr.New(perr.InvalidInput, 0, 0, "oversubscribed code length %d: %d codes, max %d", l, lenCount[l], 1<<l)
		}
	}

	var nextCode [MaxBits + 1]int
	code := 0
	lenCount[0] = 0
	for bits := 1; bits <= MaxBits; bits++ {
		code = (code + lenCount[bits-1]) << 1
		nextCode[bits] = code
	}

	pairs = make([]codeIndexPair, 0, len(lens))
	for idx, l := range lens {
		if l == 0 {
			continue
		}
		pairs = append(pairs, codeIndexPair{
			code:  reverseBits(uint32(nextCode[l]), uint(l)),
			index: idx,
		})
		nextCode[l]++
	}
	return pairs, maxBits, nil
}

func reverseBits(code uint32, length uint) uint32 {
	var r uint32
	for i := uint(0); i < length; i++ {
		r <<= 1
		r |= code & 1
		code >>= 1
	}
	return r
}

// ForwardTable is a decode table: a single indexed load at the
// reader's next MaxBits bits returns a symbol, and Lens[symbol]
// tells the caller how many of those bits the code actually used.
type ForwardTable struct {
	Bits    []uint16 // size 1<<MaxBits; 0x8000 set means valid
	Lens    []uint8  // the code-length array the table was built from
	MaxBits uint
}

const validBit = 0x8000

// Decode looks up the next t.MaxBits bits (already peeked by the
// caller) and returns the symbol they encode plus how many bits of
// the peek were actually consumed.
func (t *ForwardTable) Decode(peeked uint32) (symbol uint16, nbits uint, err error) {
	idx := peeked & (uint32(1)<<t.MaxBits - 1)
	v := t.Bits[idx]
	if v&validBit == 0 {
		return 0, 0, perr.New(perr.InvalidInput, 0, 0, "no Huffman code matches %#x", idx)
	}
	symbol = v &^ validBit
	return symbol, uint(t.Lens[symbol]), nil
}

// BuildForwardTable constructs the decode table for lens, following
// the upstream BuildHuffmanCodes: fill longest codes first so that
// shorter codes correctly override every suffix-matching slot they
// own.
func BuildForwardTable(lens []uint8) (*ForwardTable, error) {
	pairs, maxBits, err := initCodes(lens)
	if err != nil {
		return nil, err
	}

	sort.Slice(pairs, func(i, j int) bool {
		return lens[pairs[i].index] > lens[pairs[j].index]
	})

	bits := make([]uint16, 1<<maxBits)
	for _, p := range pairs {
		l := uint(lens[p.index])
		bits[p.code] = uint16(p.index) | validBit
		fillBits := maxBits - l
		for i := uint32(1); i < uint32(1)<<fillBits; i++ {
			loc := (i << l) | p.code
			if bits[loc]&validBit == 0 {
				bits[loc] = uint16(p.index) | validBit
			}
		}
	}

	return &ForwardTable{Bits: bits, Lens: append([]uint8(nil), lens...), MaxBits: maxBits}, nil
}

// ReverseTable is an encode table: Codes[symbol] is the bit-reversed
// canonical code for symbol, ready to be written LSB-first, and
// Lens[symbol] is its length.
type ReverseTable struct {
	Codes   []uint16
	Lens    []uint8
	MaxBits uint
}

// Encode returns the bit-reversed code and length for symbol.
func (t *ReverseTable) Encode(symbol uint16) (code uint32, nbits uint) {
	return uint32(t.Codes[symbol]), uint(t.Lens[symbol])
}

// BuildReverseTable constructs the encode table for lens.
func BuildReverseTable(lens []uint8) (*ReverseTable, error) {
	pairs, maxBits, err := initCodes(lens)
	if err != nil {
		return nil, err
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].index < pairs[j].index })

	codes := make([]uint16, len(lens))
	i := 0
	for idx := range lens {
		if i < len(pairs) && pairs[i].index == idx {
			codes[idx] = uint16(pairs[i].code)
			i++
		}
	}

	return &ReverseTable{Codes: codes, Lens: append([]uint8(nil), lens...), MaxBits: maxBits}, nil
}
