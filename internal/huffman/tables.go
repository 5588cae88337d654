// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package huffman builds the canonical Huffman decode/encode tables
// that both the puffer and the huffer need: the forward (decode)
// table used while walking a DEFLATE bit stream, the reverse
// (encode) table used while re-emitting one, and the codec for the
// dynamic-block header that puff stores verbatim so it can be
// reproduced bit-for-bit.
//
// The construction follows RFC 1951 section 3.2.2 exactly as the
// upstream puffin C++ implementation does: count codes per length,
// derive the first code of each length, then walk symbols in
// ascending order assigning (and bit-reversing) codes.
package huffman

import "sort"

// MaxBits is the longest Huffman code DEFLATE ever produces.
const MaxBits = 15

// Alphabet sizes, per RFC 1951.
const (
	NumCodeLengthCodes = 19  // meta-alphabet describing HLIT/HDIST code lengths
	MaxLitLenCodes     = 288 // 286 used by dynamic blocks, 288 by the fixed table
	MaxDistCodes       = 30
	EndOfBlock         = 256
)

// kPermutations is the order in which the dynamic header's 19
// meta-code lengths appear on the wire; kept as a direct port of the
// original puffin lookup table.
var kPermutations = [NumCodeLengthCodes]uint8{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

// Length bases/extra-bits and distance bases/extra-bits, per RFC 1951
// section 3.2.5. The last base in each table is a guard value and is
// never dereferenced by a valid stream.
var (
	kLengthBases = [30]uint16{
		3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43,
		51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258, 0xFFFF,
	}
	kLengthExtraBits = [29]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5,
		5, 5, 0,
	}
	kDistanceBases = [31]uint16{
		1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769,
		1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577, 0xFFFF,
	}
	kDistanceExtraBits = [30]uint8{
		0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9,
		9, 10, 10, 11, 11, 12, 12, 13, 13,
	}
)

// LengthBase, LengthExtraBits, DistanceBase and DistanceExtraBits
// expose the RFC 1951 tables to the transcoder (internal/transcode),
// which needs them to decode and re-encode length/distance symbols.
func LengthBase(symbol int) uint16      { return kLengthBases[symbol] }
func LengthExtraBits(symbol int) uint8  { return kLengthExtraBits[symbol] }
func DistanceBase(symbol int) uint16    { return kDistanceBases[symbol] }
func DistanceExtraBits(symbol int) uint8 { return kDistanceExtraBits[symbol] }

// LengthSymbolFor returns the length symbol (0-28, added to 257 for
// the literal/length alphabet) and extra-bit value for a literal
// match length in [3,258], chosen by binary-searching for the
// largest base not exceeding length.
func LengthSymbolFor(length uint16) (symbol uint16, extra uint16) {
	n := len(kLengthExtraBits)
	i := sort.Search(n, func(i int) bool { return kLengthBases[i] > length }) - 1
	if i < 0 {
		i = 0
	}
	return uint16(i), length - kLengthBases[i]
}

// DistanceSymbolFor returns the distance symbol (0-29) and extra-bit
// value for a literal distance in [1,32768].
func DistanceSymbolFor(distance uint16) (symbol uint16, extra uint16) {
	n := len(kDistanceExtraBits)
	i := sort.Search(n, func(i int) bool { return kDistanceBases[i] > distance }) - 1
	if i < 0 {
		i = 0
	}
	return uint16(i), distance - kDistanceBases[i]
}

// NumLengthSymbols and NumDistanceSymbols bound binary searches over
// the base tables above (used by the huffer to pick a code from a
// literal length/distance value).
const (
	NumLengthSymbols   = len(kLengthExtraBits) // 29, codes 257..285
	NumDistanceSymbols = len(kDistanceExtraBits)
)

// FixedLitLenLens and FixedDistLens are the code-length arrays RFC
// 1951 section 3.2.6 fixes for "fixed Huffman" blocks.
func FixedLitLenLens() []uint8 {
	lens := make([]uint8, 288)
	i := 0
	for ; i < 144; i++ {
		lens[i] = 8
	}
	for ; i < 256; i++ {
		lens[i] = 9
	}
	for ; i < 280; i++ {
		lens[i] = 7
	}
	for ; i < 288; i++ {
		lens[i] = 8
	}
	return lens
}

func FixedDistLens() []uint8 {
	lens := make([]uint8, 30)
	for i := range lens {
		lens[i] = 5
	}
	return lens
}
