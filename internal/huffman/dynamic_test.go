package huffman

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-puffin/internal/bitio"
	"github.com/google/go-puffin/internal/perr"
)

func TestCodeLengthSequenceRejectsLeadingRepeat(t *testing.T) {
	var metaLens [NumCodeLengthCodes]uint8
	metaLens[16] = 1
	metaRev, err := BuildReverseTable(metaLens[:])
	if err != nil {
		t.Fatal(err)
	}

	bitBuf := make([]byte, 8)
	bw := bitio.NewWriter(bitBuf)
	_, _, err = encodeCodeLengthSequence(bw, metaRev, []byte{16}, 5)
	if !errors.Is(err, &perr.Error{Kind: perr.InvalidInput}) {
		t.Fatalf("want InvalidInput, got %v", err)
	}
}

func TestCodeLengthSequenceRoundTrip(t *testing.T) {
	var metaLens [NumCodeLengthCodes]uint8
	metaLens[0] = 1
	metaLens[16] = 2
	metaLens[17] = 3
	metaLens[18] = 3

	metaFwd, err := BuildForwardTable(metaLens[:])
	if err != nil {
		t.Fatal(err)
	}
	metaRev, err := BuildReverseTable(metaLens[:])
	if err != nil {
		t.Fatal(err)
	}

	puffIn := []byte{0, 16, 28} // explicit 0, repeat-previous x3, repeat-zero x11 => 15 entries
	const numCodes = 15

	bitBuf := make([]byte, 8)
	bw := bitio.NewWriter(bitBuf)
	lensEnc, consumed, err := encodeCodeLengthSequence(bw, metaRev, puffIn, numCodes)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != len(puffIn) {
		t.Fatalf("consumed %d puff bytes, want %d", consumed, len(puffIn))
	}
	n, err := bw.Flush()
	if err != nil {
		t.Fatal(err)
	}

	br := bitio.NewReader(bitBuf[:n])
	outPuff := make([]byte, 8)
	lensDec, written, err := decodeCodeLengthSequence(br, metaFwd, numCodes, outPuff)
	if err != nil {
		t.Fatal(err)
	}
	if written != len(puffIn) {
		t.Fatalf("wrote %d puff bytes, want %d", written, len(puffIn))
	}
	if !bytes.Equal(outPuff[:written], puffIn) {
		t.Fatalf("re-emitted puff bytes = %v, want %v", outPuff[:written], puffIn)
	}
	if len(lensEnc) != numCodes || len(lensDec) != numCodes {
		t.Fatalf("expected %d lengths, got enc=%d dec=%d", numCodes, len(lensEnc), len(lensDec))
	}
	for i := range lensDec {
		if lensDec[i] != 0 || lensEnc[i] != 0 {
			t.Fatalf("lens[%d] = (%d,%d), want (0,0)", i, lensEnc[i], lensDec[i])
		}
	}
}

func TestDynamicHeaderRoundTrip(t *testing.T) {
	// A tiny, legal dynamic header: HLIT=0 (257 lit/len codes), HDIST=0
	// (1 distance code), HCLEN=0 (4 meta codes), each of the 4 meta
	// codes used (16,17,18,0 in permutation order, i.e. indices 0-3)
	// given length 2 so the meta alphabet is Kraft-complete on its own.
	// 4 codes pack two per byte: byte0 holds (sym16,sym17), byte1
	// holds (sym18,sym0), each nibble = 2.
	puffIn := []byte{
		0, 0, 0, // HLIT, HDIST, HCLEN
		0x22, 0x22, // packed meta code lengths
	}
	// Lit/len sequence: 257 zero-length codes, built from 23 uses of
	// code 18 (11 zeros each, puff value 28) plus one use of code 17
	// covering the remaining 4 (puff value 20+(4-3)=21). 23*11+4=257.
	for i := 0; i < 23; i++ {
		puffIn = append(puffIn, 28)
	}
	puffIn = append(puffIn, 21)
	puffIn = append(puffIn, 0) // distance sequence: one explicit zero length

	bitBuf := make([]byte, 64)
	bw := bitio.NewWriter(bitBuf)
	consumed, litLenLens, distLens, err := EncodeDynamicHeader(bw, puffIn)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != len(puffIn) {
		t.Fatalf("consumed %d of %d puff bytes", consumed, len(puffIn))
	}
	n, err := bw.Flush()
	if err != nil {
		t.Fatal(err)
	}

	br := bitio.NewReader(bitBuf[:n])
	puffOut := make([]byte, 64)
	written, litLenLens2, distLens2, err := DecodeDynamicHeader(br, puffOut)
	if err != nil {
		t.Fatal(err)
	}
	if written != consumed {
		t.Fatalf("decode wrote %d puff bytes, encode consumed %d", written, consumed)
	}
	if !bytes.Equal(puffOut[:written], puffIn) {
		t.Fatalf("re-emitted puff header mismatch")
	}
	if len(litLenLens) != len(litLenLens2) || len(distLens) != len(distLens2) {
		t.Fatalf("length array size mismatch")
	}
	for i := range litLenLens {
		if litLenLens[i] != litLenLens2[i] {
			t.Fatalf("lit/len[%d] = %d, want %d", i, litLenLens2[i], litLenLens[i])
		}
	}
	for i := range distLens {
		if distLens[i] != distLens2[i] {
			t.Fatalf("dist[%d] = %d, want %d", i, distLens2[i], distLens[i])
		}
	}
}
