package huffman

import (
	"errors"
	"testing"

	"github.com/google/go-puffin/internal/perr"
)

func TestBuildForwardTableRoundTrip(t *testing.T) {
	// RFC 1951 figure: symbols A,B,C,D with lengths 2,1,3,3.
	lens := []uint8{2, 1, 3, 3} // symbols 0..3 -> but give B length 1
	fwd, err := BuildForwardTable(lens)
	if err != nil {
		t.Fatal(err)
	}
	rev, err := BuildReverseTable(lens)
	if err != nil {
		t.Fatal(err)
	}

	for symbol, l := range lens {
		code, nbits := rev.Encode(uint16(symbol))
		if nbits != uint(l) {
			t.Fatalf("symbol %d: encode nbits = %d, want %d", symbol, nbits, l)
		}
		gotSymbol, gotBits, err := fwd.Decode(code)
		if err != nil {
			t.Fatalf("symbol %d: decode error: %v", symbol, err)
		}
		if int(gotSymbol) != symbol {
			t.Fatalf("decode(%#b) = %d, want %d", code, gotSymbol, symbol)
		}
		if gotBits != uint(l) {
			t.Fatalf("decode(%#b) nbits = %d, want %d", code, gotBits, l)
		}
	}
}

func TestOversubscribedRejected(t *testing.T) {
	_, err := BuildForwardTable([]uint8{1, 1, 1})
	if err == nil {
		t.Fatal("expected error for oversubscribed lengths")
	}
	if !errors.Is(err, &perr.Error{Kind: perr.InvalidInput}) {
		t.Fatalf("wrong error kind: %v", err)
	}
}

func TestDegenerateSingleSymbol(t *testing.T) {
	lens := make([]uint8, 286)
	lens[42] = 1
	fwd, err := BuildForwardTable(lens)
	if err != nil {
		t.Fatal(err)
	}
	rev, err := BuildReverseTable(lens)
	if err != nil {
		t.Fatal(err)
	}
	code, nbits := rev.Encode(42)
	if nbits != 1 {
		t.Fatalf("nbits = %d, want 1", nbits)
	}
	symbol, gotBits, err := fwd.Decode(code)
	if err != nil {
		t.Fatal(err)
	}
	if symbol != 42 || gotBits != 1 {
		t.Fatalf("decode = (%d,%d), want (42,1)", symbol, gotBits)
	}
}

func TestEmptyTableIsValidButUnusable(t *testing.T) {
	lens := make([]uint8, 30)
	fwd, err := BuildForwardTable(lens)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := fwd.Decode(0); err == nil {
		t.Fatal("expected decode of an empty table to fail")
	}
}

func TestFixedTables(t *testing.T) {
	litLenFwd, distFwd, err := FixedForwardTables()
	if err != nil {
		t.Fatal(err)
	}
	litLenRev, distRev, err := FixedReverseTables()
	if err != nil {
		t.Fatal(err)
	}

	for _, symbol := range []uint16{0, 143, 144, 255, 256, 279, 280, 287} {
		code, nbits := litLenRev.Encode(symbol)
		got, gotBits, err := litLenFwd.Decode(code)
		if err != nil || got != symbol || gotBits != nbits {
			t.Fatalf("lit/len symbol %d round trip failed: got=%d bits=%d err=%v", symbol, got, gotBits, err)
		}
	}
	for symbol := uint16(0); symbol < 30; symbol++ {
		code, nbits := distRev.Encode(symbol)
		got, gotBits, err := distFwd.Decode(code)
		if err != nil || got != symbol || gotBits != nbits {
			t.Fatalf("distance symbol %d round trip failed: got=%d bits=%d err=%v", symbol, got, gotBits, err)
		}
	}
}
