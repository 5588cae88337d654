package bitio

import (
	"errors"
	"testing"

	"github.com/google/go-puffin/internal/perr"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	w := NewWriter(buf)
	if err := w.WriteBits(3, 5); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBits(13, 0x1abc&0x1fff); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBoundaryBits(0); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBytes([]byte("hi")); err != nil {
		t.Fatal(err)
	}
	n, err := w.Flush()
	if err != nil {
		t.Fatal(err)
	}

	r := NewReader(buf[:n])
	if err := r.CacheBits(3); err != nil {
		t.Fatal(err)
	}
	if got := r.ReadBits(3); got != 5 {
		t.Fatalf("got %d want 5", got)
	}
	r.DropBits(3)

	if err := r.CacheBits(13); err != nil {
		t.Fatal(err)
	}
	if got := r.ReadBits(13); got != 0x1abc&0x1fff {
		t.Fatalf("got %#x want %#x", got, 0x1abc&0x1fff)
	}
	r.DropBits(13)

	r.SkipBoundaryBits()
	got, err := r.ReadBytes(2)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi" {
		t.Fatalf("got %q want hi", got)
	}
}

func TestReaderInsufficientInput(t *testing.T) {
	r := NewReader([]byte{0x01})
	if err := r.CacheBits(16); err == nil {
		t.Fatal("expected InsufficientInput")
	} else if !errors.Is(err, &perr.Error{Kind: perr.InsufficientInput}) {
		t.Fatalf("wrong kind: %v", err)
	}
}

func TestWriterInsufficientOutput(t *testing.T) {
	w := NewWriter(make([]byte, 1))
	if err := w.WriteBits(8, 1); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBits(8, 1); err == nil {
		t.Fatal("expected InsufficientOutput")
	} else if !errors.Is(err, &perr.Error{Kind: perr.InsufficientOutput}) {
		t.Fatalf("wrong kind: %v", err)
	}
}

func TestPeekThenDropLess(t *testing.T) {
	// Huffman decode looks ahead max_bits but only drops the code's
	// actual length; verify the remaining bits stay put.
	buf := []byte{0b10110101}
	r := NewReader(buf)
	if err := r.CacheBits(8); err != nil {
		t.Fatal(err)
	}
	peeked := r.ReadBits(8)
	if peeked != 0b10110101 {
		t.Fatalf("got %#b", peeked)
	}
	r.DropBits(3)
	if got := r.ReadBits(5); got != 0b10110 {
		t.Fatalf("got %#b want %#b", got, 0b10110)
	}
}

func TestBoundaryBits(t *testing.T) {
	buf := make([]byte, 4)
	w := NewWriter(buf)
	w.WriteBits(3, 0b101)
	w.WriteBoundaryBits(0)
	w.WriteBytes([]byte{0xAA})
	n, _ := w.Flush()

	r := NewReader(buf[:n])
	r.CacheBits(3)
	r.DropBits(3)
	if pad := r.ReadBoundaryBits(); pad != 0 {
		t.Fatalf("pad = %d, want 0", pad)
	}
	r.SkipBoundaryBits()
	if r.Offset() != 1 {
		t.Fatalf("offset = %d, want 1", r.Offset())
	}
	b, err := r.ReadBytes(1)
	if err != nil || b[0] != 0xAA {
		t.Fatalf("got %v %v", b, err)
	}
}
