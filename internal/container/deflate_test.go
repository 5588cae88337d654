package container

import "testing"

// Single final uncompressed block carrying "Hello, World!\n".
func helloWorldDeflate() []byte {
	payload := []byte("Hello, World!\n")
	out := []byte{0x01, 0x0E, 0x00, 0xF1, 0xFF}
	return append(out, payload...)
}

func TestLocateDeflateBlocksUncompressed(t *testing.T) {
	deflate := helloWorldDeflate()
	consumed, err := LocateDeflateBlocks(deflate, nil)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != len(deflate) {
		t.Fatalf("consumed = %d, want %d", consumed, len(deflate))
	}
}

func TestLocateDeflateBlocksCheckpoints(t *testing.T) {
	deflate := helloWorldDeflate()
	var checkpoints []Checkpoint
	if _, err := LocateDeflateBlocks(deflate, &checkpoints); err != nil {
		t.Fatal(err)
	}
	if len(checkpoints) != 1 {
		t.Fatalf("got %d checkpoints, want 1", len(checkpoints))
	}
	if checkpoints[0].ByteOffset != 0 || checkpoints[0].BitOffset != 0 {
		t.Fatalf("first checkpoint = %+v, want zero offsets", checkpoints[0])
	}
	if checkpoints[0].UncompressedOffset != 0 {
		t.Fatalf("first checkpoint uncompressed offset = %d, want 0", checkpoints[0].UncompressedOffset)
	}
}

func TestLocateDeflateBlocksRejectsLenNlenMismatch(t *testing.T) {
	deflate := []byte{0x01, 0x0E, 0x00, 0x00, 0x00}
	if _, err := LocateDeflateBlocks(deflate, nil); err == nil {
		t.Fatal("expected error for mismatched LEN/NLEN")
	}
}

func TestLocateDeflateBlocksTwoUncompressedBlocks(t *testing.T) {
	// Non-final uncompressed block ("AB") followed by a final one ("CD").
	first := []byte{0x00, 0x02, 0x00, 0xFD, 0xFF, 'A', 'B'}
	second := []byte{0x01, 0x02, 0x00, 0xFD, 0xFF, 'C', 'D'}
	deflate := append(append([]byte{}, first...), second...)

	var checkpoints []Checkpoint
	consumed, err := LocateDeflateBlocks(deflate, &checkpoints)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != len(deflate) {
		t.Fatalf("consumed = %d, want %d", consumed, len(deflate))
	}
	if len(checkpoints) != 2 {
		t.Fatalf("got %d checkpoints, want 2", len(checkpoints))
	}
	if checkpoints[1].UncompressedOffset != 2 {
		t.Fatalf("second checkpoint uncompressed offset = %d, want 2", checkpoints[1].UncompressedOffset)
	}
}
