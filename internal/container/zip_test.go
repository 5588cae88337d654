package container

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildZipArchive assembles a minimal one-member ZIP (local file
// header + central directory + EOCD) wrapping payload as a deflate
// member named name.
func buildZipArchive(name string, payload []byte, uncompressedLen uint32) []byte {
	var buf bytes.Buffer

	localOffset := buf.Len()
	write16 := func(v uint16) { binary.Write(&buf, binary.LittleEndian, v) }
	write32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("PK\x03\x04")
	write16(20)              // version needed
	write16(0)                // flags
	write16(zipMethodDeflate) // method
	write16(0)                // mod time
	write16(0)                // mod date
	write32(0)                // crc32
	write32(uint32(len(payload)))
	write32(uncompressedLen)
	write16(uint16(len(name)))
	write16(0) // extra length
	buf.WriteString(name)
	buf.Write(payload)

	centralOffset := buf.Len()
	buf.WriteString("PK\x01\x02")
	write16(20) // version made by
	write16(20) // version needed
	write16(0)  // flags
	write16(zipMethodDeflate)
	write16(0) // mod time
	write16(0) // mod date
	write32(0) // crc32
	write32(uint32(len(payload)))
	write32(uncompressedLen)
	write16(uint16(len(name)))
	write16(0) // extra length
	write16(0) // comment length
	write16(0) // disk number start
	write16(0) // internal attrs
	write32(0) // external attrs
	write32(uint32(localOffset))
	buf.WriteString(name)
	centralSize := buf.Len() - centralOffset

	buf.WriteString("PK\x05\x06")
	write16(0) // disk number
	write16(0) // disk with cd
	write16(1) // entries this disk
	write16(1) // entries total
	write32(uint32(centralSize))
	write32(uint32(centralOffset))
	write16(0) // comment length

	return buf.Bytes()
}

func TestLocateZipStreamsSingleDeflateMember(t *testing.T) {
	payload := helloWorldDeflate()
	data := buildZipArchive("a.txt", payload, 14)

	extents, err := LocateZipStreams(readerAtBytes(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if len(extents) != 1 {
		t.Fatalf("got %d extents, want 1", len(extents))
	}
	e := extents[0]
	wantOffset := int64(30 + len("a.txt"))
	if e.CompressedOffset != wantOffset {
		t.Fatalf("CompressedOffset = %d, want %d", e.CompressedOffset, wantOffset)
	}
	if e.CompressedLength != int64(len(payload)) {
		t.Fatalf("CompressedLength = %d, want %d", e.CompressedLength, len(payload))
	}
}

func TestLocateZipStreamsSkipsStoredMember(t *testing.T) {
	payload := []byte("Hello, World!\n")
	data := buildZipArchive("a.txt", payload, uint32(len(payload)))
	// Flip the method fields (local header offset 8, central dir
	// relative offset computed the same way the builder uses) from
	// deflate to stored so the region discovery must skip it.
	data[8] = byte(zipMethodStored)
	centralMethodOffset := 30 + len("a.txt") + len(payload) + 10
	data[centralMethodOffset] = byte(zipMethodStored)

	extents, err := LocateZipStreams(readerAtBytes(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if len(extents) != 0 {
		t.Fatalf("got %d extents, want 0 for a stored member", len(extents))
	}
}

func TestLocateZipStreamsRejectsUnsupportedMethod(t *testing.T) {
	payload := []byte("Hello, World!\n")
	data := buildZipArchive("a.txt", payload, uint32(len(payload)))
	centralMethodOffset := 30 + len("a.txt") + len(payload) + 10
	data[centralMethodOffset] = 99

	if _, err := LocateZipStreams(readerAtBytes(data), int64(len(data))); err == nil {
		t.Fatal("expected error for unsupported method")
	}
}
