// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package puffin

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/go-puffin/internal/blockcache"
	"github.com/google/go-puffin/internal/container"
	"github.com/google/go-puffin/internal/digest"
)

// Debug gates the warnings PuffinStream logs when it puffs an extent
// afresh or finds a cached entry failing its content check. It is
// checked only outside the hot decode path. The transcoder's warning
// about a Huffman table with no non-zero code lengths is logged
// whether or not Debug is set.
var Debug bool

// puffHeadroom bounds the scratch buffer allocated to puff one
// extent, the same generous multiple PuffStream/HuffStream use.
const puffHeadroom = 2

// PuffinStream presents puff-space — the concatenation of each
// DEFLATE extent's puffed bytes, in extent order — as a random-access
// io.ReaderAt and io.WriterAt, puffing (and, on write, huffing)
// extents on demand and caching their puffed bytes in a bounded
// blockcache.Cache so a repeatedly-read region isn't re-puffed on
// every call.
type PuffinStream struct {
	mu      sync.Mutex
	deflate io.ReaderAt
	extents []container.Extent
	cache   *blockcache.Cache

	// puffLen[i] is the puff-byte length of extents[i], or -1 if
	// extents[i] has never been puffed. Once known it is never
	// forgotten, even if the cached bytes themselves are evicted,
	// so puff-space addressing stays stable.
	puffLen []int64

	// override holds puff bytes written back via WriteAt for an
	// extent, superseding what Puff(extents[i]) would produce, until
	// WriteDeflateTo re-huffs them.
	override [][]byte

	// contentHash[i] is digest.Content of the puff bytes most recently
	// puffed (or written) for extents[i], recorded whenever puffLen[i]
	// is. A cache hit is checked against it before being trusted, so a
	// stale or corrupted cache entry is detected rather than served.
	contentHash []uint64
}

// avgPuffedBlockBytes is the assumed size of one cached entry, used
// only to translate the caller's cacheBlocks count into blockcache's
// byte budget.
const avgPuffedBlockBytes = 32 * 1024

// NewPuffinStream builds a PuffinStream over the DEFLATE extents of
// deflate (as located by LocateGzipStreams, LocateZipStreams, or
// supplied directly), keeping at most cacheBlocks puffed extents'
// worth of bytes in memory at a time.
func NewPuffinStream(deflate io.ReaderAt, extents []container.Extent, cacheBlocks int) (*PuffinStream, error) {
	if len(extents) == 0 {
		return nil, fmt.Errorf("puffin: NewPuffinStream requires at least one extent")
	}
	if cacheBlocks < 1 {
		cacheBlocks = 1
	}

	puffLen := make([]int64, len(extents))
	for i := range puffLen {
		puffLen[i] = -1
	}

	return &PuffinStream{
		deflate:     deflate,
		extents:     append([]container.Extent(nil), extents...),
		cache:       blockcache.New(cacheBlocks*avgPuffedBlockBytes, avgPuffedBlockBytes),
		puffLen:     puffLen,
		override:    make([][]byte, len(extents)),
		contentHash: make([]uint64, len(extents)),
	}, nil
}

// Size returns the total puff-space length, puffing every extent that
// hasn't been puffed yet.
func (s *PuffinStream) Size() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for i := range s.extents {
		block, err := s.puffedBytesLocked(i)
		if err != nil {
			return 0, err
		}
		total += int64(len(block))
	}
	return total, nil
}

// ReadAt implements io.ReaderAt over puff-space.
func (s *PuffinStream) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("puffin: ReadAt with negative offset %d", off)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for total < len(p) {
		i, extentOff, err := s.locateLocked(off + int64(total))
		if err != nil {
			return total, err
		}
		block, err := s.puffedBytesLocked(i)
		if err != nil {
			return total, err
		}

		avail := block[extentOff:]
		n := copy(p[total:], avail)
		total += n
		if n == 0 {
			// Ran past the end of puff-space.
			return total, io.EOF
		}
	}
	return total, nil
}

// WriteAt implements io.WriterAt over puff-space: p replaces the puff
// bytes of whichever single extent currently occupies [off, off+len(p)).
// off must be the start of an extent and len(p) that extent's full
// puff length; a partial write, or one spanning two extents, is
// rejected. This matches the grain at which puffin's external
// differ/patcher operate (one DEFLATE region at a time).
func (s *PuffinStream) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("puffin: WriteAt with negative offset %d", off)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, extentOff, err := s.locateLocked(off)
	if err != nil {
		return 0, err
	}
	block, err := s.puffedBytesLocked(i)
	if err != nil {
		return 0, err
	}
	if extentOff != 0 || len(p) != len(block) {
		return 0, fmt.Errorf("puffin: WriteAt must replace an entire extent's puff bytes at once (got %d bytes at extent offset %d, extent is %d bytes)", len(p), extentOff, len(block))
	}

	replacement := append([]byte(nil), p...)
	s.override[i] = replacement
	s.contentHash[i] = digest.Content(replacement)
	s.cache.Add(s.cacheKey(i), replacement)
	return len(p), nil
}

// WriteDeflateTo writes every extent's current DEFLATE bytes to w at
// their original compressed offsets: untouched extents are copied
// through verbatim, extents overridden via WriteAt are re-huffed from
// their replacement puff bytes.
func (s *PuffinStream) WriteDeflateTo(w io.WriterAt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, extent := range s.extents {
		if s.override[i] == nil {
			buf := make([]byte, extent.CompressedLength)
			section := io.NewSectionReader(s.deflate, extent.CompressedOffset, extent.CompressedLength)
			if _, err := section.ReadAt(buf, 0); err != nil {
				return fmt.Errorf("puffin: copying untouched extent %d: %w", i, err)
			}
			if _, err := w.WriteAt(buf, extent.CompressedOffset); err != nil {
				return err
			}
			continue
		}

		out := make([]byte, len(s.override[i])*puffHeadroom+64)
		n, err := Huff(s.override[i], out)
		if err != nil {
			return fmt.Errorf("puffin: re-huffing extent %d: %w", i, err)
		}
		if _, err := w.WriteAt(out[:n], extent.CompressedOffset); err != nil {
			return err
		}
	}
	return nil
}

// locateLocked finds which extent covers puff-space offset off, and
// the offset within that extent's puff bytes, puffing extents in
// order as needed to discover unknown lengths. It returns io.EOF if
// off lies at or past the end of puff-space.
func (s *PuffinStream) locateLocked(off int64) (index int, extentOffset int64, err error) {
	var cumulative int64
	for i := range s.extents {
		length, err := s.puffLenLocked(i)
		if err != nil {
			return 0, 0, err
		}
		if off < cumulative+length {
			return i, off - cumulative, nil
		}
		cumulative += length
	}
	return 0, 0, io.EOF
}

// puffLenLocked returns extents[i]'s puff length, puffing it if its
// length isn't already known.
func (s *PuffinStream) puffLenLocked(i int) (int64, error) {
	if s.puffLen[i] >= 0 {
		return s.puffLen[i], nil
	}
	block, err := s.puffedBytesLocked(i)
	if err != nil {
		return 0, err
	}
	return int64(len(block)), nil
}

func (s *PuffinStream) cacheKey(i int) blockcache.Key {
	e := s.extents[i]
	return blockcache.Key{Extent: digest.Extent(e.CompressedOffset, e.CompressedLength), Offset: 0}
}

// puffedBytesLocked returns extent i's current puff bytes: an
// override from WriteAt if one exists, the cache if it's still
// resident, or a fresh Puff of the underlying DEFLATE bytes.
func (s *PuffinStream) puffedBytesLocked(i int) ([]byte, error) {
	if s.override[i] != nil {
		s.puffLen[i] = int64(len(s.override[i]))
		return s.override[i], nil
	}

	key := s.cacheKey(i)
	if cached, ok := s.cache.Get(key); ok {
		if digest.Content(cached) == s.contentHash[i] {
			s.puffLen[i] = int64(len(cached))
			return cached, nil
		}
		if Debug {
			slog.Warn("puffinstream cache entry failed content check, re-puffing", "index", i, "compressedOffset", s.extents[i].CompressedOffset)
		}
	}

	if Debug {
		slog.Warn("puffinstream re-puffing extent", "index", i, "compressedOffset", s.extents[i].CompressedOffset)
	}

	extent := s.extents[i]
	deflateBuf := make([]byte, extent.CompressedLength)
	section := io.NewSectionReader(s.deflate, extent.CompressedOffset, extent.CompressedLength)
	if _, err := section.ReadAt(deflateBuf, 0); err != nil {
		return nil, fmt.Errorf("puffin: reading extent %d DEFLATE bytes: %w", i, err)
	}

	puffBuf := make([]byte, int64(len(deflateBuf))*puffHeadroom+64)
	n, err := Puff(deflateBuf, puffBuf)
	if err != nil {
		return nil, fmt.Errorf("puffin: puffing extent %d: %w", i, err)
	}
	block := puffBuf[:n]
	s.puffLen[i] = int64(n)
	s.contentHash[i] = digest.Content(block)
	s.cache.Add(key, block)
	return block, nil
}
