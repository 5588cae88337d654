// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package blockcache holds puffed bytes so PuffinStream can answer
// repeated random-access reads into the same region of a large
// archive without re-puffing that region's extent every time.
package blockcache

import (
	"hash/maphash"
	"sync"

	tinylfu "github.com/dgryski/go-tinylfu"
)

// Key identifies one decoded block: which container extent it came
// from and the compressed-stream byte offset its checkpoint begins
// at.
type Key struct {
	Extent uint64 // digest.Extent(compressedOffset, compressedLength)
	Offset int64  // checkpoint.ByteOffset within that extent
}

// Cache holds decoded block bytes keyed by Key, evicting the least
// valuable entries once the number of cached blocks exceeds its
// budget.
type Cache struct {
	mu   sync.Mutex
	lfu  *tinylfu.T[Key, []byte]
	seed maphash.Seed
}

// New creates a cache sized to hold approximately budgetBytes worth
// of decoded blocks, assuming each decoded block is about
// avgBlockBytes long. avgBlockBytes only needs to be a reasonable
// guess: tinylfu's admission policy, not perfect sizing, is what
// keeps the working set hot.
func New(budgetBytes, avgBlockBytes int) *Cache {
	if avgBlockBytes <= 0 {
		avgBlockBytes = 1
	}
	entries := budgetBytes / avgBlockBytes
	if entries < 1 {
		entries = 1
	}

	c := &Cache{seed: maphash.MakeSeed()}
	c.lfu = tinylfu.New[Key, []byte](entries, entries*10, c.hash)
	return c
}

func (c *Cache) hash(k Key) uint64 { return maphash.Comparable(c.seed, k) }

// Get returns the cached block for k, if present.
func (c *Cache) Get(k Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lfu.Get(k)
}

// Add records block as the decoded content for k, possibly evicting
// another entry to stay within budget.
func (c *Cache) Add(k Key, block []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lfu.Add(k, block)
}
