// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package huffman

import "sync"

// Fixed Huffman tables are identical for every fixed block in every
// stream, so they are built once and shared, mirroring the teacher's
// fixedOnce/fixedHuffmanDecoder pair in compress/flate.
var (
	fixedOnce                                  sync.Once
	fixedLitLenFwd, fixedDistFwd                *ForwardTable
	fixedLitLenRev, fixedDistRev                *ReverseTable
	fixedErr                                     error
)

func initFixedTables() {
	fixedOnce.Do(func() {
		litLens := FixedLitLenLens()
		distLens := FixedDistLens()

		fixedLitLenFwd, fixedErr = BuildForwardTable(litLens)
		if fixedErr != nil {
			return
		}
		fixedDistFwd, fixedErr = BuildForwardTable(distLens)
		if fixedErr != nil {
			return
		}
		fixedLitLenRev, fixedErr = BuildReverseTable(litLens)
		if fixedErr != nil {
			return
		}
		fixedDistRev, fixedErr = BuildReverseTable(distLens)
	})
}

// FixedForwardTables returns the shared fixed-block decode tables.
func FixedForwardTables() (litLen, dist *ForwardTable, err error) {
	initFixedTables()
	return fixedLitLenFwd, fixedDistFwd, fixedErr
}

// FixedReverseTables returns the shared fixed-block encode tables.
func FixedReverseTables() (litLen, dist *ReverseTable, err error) {
	initFixedTables()
	return fixedLitLenRev, fixedDistRev, fixedErr
}
