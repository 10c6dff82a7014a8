// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package exec

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/0xsoniclabs/zkmem/image"
	"github.com/0xsoniclabs/zkmem/sha"
)

// Paging cost constants, in cycles of the proving circuit's hash stages.
const (
	shaInitCycles = 5
	shaLoadCycles = 16
	shaMainCycles = 52
)

// cyclesPerPage is the prover cost of paging in one page hashed from the
// given number of compression blocks.
func cyclesPerPage(blocksPerPage uint64) uint64 {
	return 1 + shaInitCycles + (shaLoadCycles+shaMainCycles)*blocksPerPage
}

// pageFaults tracks which pages the guest has touched, split by direction.
// Session sets accumulate every page charged since the run started; segment
// sets hold only the pages first charged during the current segment, which is
// what the pipeline bills to the segment being proven.
type pageFaults struct {
	sessionReads  *bitset.BitSet
	sessionWrites *bitset.BitSet
	segmentReads  *bitset.BitSet
	segmentWrites *bitset.BitSet
}

func newPageFaults(numPages uint64) pageFaults {
	bits := uint(numPages + 1) // one extra slot for the root page
	return pageFaults{
		sessionReads:  bitset.New(bits),
		sessionWrites: bitset.New(bits),
		segmentReads:  bitset.New(bits),
		segmentWrites: bitset.New(bits),
	}
}

// includeRead charges a page read unless the session already paid for it.
func (f *pageFaults) includeRead(pageIndex uint64) {
	if !f.sessionReads.Test(uint(pageIndex)) {
		f.sessionReads.Set(uint(pageIndex))
		f.segmentReads.Set(uint(pageIndex))
	}
}

// includeWrite charges a page write unless the session already paid for it.
func (f *pageFaults) includeWrite(pageIndex uint64) {
	if !f.sessionWrites.Test(uint(pageIndex)) {
		f.sessionWrites.Set(uint(pageIndex))
		f.segmentWrites.Set(uint(pageIndex))
	}
}

func (f *pageFaults) clearSegment() {
	f.segmentReads.ClearAll()
	f.segmentWrites.ClearAll()
}

func (f *pageFaults) clearSession() {
	f.clearSegment()
	f.sessionReads.ClearAll()
	f.sessionWrites.ClearAll()
}

func pages(set *bitset.BitSet) []uint64 {
	out := make([]uint64, 0, set.Count())
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		out = append(out, uint64(i))
	}
	return out
}

// pagingCycles sums the paging cost of every page in the set. The root page
// holds fewer entries than a full page and is charged accordingly.
func pagingCycles(set *bitset.BitSet, info image.PageTableInfo) uint64 {
	blocksPerPage := info.PageSize / sha.BlockBytes
	total := uint64(0)
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		if uint64(i) == info.RootIndex {
			total += cyclesPerPage(info.NumRootEntries / 2)
		} else {
			total += cyclesPerPage(blocksPerPage)
		}
	}
	return total
}
