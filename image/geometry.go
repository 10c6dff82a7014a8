// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package image

import (
	"fmt"

	"github.com/0xsoniclabs/zkmem/common"
	"github.com/0xsoniclabs/zkmem/logger"
	"github.com/0xsoniclabs/zkmem/sha"
)

// divCeil computes ceil(a / b) via truncated integer division.
func divCeil(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// roundUp rounds a up to the nearest multiple of b.
func roundUp(a, b uint64) uint64 {
	return divCeil(a, b) * b
}

// PageTableInfo describes the layered merkle structure committing to the
// guest's memory. It is a pure function of the page-table base address and the
// page size; once computed it is never mutated.
//
// Each layer holds one digest per page of the layer below it, with the leaf
// layer (index 0) covering primary memory. The recursion terminates once a
// layer fits into less than one page; that remainder becomes the entries of
// the root page, whose digest is the commitment to the entire image.
type PageTableInfo struct {
	// PageSize is the number of bytes per page.
	PageSize uint64
	// PageTableBase is the address of the first table entry; it equals the
	// size of primary memory.
	PageTableBase uint64
	// TableSize is the total size of all non-root layers in bytes, rounded
	// up to the compression block size.
	TableSize uint64
	// RootAddr is the first address past the table, where the root entries end.
	RootAddr uint64
	// RootIndex is the index of the page holding the root entries.
	RootIndex uint64
	// RootPageAddr is the address of the page holding the root entries.
	RootPageAddr uint64
	// NumPages is the total page count of primary memory plus page table.
	NumPages uint64
	// NumRootEntries is the number of digests stored in the root page.
	NumRootEntries uint64
	// LayerSizes holds the byte size of each intermediate layer, leaf first.
	LayerSizes []uint64
}

// NewPageTableInfo computes the page-table geometry for an address space whose
// primary memory ends at pageTableBase. It panics when the configuration
// cannot produce a consistent layout, since that indicates a misconfigured
// deployment rather than a runtime condition.
func NewPageTableInfo(pageTableBase, pageSize uint64) PageTableInfo {
	maxMem := pageTableBase
	if maxMem < pageSize {
		panic(fmt.Sprintf("primary memory 0x%x smaller than one page of %d bytes", maxMem, pageSize))
	}

	var layers []uint64
	tableSize := uint64(0)
	remain := maxMem
	for remain >= pageSize {
		numPages := remain / pageSize
		remain = numPages * common.DigestSize
		layers = append(layers, remain)
		tableSize += remain
	}
	numPages := (maxMem + tableSize) / pageSize
	tableSize = roundUp(tableSize, sha.BlockBytes)
	rootAddr := pageTableBase + tableSize
	rootIndex := rootAddr / pageSize
	rootPageAddr := rootIndex * pageSize
	numRootEntries := (rootAddr - rootPageAddr) / common.DigestSize
	if rootIndex != numPages {
		panic(fmt.Sprintf("root index %d does not match page count %d", rootIndex, numPages))
	}

	log := logger.Logger()
	log.Debug().
		Uint64("pageSize", pageSize).
		Str("rootPageAddr", fmt.Sprintf("0x%08x", rootPageAddr)).
		Str("rootAddr", fmt.Sprintf("0x%08x", rootAddr)).
		Msg("page table geometry computed")

	return PageTableInfo{
		PageSize:       pageSize,
		PageTableBase:  pageTableBase,
		TableSize:      tableSize,
		RootAddr:       rootAddr,
		RootIndex:      rootIndex,
		RootPageAddr:   rootPageAddr,
		NumPages:       numPages,
		NumRootEntries: numRootEntries,
		LayerSizes:     layers,
	}
}

// PageAddr provides the address of the page with the given index.
func (i *PageTableInfo) PageAddr(pageIndex uint64) uint64 {
	return pageIndex * i.PageSize
}

// PageIndex provides the index of the page containing the given address.
func (i *PageTableInfo) PageIndex(addr uint64) uint64 {
	return addr / i.PageSize
}

// EntryAddr provides the address of the table entry holding the digest of the
// page with the given index.
func (i *PageTableInfo) EntryAddr(pageIndex uint64) uint64 {
	return i.PageTableBase + pageIndex*common.DigestSize
}
