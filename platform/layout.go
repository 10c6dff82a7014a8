// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package platform describes the guest's memory map. All address-space
// parameters are carried by an explicit Layout value rather than package-level
// constants so that geometry can be exercised across multiple configurations.
package platform

import "fmt"

const (
	// WordSize is the width of a guest machine word in bytes.
	WordSize = 4
	// DoubleWordSize is the width of a guest register in bytes.
	DoubleWordSize = 8
	// NumRegisters is the size of the guest's register file.
	NumRegisters = 32
)

// Region is a half-open address interval [Start, End).
type Region struct {
	Start uint64
	End   uint64
}

// Size provides the number of bytes covered by the region.
func (r Region) Size() uint64 {
	return r.End - r.Start
}

// Contains reports whether addr falls within the region.
func (r Region) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// Layout is the memory map of a guest address space. The page table region
// starts immediately above primary data memory, so Text, Data, Stack and
// System must all fit below PageTable.Start.
type Layout struct {
	// MemSize is the total size of the addressable space in bytes,
	// covering primary memory, the page table and the root page.
	MemSize uint64
	// PageSize is the number of bytes per page.
	PageSize uint64

	Text      Region
	Data      Region
	Stack     Region
	System    Region
	PageTable Region
}

// Default provides the production memory map: a 224 MiB address space with
// 1 KiB pages and the page table placed at 0x0D000000.
func Default() Layout {
	return Layout{
		MemSize:   0x0E000000,
		PageSize:  1024,
		Text:      Region{Start: 0x00200800, End: 0x04000000},
		Data:      Region{Start: 0x04000000, End: 0x08000000},
		Stack:     Region{Start: 0x08000000, End: 0x0C000000},
		System:    Region{Start: 0x0C000000, End: 0x0D000000},
		PageTable: Region{Start: 0x0D000000, End: 0x0E000000},
	}
}

// RegisterBase provides the address of register x0. The register file is
// exposed as ordinary memory at the start of the system region.
func (l Layout) RegisterBase() uint64 {
	return l.System.Start
}

// RegisterAddr provides the address of register idx.
// It panics when idx is outside the register file.
func (l Layout) RegisterAddr(idx int) uint64 {
	if idx < 0 || idx >= NumRegisters {
		panic(fmt.Sprintf("register index %d out of range", idx))
	}
	return l.RegisterBase() + uint64(idx)*DoubleWordSize
}

// Validate checks the internal consistency of the layout.
func (l Layout) Validate() error {
	if l.PageSize == 0 {
		return fmt.Errorf("page size must not be zero")
	}
	if l.PageTable.Start < l.PageSize {
		return fmt.Errorf("page table base 0x%x below page size %d", l.PageTable.Start, l.PageSize)
	}
	regions := []struct {
		name   string
		region Region
	}{
		{"text", l.Text},
		{"data", l.Data},
		{"stack", l.Stack},
		{"system", l.System},
		{"page table", l.PageTable},
	}
	var prevEnd uint64
	for _, r := range regions {
		if r.region.Start >= r.region.End {
			return fmt.Errorf("%s region is empty", r.name)
		}
		if r.region.Start < prevEnd {
			return fmt.Errorf("%s region overlaps its predecessor", r.name)
		}
		if r.region.End > l.MemSize {
			return fmt.Errorf("%s region exceeds the address space", r.name)
		}
		prevEnd = r.region.End
	}
	if l.System.Size() < NumRegisters*DoubleWordSize {
		return fmt.Errorf("system region too small for the register file")
	}
	return nil
}
