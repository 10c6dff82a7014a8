// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package image builds and maintains the guest's initial memory image with its
// embedded page-table merkle structure. The root digest of the page table is
// the single external commitment to the full memory state.
package image

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/0xsoniclabs/zkmem/common"
	"github.com/0xsoniclabs/zkmem/platform"
)

// ErrIntegrity is wrapped by all verification failures reported by Check.
var ErrIntegrity = errors.New("memory image integrity violation")

// MemoryImage is the full memory state of a guest: data, text, stack, system
// memory and the page table, in one flat byte buffer.
//
// Every page below the root index has its table entry equal to the digest of
// the page's bytes as of the last HashPages call; writes performed through
// WriteByte invalidate the tree until HashPages runs again.
type MemoryImage struct {
	buf    []byte
	info   PageTableInfo
	layout platform.Layout
	root   common.Digest
}

// NewMemoryImage constructs the initial memory image for a program: a zeroed
// address space with the program's words placed at their load addresses and
// the page table fully populated.
func NewMemoryImage(program *Program, layout platform.Layout) (*MemoryImage, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid memory layout; %w", err)
	}

	buf := make([]byte, layout.MemSize)
	for _, w := range program.Image {
		if w.Addr+platform.WordSize > layout.MemSize {
			return nil, fmt.Errorf("program word at 0x%x outside the address space", w.Addr)
		}
		binary.LittleEndian.PutUint32(buf[w.Addr:], w.Word)
	}

	img := &MemoryImage{
		buf:    buf,
		info:   NewPageTableInfo(layout.PageTable.Start, layout.PageSize),
		layout: layout,
	}
	img.HashPages()
	return img, nil
}

// Info provides the page-table geometry of this image.
func (m *MemoryImage) Info() PageTableInfo {
	return m.info
}

// Layout provides the memory map this image was built for.
func (m *MemoryImage) Layout() platform.Layout {
	return m.layout
}

// Size provides the total size of the addressable space in bytes.
func (m *MemoryImage) Size() uint64 {
	return uint64(len(m.buf))
}

// ReadByte provides the byte at the given address.
// It panics when the address is outside the addressable space.
func (m *MemoryImage) ReadByte(addr uint64) byte {
	m.checkBounds(addr)
	return m.buf[addr]
}

// WriteByte sets the byte at the given address. The page table is not updated
// until the next HashPages call. It panics when the address is outside the
// addressable space.
func (m *MemoryImage) WriteByte(addr uint64, value byte) {
	m.checkBounds(addr)
	m.buf[addr] = value
}

func (m *MemoryImage) checkBounds(addr uint64) {
	if addr >= uint64(len(m.buf)) {
		panic(fmt.Sprintf("address 0x%x outside the addressable space of 0x%x bytes", addr, len(m.buf)))
	}
}

// HashPages recomputes the full page-table merkle tree from the current
// buffer contents. Entries are written in increasing page order; since each
// page's entry lives in a higher-indexed page, a single pass propagates
// digests bottom-up through all layers. The root page's digest is derived
// last and stored as the image's commitment.
func (m *MemoryImage) HashPages() {
	for idx := uint64(0); idx < m.info.RootIndex; idx++ {
		pageAddr := m.info.PageAddr(idx)
		digest := hashPage(m.buf[pageAddr : pageAddr+m.info.PageSize])
		entryAddr := m.info.EntryAddr(idx)
		copy(m.buf[entryAddr:entryAddr+common.DigestSize], digest.Bytes())
	}
	m.root = hashPage(m.rootPageBytes())
}

// Root provides the merkle root over the full memory state as of the last
// HashPages call.
func (m *MemoryImage) Root() common.Digest {
	return m.root
}

func (m *MemoryImage) rootPageBytes() []byte {
	start := m.info.RootPageAddr
	return m.buf[start : start+m.info.NumRootEntries*common.DigestSize]
}

// Check verifies the integrity of the page-table path covering addr: starting
// at the page containing addr, each page's digest is recomputed from its bytes
// and compared against its table entry, following entries upward until the
// root page, whose digest is compared against Root.
func (m *MemoryImage) Check(addr uint64) error {
	if addr >= uint64(len(m.buf)) {
		return fmt.Errorf("%w: address 0x%x outside the addressable space", ErrIntegrity, addr)
	}
	pageIndex := m.info.PageIndex(addr)
	for pageIndex < m.info.RootIndex {
		pageAddr := m.info.PageAddr(pageIndex)
		expected := hashPage(m.buf[pageAddr : pageAddr+m.info.PageSize])
		entryAddr := m.info.EntryAddr(pageIndex)
		actual, err := common.DigestFromBytes(m.buf[entryAddr : entryAddr+common.DigestSize])
		if err != nil {
			return err
		}
		if expected != actual {
			return fmt.Errorf("%w: page %d digest %s does not match table entry %s",
				ErrIntegrity, pageIndex, expected, actual)
		}
		pageIndex = m.info.PageIndex(entryAddr)
	}

	if expected := hashPage(m.rootPageBytes()); expected != m.root {
		return fmt.Errorf("%w: root page digest %s does not match root %s",
			ErrIntegrity, expected, m.root)
	}
	return nil
}
