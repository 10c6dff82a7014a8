// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package exec mediates every memory access the guest performs. The Monitor
// buffers an instruction's stores until the execution loop commits them,
// enforces access alignment, and tracks the per-page touch sets the proving
// pipeline charges paging cost for.
//
// The monitor is exclusively owned by a single execution loop; none of its
// methods are safe for concurrent use.
package exec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/0xsoniclabs/zkmem/image"
	"github.com/0xsoniclabs/zkmem/platform"
)

// ErrInvalidString is reported when a guest string is not valid UTF-8.
var ErrInvalidString = errors.New("guest string is not valid UTF-8")

// Monitor wraps a memory image with transactional access semantics: loads
// read committed state immediately, stores are buffered per instruction and
// applied atomically by Commit. Misaligned accesses, out-of-bounds accesses
// and commits without a saved instruction result are caller contract
// violations and panic.
type Monitor struct {
	image  *image.MemoryImage
	info   image.PageTableInfo
	layout platform.Layout

	// pendingWrites buffers this instruction's stores by absolute address;
	// the latest value per address wins at commit time.
	pendingWrites map[uint64]byte
	opResult      *OpResult
	syscalls      []SyscallRecord
	faults        pageFaults
}

// NewMonitor constructs a monitor exclusively owning the given image.
func NewMonitor(img *image.MemoryImage) *Monitor {
	return &Monitor{
		image:         img,
		info:          img.Info(),
		layout:        img.Layout(),
		pendingWrites: map[uint64]byte{},
		faults:        newPageFaults(img.Info().NumPages),
	}
}

// Image provides the wrapped memory image.
func (m *Monitor) Image() *image.MemoryImage {
	return m.image
}

// touch charges the accessed page and every page on its path to the root,
// skipping pages the session has already paid for.
func (m *Monitor) touch(addr uint64, write bool) {
	for {
		pageIndex := m.info.PageIndex(addr)
		m.faults.includeRead(pageIndex)
		if write {
			m.faults.includeWrite(pageIndex)
		}
		if pageIndex == m.info.RootIndex {
			return
		}
		addr = m.info.EntryAddr(pageIndex)
	}
}

// LoadU8 reads one byte of committed state.
func (m *Monitor) LoadU8(addr uint64) uint8 {
	if addr >= m.image.Size() {
		panic(fmt.Sprintf("load at 0x%x outside the addressable space of 0x%x bytes", addr, m.image.Size()))
	}
	m.touch(addr, false)
	return m.image.ReadByte(addr)
}

// LoadU16 reads a little-endian half word. The address must be 2-byte aligned.
func (m *Monitor) LoadU16(addr uint64) uint16 {
	requireAligned(addr, 2, "load")
	return binary.LittleEndian.Uint16(m.LoadArray(addr, 2))
}

// LoadU32 reads a little-endian word. The address must be 4-byte aligned.
func (m *Monitor) LoadU32(addr uint64) uint32 {
	requireAligned(addr, platform.WordSize, "load")
	return binary.LittleEndian.Uint32(m.LoadArray(addr, platform.WordSize))
}

// LoadU64 reads a little-endian double word. The address must be 8-byte aligned.
func (m *Monitor) LoadU64(addr uint64) uint64 {
	requireAligned(addr, platform.DoubleWordSize, "load")
	return binary.LittleEndian.Uint64(m.LoadArray(addr, platform.DoubleWordSize))
}

// LoadArray reads n consecutive bytes of committed state.
func (m *Monitor) LoadArray(addr uint64, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = m.LoadU8(addr + uint64(i))
	}
	return out
}

// LoadString reads a zero-terminated UTF-8 string starting at addr.
func (m *Monitor) LoadString(addr uint64) (string, error) {
	var raw []byte
	for {
		b := m.LoadU8(addr)
		if b == 0 {
			break
		}
		raw = append(raw, b)
		addr++
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidString, raw)
	}
	return string(raw), nil
}

// LoadRegister reads guest register idx from its slot in the system region.
func (m *Monitor) LoadRegister(idx int) uint64 {
	return m.LoadU64(m.layout.RegisterAddr(idx))
}

// LoadRegisters reads the given guest registers.
func (m *Monitor) LoadRegisters(idxs []int) []uint64 {
	out := make([]uint64, len(idxs))
	for i, idx := range idxs {
		out[i] = m.LoadRegister(idx)
	}
	return out
}

// StoreU8 buffers a one-byte store. The write is not visible to loads until
// Commit applies it.
func (m *Monitor) StoreU8(addr uint64, value uint8) {
	if addr >= m.image.Size() {
		panic(fmt.Sprintf("store at 0x%x outside the addressable space of 0x%x bytes", addr, m.image.Size()))
	}
	m.touch(addr, true)
	m.pendingWrites[addr] = value
}

// StoreU16 buffers a little-endian half-word store. The address must be
// 2-byte aligned.
func (m *Monitor) StoreU16(addr uint64, value uint16) {
	requireAligned(addr, 2, "store")
	var data [2]byte
	binary.LittleEndian.PutUint16(data[:], value)
	m.StoreRegion(addr, data[:])
}

// StoreU32 buffers a little-endian word store. The address must be 4-byte
// aligned.
func (m *Monitor) StoreU32(addr uint64, value uint32) {
	requireAligned(addr, platform.WordSize, "store")
	var data [platform.WordSize]byte
	binary.LittleEndian.PutUint32(data[:], value)
	m.StoreRegion(addr, data[:])
}

// StoreU64 buffers a little-endian double-word store. The address must be
// 8-byte aligned.
func (m *Monitor) StoreU64(addr uint64, value uint64) {
	requireAligned(addr, platform.DoubleWordSize, "store")
	var data [platform.DoubleWordSize]byte
	binary.LittleEndian.PutUint64(data[:], value)
	m.StoreRegion(addr, data[:])
}

// StoreRegion buffers a store of the given bytes starting at addr.
func (m *Monitor) StoreRegion(addr uint64, data []byte) {
	for i, b := range data {
		m.StoreU8(addr+uint64(i), b)
	}
}

// StoreRegister buffers a store to guest register idx.
func (m *Monitor) StoreRegister(idx int, value uint64) {
	m.StoreU64(m.layout.RegisterAddr(idx), value)
}

// SaveOp hands the monitor the result of the instruction being executed. The
// execution loop must call it exactly once per instruction before Commit.
func (m *Monitor) SaveOp(result OpResult) {
	m.opResult = &result
}

// RestoreOp provides the saved but not yet committed instruction result.
func (m *Monitor) RestoreOp() (OpResult, bool) {
	if m.opResult == nil {
		return OpResult{}, false
	}
	return *m.opResult, true
}

// Commit atomically applies the buffered writes of the current instruction,
// consumes the saved instruction result and records its syscall, if any.
// Committing without a prior SaveOp is a broken instruction-boundary contract
// and panics.
func (m *Monitor) Commit() {
	if m.opResult == nil {
		panic("commit without a saved instruction result")
	}
	for addr, value := range m.pendingWrites {
		m.image.WriteByte(addr, value)
	}
	clear(m.pendingWrites)
	result := *m.opResult
	m.opResult = nil
	if result.Syscall != nil {
		m.syscalls = append(m.syscalls, *result.Syscall)
	}
}

// Syscalls provides the syscall records of the current segment, in commit
// order.
func (m *Monitor) Syscalls() []SyscallRecord {
	return m.syscalls
}

// SegmentPageReads provides the indices of pages first read during the
// current segment, in ascending order.
func (m *Monitor) SegmentPageReads() []uint64 {
	return pages(m.faults.segmentReads)
}

// SegmentPageWrites provides the indices of pages first written during the
// current segment, in ascending order.
func (m *Monitor) SegmentPageWrites() []uint64 {
	return pages(m.faults.segmentWrites)
}

// SegmentPagingCycles provides the prover cycles the current segment is
// charged for paging in the pages it touched first.
func (m *Monitor) SegmentPagingCycles() uint64 {
	return pagingCycles(m.faults.segmentReads, m.info) +
		pagingCycles(m.faults.segmentWrites, m.info)
}

// SessionPagingCycles provides the cumulative paging cost of all pages
// touched since the session started.
func (m *Monitor) SessionPagingCycles() uint64 {
	return pagingCycles(m.faults.sessionReads, m.info) +
		pagingCycles(m.faults.sessionWrites, m.info)
}

// ClearSegment resets the per-segment state at a proof-segment boundary: the
// syscall log and the pending touch deltas. Knowledge of which pages the
// session already paid for is retained.
func (m *Monitor) ClearSegment() {
	m.syscalls = nil
	m.faults.clearSegment()
}

// ClearSession resets all monitor state for a fresh top-level run, including
// still-buffered writes and the cumulative touch history.
func (m *Monitor) ClearSession() {
	m.ClearSegment()
	m.faults.clearSession()
	clear(m.pendingWrites)
}

func requireAligned(addr, width uint64, kind string) {
	if addr%width != 0 {
		panic(fmt.Sprintf("unaligned %s of width %d at 0x%x", kind, width, addr))
	}
}
