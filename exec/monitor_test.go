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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xsoniclabs/zkmem/image"
	"github.com/0xsoniclabs/zkmem/platform"
)

// testLayout is a 256 KiB address space keeping monitor tests fast.
func testLayout() platform.Layout {
	return platform.Layout{
		MemSize:   0x40000,
		PageSize:  1024,
		Text:      platform.Region{Start: 0x00800, End: 0x10000},
		Data:      platform.Region{Start: 0x10000, End: 0x20000},
		Stack:     platform.Region{Start: 0x20000, End: 0x28000},
		System:    platform.Region{Start: 0x28000, End: 0x30000},
		PageTable: platform.Region{Start: 0x30000, End: 0x40000},
	}
}

func testMonitor(t *testing.T) *Monitor {
	t.Helper()
	layout := testLayout()
	program := &image.Program{
		Entry: layout.Text.Start,
		Image: []image.WordAt{
			{Addr: layout.Data.Start, Word: 0x04030201},
			{Addr: layout.Data.Start + 4, Word: 0x08070605},
		},
	}
	img, err := image.NewMemoryImage(program, layout)
	require.NoError(t, err)
	return NewMonitor(img)
}

func commitOp(m *Monitor) {
	m.SaveOp(OpResult{})
	m.Commit()
}

func TestMonitor_LoadsDecodeLittleEndian(t *testing.T) {
	m := testMonitor(t)
	addr := testLayout().Data.Start

	require.Equal(t, uint8(0x01), m.LoadU8(addr))
	require.Equal(t, uint8(0x02), m.LoadU8(addr+1))
	require.Equal(t, uint16(0x0201), m.LoadU16(addr))
	require.Equal(t, uint32(0x04030201), m.LoadU32(addr))
	require.Equal(t, uint64(0x0807060504030201), m.LoadU64(addr))
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, m.LoadArray(addr, 8))
}

func TestMonitor_MisalignedAccessPanics(t *testing.T) {
	m := testMonitor(t)
	addr := testLayout().Data.Start

	require.Panics(t, func() { m.LoadU16(addr + 1) })
	require.Panics(t, func() { m.LoadU32(addr + 2) })
	require.Panics(t, func() { m.LoadU64(addr + 4) })
	require.Panics(t, func() { m.StoreU16(addr+1, 0) })
	require.Panics(t, func() { m.StoreU32(addr+2, 0) })
	require.Panics(t, func() { m.StoreU64(addr+4, 0) })
}

func TestMonitor_OutOfBoundsAccessPanics(t *testing.T) {
	m := testMonitor(t)
	size := testLayout().MemSize

	require.Panics(t, func() { m.LoadU8(size) })
	require.Panics(t, func() { m.StoreU8(size, 1) })
}

func TestMonitor_StoresAreInvisibleUntilCommit(t *testing.T) {
	m := testMonitor(t)
	addr := testLayout().Stack.Start

	m.StoreU32(addr, 0x11223344)
	require.Equal(t, uint32(0), m.LoadU32(addr), "buffered store must not be visible")

	commitOp(m)
	require.Equal(t, uint32(0x11223344), m.LoadU32(addr))
}

func TestMonitor_CommitWithoutSaveOpPanics(t *testing.T) {
	m := testMonitor(t)
	m.StoreU8(testLayout().Stack.Start, 1)
	require.Panics(t, func() { m.Commit() })
}

func TestMonitor_CommitConsumesSavedOp(t *testing.T) {
	m := testMonitor(t)
	m.SaveOp(OpResult{PC: 4})

	saved, ok := m.RestoreOp()
	require.True(t, ok)
	require.Equal(t, uint64(4), saved.PC)

	m.Commit()
	_, ok = m.RestoreOp()
	require.False(t, ok)
	require.Panics(t, func() { m.Commit() }, "second commit must fail without a new save")
}

func TestMonitor_LastWritePerAddressWins(t *testing.T) {
	m := testMonitor(t)
	addr := testLayout().Stack.Start

	m.StoreU8(addr, 0xaa)
	m.StoreU8(addr, 0xbb)
	commitOp(m)
	require.Equal(t, uint8(0xbb), m.LoadU8(addr))
}

func TestMonitor_RegistersLiveInSystemRegion(t *testing.T) {
	m := testMonitor(t)
	layout := testLayout()

	m.StoreRegister(2, 0x1234567890abcdef)
	m.StoreRegister(3, 42)
	commitOp(m)

	require.Equal(t, uint64(0x1234567890abcdef), m.LoadRegister(2))
	require.Equal(t, []uint64{0x1234567890abcdef, 42}, m.LoadRegisters([]int{2, 3}))
	require.Equal(t, uint64(0x1234567890abcdef),
		m.LoadU64(layout.RegisterBase()+2*platform.DoubleWordSize))
}

func TestMonitor_LoadString(t *testing.T) {
	m := testMonitor(t)
	addr := testLayout().Stack.Start

	m.StoreRegion(addr, []byte("hello zkvm\x00"))
	commitOp(m)

	s, err := m.LoadString(addr)
	require.NoError(t, err)
	require.Equal(t, "hello zkvm", s)
}

func TestMonitor_LoadStringRejectsInvalidUtf8(t *testing.T) {
	m := testMonitor(t)
	addr := testLayout().Stack.Start

	m.StoreRegion(addr, []byte{0xff, 0xfe, 0x00})
	commitOp(m)

	_, err := m.LoadString(addr)
	require.ErrorIs(t, err, ErrInvalidString)
}

func TestMonitor_SyscallsAreRecordedAtCommit(t *testing.T) {
	m := testMonitor(t)

	commitOp(m)
	require.Empty(t, m.Syscalls())

	m.SaveOp(OpResult{Syscall: &SyscallRecord{ToGuest: []uint32{7}, RegA0: 1, RegA1: 2}})
	m.Commit()
	m.SaveOp(OpResult{Syscall: &SyscallRecord{RegA0: 3}})
	m.Commit()

	records := m.Syscalls()
	require.Len(t, records, 2)
	require.Equal(t, []uint32{7}, records[0].ToGuest)
	require.Equal(t, uint64(1), records[0].RegA0)
	require.Equal(t, uint64(3), records[1].RegA0)

	m.ClearSegment()
	require.Empty(t, m.Syscalls())
}

func TestMonitor_ClearSessionDiscardsBufferedWrites(t *testing.T) {
	m := testMonitor(t)
	addr := testLayout().Stack.Start

	m.StoreU8(addr, 0x55)
	m.ClearSession()
	commitOp(m)
	require.Equal(t, uint8(0), m.LoadU8(addr), "discarded write must not become visible")
}

func TestMonitor_ReadMemWriteMemCoverAllWidths(t *testing.T) {
	m := testMonitor(t)
	addr := testLayout().Stack.Start

	m.WriteMem(addr, AccessDoubleWord, 0x1122334455667788)
	commitOp(m)
	require.Equal(t, uint64(0x88), m.ReadMem(addr, AccessByte))
	require.Equal(t, uint64(0x7788), m.ReadMem(addr, AccessHalfWord))
	require.Equal(t, uint64(0x55667788), m.ReadMem(addr, AccessWord))
	require.Equal(t, uint64(0x1122334455667788), m.ReadMem(addr, AccessDoubleWord))

	m.WriteMem(addr, AccessByte, 0xff)
	commitOp(m)
	require.Equal(t, uint64(0x11223344556677ff), m.ReadMem(addr, AccessDoubleWord))
}
