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

import "fmt"

// AccessSize is the width of a single guest memory access.
type AccessSize int

const (
	AccessByte AccessSize = iota
	AccessHalfWord
	AccessWord
	AccessDoubleWord
)

// ReadMem reads a value of the given width, widened to 64 bits. This is the
// entry point the instruction decoder drives loads through.
func (m *Monitor) ReadMem(addr uint64, size AccessSize) uint64 {
	switch size {
	case AccessByte:
		return uint64(m.LoadU8(addr))
	case AccessHalfWord:
		return uint64(m.LoadU16(addr))
	case AccessWord:
		return uint64(m.LoadU32(addr))
	case AccessDoubleWord:
		return m.LoadU64(addr)
	default:
		panic(fmt.Sprintf("unknown access size %d", size))
	}
}

// WriteMem buffers a store of the given width, truncating value to it. This
// is the entry point the instruction decoder drives stores through.
func (m *Monitor) WriteMem(addr uint64, size AccessSize, value uint64) {
	switch size {
	case AccessByte:
		m.StoreU8(addr, uint8(value))
	case AccessHalfWord:
		m.StoreU16(addr, uint16(value))
	case AccessWord:
		m.StoreU32(addr, uint32(value))
	case AccessDoubleWord:
		m.StoreU64(addr, value)
	default:
		panic(fmt.Sprintf("unknown access size %d", size))
	}
}
