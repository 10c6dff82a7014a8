// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayout_DefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLayout_RegisterAddressesAreDoubleWordSpaced(t *testing.T) {
	layout := Default()
	base := layout.RegisterBase()
	require.Equal(t, layout.System.Start, base)
	for idx := 0; idx < NumRegisters; idx++ {
		require.Equal(t, base+uint64(idx)*DoubleWordSize, layout.RegisterAddr(idx))
	}
}

func TestLayout_RegisterAddrPanicsOutOfRange(t *testing.T) {
	layout := Default()
	require.Panics(t, func() { layout.RegisterAddr(-1) })
	require.Panics(t, func() { layout.RegisterAddr(NumRegisters) })
}

func TestLayout_ValidateDetectsBrokenMaps(t *testing.T) {
	tests := map[string]func(*Layout){
		"zero page size":       func(l *Layout) { l.PageSize = 0 },
		"table below one page": func(l *Layout) { l.PageTable.Start = l.PageSize - 1; l.Text = Region{1, 2} },
		"empty region":         func(l *Layout) { l.Data.End = l.Data.Start },
		"overlapping regions":  func(l *Layout) { l.Stack.Start = l.Data.Start + 1 },
		"region out of bounds": func(l *Layout) { l.PageTable.End = l.MemSize + 1 },
		"system region too small": func(l *Layout) {
			l.System.End = l.System.Start + NumRegisters*DoubleWordSize - 1
			l.PageTable.Start = l.System.End
		},
	}
	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			layout := Default()
			corrupt(&layout)
			require.Error(t, layout.Validate())
		})
	}
}

func TestRegion_Contains(t *testing.T) {
	region := Region{Start: 0x1000, End: 0x2000}
	require.False(t, region.Contains(0xfff))
	require.True(t, region.Contains(0x1000))
	require.True(t, region.Contains(0x1fff))
	require.False(t, region.Contains(0x2000))
}
