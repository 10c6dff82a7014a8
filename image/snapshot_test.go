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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTripPreservesContentAndRoot(t *testing.T) {
	layout := testLayout()
	img, err := NewMemoryImage(testProgram(layout), layout)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, img.WriteSnapshot(&buf))

	restored, err := ReadSnapshot(&buf, layout)
	require.NoError(t, err)
	require.Equal(t, img.Root(), restored.Root())
	require.Equal(t, img.ReadByte(layout.Data.Start), restored.ReadByte(layout.Data.Start))
	require.NoError(t, restored.Check(layout.Data.Start))
}

func TestSnapshot_RejectsForeignData(t *testing.T) {
	_, err := ReadSnapshot(bytes.NewReader([]byte("not a snapshot at all, not even close")), testLayout())
	require.Error(t, err)
}

func TestSnapshot_RejectsMismatchedLayout(t *testing.T) {
	layout := testLayout()
	img, err := NewMemoryImage(&Program{}, layout)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, img.WriteSnapshot(&buf))

	other := layout
	other.PageSize = 2048
	_, err = ReadSnapshot(&buf, other)
	require.ErrorContains(t, err, "does not match the layout")
}

func TestSnapshot_RejectsCorruptedPayload(t *testing.T) {
	layout := testLayout()
	img, err := NewMemoryImage(&Program{}, layout)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, img.WriteSnapshot(&buf))

	data := buf.Bytes()
	data[len(data)-1] ^= 0xff
	_, err = ReadSnapshot(bytes.NewReader(data), layout)
	require.Error(t, err)
}

func TestSnapshot_RejectsTamperedRootHeader(t *testing.T) {
	layout := testLayout()
	img, err := NewMemoryImage(&Program{}, layout)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, img.WriteSnapshot(&buf))

	// The root digest sits at the end of the fixed header, after the magic,
	// version and three geometry fields.
	data := buf.Bytes()
	rootOffset := 4 + 2 + 8 + 8 + 8
	data[rootOffset] ^= 0xff
	_, err = ReadSnapshot(bytes.NewReader(data), layout)
	require.ErrorIs(t, err, ErrIntegrity)
}
