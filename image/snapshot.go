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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/0xsoniclabs/zkmem/common"
	"github.com/0xsoniclabs/zkmem/platform"
)

// Snapshot wire format: a fixed header identifying the geometry and the
// expected root, followed by the snappy-compressed memory buffer.
var snapshotMagic = [4]byte{'Z', 'K', 'M', 'I'}

const snapshotVersion uint16 = 1

type snapshotHeader struct {
	Magic         [4]byte
	Version       uint16
	PageSize      uint64
	MemSize       uint64
	PageTableBase uint64
	Root          common.Digest
}

// WriteSnapshot serializes the image into w. The buffer is compressed, the
// root digest is embedded so readers can verify the payload.
func (m *MemoryImage) WriteSnapshot(w io.Writer) error {
	header := snapshotHeader{
		Magic:         snapshotMagic,
		Version:       snapshotVersion,
		PageSize:      m.layout.PageSize,
		MemSize:       m.layout.MemSize,
		PageTableBase: m.layout.PageTable.Start,
		Root:          m.root,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write snapshot header; %w", err)
	}
	if _, err := w.Write(snappy.Encode(nil, m.buf)); err != nil {
		return fmt.Errorf("failed to write snapshot payload; %w", err)
	}
	return nil
}

// ReadSnapshot restores an image previously produced by WriteSnapshot. The
// snapshot must have been taken for the given layout, and the decompressed
// buffer must hash to the root recorded in the header.
func ReadSnapshot(r io.Reader, layout platform.Layout) (*MemoryImage, error) {
	var header snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read snapshot header; %w", err)
	}
	if !bytes.Equal(header.Magic[:], snapshotMagic[:]) {
		return nil, fmt.Errorf("not a memory image snapshot")
	}
	if header.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", header.Version)
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid memory layout; %w", err)
	}
	if header.PageSize != layout.PageSize || header.MemSize != layout.MemSize ||
		header.PageTableBase != layout.PageTable.Start {
		return nil, fmt.Errorf("snapshot geometry (page size %d, mem size 0x%x, table base 0x%x) does not match the layout",
			header.PageSize, header.MemSize, header.PageTableBase)
	}

	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot payload; %w", err)
	}
	buf, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot payload; %w", err)
	}
	if uint64(len(buf)) != layout.MemSize {
		return nil, fmt.Errorf("snapshot payload has %d bytes, expected 0x%x", len(buf), layout.MemSize)
	}

	img := &MemoryImage{
		buf:    buf,
		info:   NewPageTableInfo(layout.PageTable.Start, layout.PageSize),
		layout: layout,
	}
	img.HashPages()
	if img.root != header.Root {
		return nil, fmt.Errorf("%w: snapshot root %s does not match recomputed root %s",
			ErrIntegrity, header.Root, img.root)
	}
	return img, nil
}
