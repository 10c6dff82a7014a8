// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package journal persists the per-segment accounting the proving pipeline
// consumes: which pages a segment paged in, what paging cost it owes, and the
// syscalls it performed.
package journal

//go:generate mockgen -source journal.go -destination journal_mocks.go -package journal

import (
	"errors"

	"github.com/0xsoniclabs/zkmem/common"
	"github.com/0xsoniclabs/zkmem/exec"
)

// ErrNotFound is reported when no record exists for a requested segment.
var ErrNotFound = errors.New("segment record not found")

// Record is the durable state of one proof segment.
type Record struct {
	// Index is the position of the segment within the session.
	Index uint32 `cbor:"1,keyasint"`
	// Root is the memory commitment at the segment boundary.
	Root common.Digest `cbor:"2,keyasint"`
	// Syscalls lists the syscalls committed during the segment, in order.
	Syscalls []exec.SyscallRecord `cbor:"3,keyasint,omitempty"`
	// PageReads and PageWrites are the pages first charged in this segment.
	PageReads  []uint64 `cbor:"4,keyasint,omitempty"`
	PageWrites []uint64 `cbor:"5,keyasint,omitempty"`
	// PagingCycles is the prover cost of paging in the pages above.
	PagingCycles uint64 `cbor:"6,keyasint"`
}

// Store is a durable sink of segment records.
type Store interface {
	// Put persists a record, replacing any record with the same index.
	Put(record Record) error
	// Get provides the record of the given segment, or ErrNotFound.
	Get(index uint32) (Record, error)
	// Last provides the highest stored segment index; ok is false when the
	// store is empty.
	Last() (index uint32, ok bool, err error)
	// Close flushes and releases the store.
	Close() error
}

// CutSegment snapshots the monitor's segment state into a record, persists it
// and resets the monitor for the next segment. The monitor's segment deltas
// are consumed even when nothing was touched, so back-to-back cuts produce
// empty but well-formed records.
func CutSegment(m *exec.Monitor, index uint32, store Store) (Record, error) {
	record := Record{
		Index:        index,
		Root:         m.Image().Root(),
		Syscalls:     append([]exec.SyscallRecord(nil), m.Syscalls()...),
		PageReads:    m.SegmentPageReads(),
		PageWrites:   m.SegmentPageWrites(),
		PagingCycles: m.SegmentPagingCycles(),
	}
	if err := store.Put(record); err != nil {
		return Record{}, err
	}
	m.ClearSegment()
	return record, nil
}
