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

// WordAt is a single initial-memory word produced by a program loader.
type WordAt struct {
	Addr uint64
	Word uint32
}

// Program is the loader's view of an executable: an ordered list of initial
// memory words plus the guest's entry point. This package places the words
// into the image but never interprets them.
type Program struct {
	// Entry is the address execution starts at.
	Entry uint64
	// Image holds the initial memory contents in load order.
	Image []WordAt
}
