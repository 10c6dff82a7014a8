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
	"fmt"

	"github.com/0xsoniclabs/zkmem/common"
	"github.com/0xsoniclabs/zkmem/sha"
)

// hashPage computes the digest of a page's bytes by folding them through the
// compression function one block at a time, left to right, each block split
// into two digest-sized halves. This is the only hashing order the proving
// circuit accepts; any other order produces incompatible digests.
//
// The input length must be a multiple of the compression block size; fractional
// table layers are covered by the rounded-up table region, so a violation here
// is a geometry bug, not a data condition.
func hashPage(page []byte) common.Digest {
	if len(page)%sha.BlockBytes != 0 {
		panic(fmt.Sprintf("page length %d is not a multiple of the block size %d", len(page), sha.BlockBytes))
	}
	state := sha.InitState()
	for off := 0; off < len(page); off += sha.BlockBytes {
		var blockA, blockB common.Digest
		copy(blockA[:], page[off:off+common.DigestSize])
		copy(blockB[:], page[off+common.DigestSize:off+sha.BlockBytes])
		state = sha.Compress(state, blockA, blockB)
	}
	return state
}
