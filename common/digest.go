// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"encoding/hex"
	"fmt"
)

// DigestSize is the number of bytes in a Digest.
const DigestSize = 32

// Digest is a 32-byte hash value committing to some range of memory.
// The zero value is a valid (all-zero) digest.
type Digest [DigestSize]byte

// DigestFromBytes converts a byte slice into a Digest.
// The input must be exactly DigestSize bytes long.
func DigestFromBytes(data []byte) (Digest, error) {
	var d Digest
	if len(data) != DigestSize {
		return d, fmt.Errorf("invalid digest length %d, expected %d", len(data), DigestSize)
	}
	copy(d[:], data)
	return d, nil
}

// Bytes provides the digest as a byte slice.
func (d Digest) Bytes() []byte {
	return d[:]
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
