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

// SyscallRecord captures one syscall performed by the guest. The monitor only
// records syscalls for the proving pipeline; it never interprets them.
type SyscallRecord struct {
	// ToGuest holds the words the syscall handler returned into guest memory.
	ToGuest []uint32
	// RegA0 and RegA1 are the syscall's register results.
	RegA0 uint64
	RegA1 uint64
}

// OpResult is the outcome of executing a single instruction. The execution
// loop hands it to the monitor via SaveOp before committing the instruction's
// writes.
type OpResult struct {
	// PC is the program counter after the instruction.
	PC uint64
	// ExtraCycles are additional prover cycles charged by the instruction.
	ExtraCycles uint64
	// Syscall is set when the instruction performed a syscall.
	Syscall *SyscallRecord
}
