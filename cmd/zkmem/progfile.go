// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/0xsoniclabs/zkmem/image"
)

// readProgramFile parses a text program image: one "<hex-addr> <hex-word>"
// pair per line, '#' starting a comment, blank lines ignored.
func readProgramFile(path string, entry uint64) (*image.Program, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file; %w", err)
	}
	defer file.Close()

	program := &image.Program{Entry: entry}
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected '<addr> <word>', got %d fields", path, lineNo, len(fields))
		}
		addr, err := parseHex(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid address; %w", path, lineNo, err)
		}
		word, err := parseHex(fields[1], 32)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid word; %w", path, lineNo, err)
		}
		program.Image = append(program.Image, image.WordAt{Addr: addr, Word: uint32(word)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program file; %w", err)
	}
	return program, nil
}

func parseHex(s string, bits int) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, bits)
}
