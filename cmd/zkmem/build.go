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
	"fmt"
	"os"

	"github.com/pbnjay/memory"
	"github.com/urfave/cli/v2"

	"github.com/0xsoniclabs/zkmem/image"
	"github.com/0xsoniclabs/zkmem/logger"
	"github.com/0xsoniclabs/zkmem/platform"
)

var (
	programFlag = cli.StringFlag{
		Name:     "program",
		Usage:    "program image file with one '<hex-addr> <hex-word>' pair per line",
		Required: true,
	}
	outFlag = cli.StringFlag{
		Name:  "out",
		Usage: "write a snapshot of the constructed image to this file",
	}
	entryFlag = cli.Uint64Flag{
		Name:  "entry",
		Usage: "guest entry point",
		Value: platform.Default().Text.Start,
	}
)

var Build = cli.Command{
	Action: build,
	Name:   "build",
	Usage:  "builds the initial memory image of a program and prints its root",
	Flags: []cli.Flag{
		&programFlag,
		&outFlag,
		&entryFlag,
	},
}

func build(context *cli.Context) error {
	layout := platform.Default()
	if free := memory.FreeMemory(); free > 0 && free < layout.MemSize {
		log := logger.Logger()
		log.Warn().
			Uint64("memSize", layout.MemSize).
			Uint64("free", free).
			Msg("address space exceeds free system memory")
	}

	program, err := readProgramFile(context.String(programFlag.Name), context.Uint64(entryFlag.Name))
	if err != nil {
		return err
	}

	img, err := image.NewMemoryImage(program, layout)
	if err != nil {
		return err
	}
	fmt.Printf("root: %s\n", img.Root())

	if out := context.String(outFlag.Name); out != "" {
		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create snapshot file; %w", err)
		}
		if err := img.WriteSnapshot(file); err != nil {
			_ = file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		fmt.Printf("snapshot written to %s\n", out)
	}
	return nil
}
