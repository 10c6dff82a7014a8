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

	"github.com/urfave/cli/v2"

	"github.com/0xsoniclabs/zkmem/image"
	"github.com/0xsoniclabs/zkmem/platform"
)

var (
	snapshotFlag = cli.StringFlag{
		Name:     "snapshot",
		Usage:    "memory image snapshot to verify",
		Required: true,
	}
	addrFlag = cli.Uint64SliceFlag{
		Name:  "addr",
		Usage: "addresses to verify; defaults to every region start and the root page",
	}
)

var Verify = cli.Command{
	Action: verify,
	Name:   "verify",
	Usage:  "checks the page-table integrity of a memory image snapshot",
	Flags: []cli.Flag{
		&snapshotFlag,
		&addrFlag,
	},
}

func verify(context *cli.Context) error {
	layout := platform.Default()
	file, err := os.Open(context.String(snapshotFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to open snapshot; %w", err)
	}
	defer file.Close()

	img, err := image.ReadSnapshot(file, layout)
	if err != nil {
		return err
	}

	addrs := context.Uint64Slice(addrFlag.Name)
	if len(addrs) == 0 {
		addrs = []uint64{
			layout.Text.Start,
			layout.Data.Start,
			layout.Stack.Start,
			layout.System.Start,
			img.Info().RootPageAddr,
		}
	}
	for _, addr := range addrs {
		if err := img.Check(addr); err != nil {
			return err
		}
		fmt.Printf("0x%08x: ok\n", addr)
	}
	fmt.Printf("root: %s\n", img.Root())
	return nil
}
