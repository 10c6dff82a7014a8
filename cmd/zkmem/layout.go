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

	"github.com/urfave/cli/v2"

	"github.com/0xsoniclabs/zkmem/image"
	"github.com/0xsoniclabs/zkmem/platform"
)

var (
	pageSizeFlag = cli.Uint64Flag{
		Name:  "page-size",
		Usage: "page size in bytes",
		Value: platform.Default().PageSize,
	}
	tableBaseFlag = cli.Uint64Flag{
		Name:  "table-base",
		Usage: "address of the page table (size of primary memory)",
		Value: platform.Default().PageTable.Start,
	}
)

var Layout = cli.Command{
	Action: layout,
	Name:   "layout",
	Usage:  "prints the page-table geometry of a memory configuration",
	Flags: []cli.Flag{
		&pageSizeFlag,
		&tableBaseFlag,
	},
}

func layout(context *cli.Context) (err error) {
	// Geometry assertions are fatal by design; report them as command errors.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid configuration: %v", r)
		}
	}()

	info := image.NewPageTableInfo(context.Uint64(tableBaseFlag.Name), context.Uint64(pageSizeFlag.Name))
	fmt.Printf("page size:        %d\n", info.PageSize)
	fmt.Printf("page table base:  0x%08x\n", info.PageTableBase)
	fmt.Printf("table size:       %d\n", info.TableSize)
	fmt.Printf("layers:           %v\n", info.LayerSizes)
	fmt.Printf("pages:            %d\n", info.NumPages)
	fmt.Printf("root address:     0x%08x\n", info.RootAddr)
	fmt.Printf("root page:        %d @ 0x%08x\n", info.RootIndex, info.RootPageAddr)
	fmt.Printf("root entries:     %d\n", info.NumRootEntries)
	return nil
}
