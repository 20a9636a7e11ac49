// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// scumloader - SCuM firmware loader
//
// Loads binary RAM images into a Single Chip micro Mote through its
// programmer board and boots it.

package main

import (
	"os"

	"github.com/Thermoquad/scumloader/cmd"
)

func main() {
	// Flag and config file errors
	if err := cmd.Execute(); err != nil {
		os.Exit(2)
	}
}
