// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk
//
// neewer-control - Neewer PL81-Pro USB serial controller
//
// A CLI tool for controlling and monitoring a Neewer PL81-Pro LED panel
// over its CH340 USB-serial adapter.

package main

import (
	"os"

	"github.com/m-rk/neewer-control/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
