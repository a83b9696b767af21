// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/m-rk/neewer-control/pkg/panel"
)

var (
	portsAll     bool
	portsDetails bool
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List candidate serial ports",
	Long: `List serial ports that look like the panel's USB-serial adapter.

The PL81-Pro enumerates as a CH340 adapter whose device node contains
"usbserial" (e.g. /dev/cu.usbserial-110 on macOS). The first candidate is
what other commands use when --port is not given; it is marked with '*'.

Examples:
  # Candidate ports only
  neewer-control ports

  # Every serial port on the system, with USB metadata
  neewer-control ports --all --details

Exit codes:
  0 - At least one candidate port found
  1 - No candidate ports
  2 - Enumeration error`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
	portsCmd.Flags().BoolVar(&portsAll, "all", false, "List every serial port, not just candidates")
	portsCmd.Flags().BoolVar(&portsDetails, "details", false, "Show USB metadata (VID:PID, serial number)")
}

func runPorts(cmd *cobra.Command, args []string) error {
	if portsDetails {
		return runPortsDetails()
	}

	names, err := panel.ListPorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Enumeration error: %v\n", err)
		os.Exit(2)
	}

	candidates := panel.FilterCandidates(names)

	shown := names
	if !portsAll {
		shown = candidates
	}

	for _, name := range shown {
		marker := " "
		if len(candidates) > 0 && name == candidates[0] {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
	}

	if len(candidates) == 0 {
		fmt.Println("No candidate ports found. Is the panel plugged in?")
		os.Exit(1)
	}

	return nil
}

func runPortsDetails() error {
	details, err := panel.ListPortDetails()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Enumeration error: %v\n", err)
		os.Exit(2)
	}

	names := make([]string, len(details))
	for i, d := range details {
		names[i] = d.Name
	}
	candidates := panel.FilterCandidates(names)

	pick := ""
	if len(candidates) > 0 {
		pick = candidates[0]
	}

	for _, d := range details {
		if !portsAll && !isCandidateName(candidates, d.Name) {
			continue
		}

		marker := " "
		if d.Name == pick {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, d.Name)

		if d.IsUSB {
			fmt.Printf("    USB %s:%s", d.VID, d.PID)
			if d.SerialNumber != "" {
				fmt.Printf("  serial=%s", d.SerialNumber)
			}
			fmt.Println()
			if d.Product != "" {
				fmt.Printf("    product: %s\n", d.Product)
			}
		}
	}

	if len(candidates) == 0 {
		fmt.Println("No candidate ports found. Is the panel plugged in?")
		os.Exit(1)
	}

	return nil
}

func isCandidateName(candidates []string, name string) bool {
	for _, c := range candidates {
		if c == name {
			return true
		}
	}
	return false
}
