// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/m-rk/neewer-control/pkg/panel"
)

var statusTimeout time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Listen for status frames from the panel",
	Long: `Open the port and print every status frame until the timeout.

The panel has no query command: it reports on its own whenever its state
changes and echoes every accepted command. A quiet panel is therefore
normal; turn a physical knob while this runs to produce output.

With --url the same probe runs against a 'serve' bridge, which replays its
last known status on connect, so a live bridge usually answers instantly.

Examples:
  neewer-control status
  neewer-control status --timeout 10s
  neewer-control status --url ws://pi.local:8517/ws

Exit codes:
  0 - At least one status frame received
  1 - Timeout with no frames
  2 - Connection error`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 3*time.Second, "How long to listen")
	registerRemoteFlags(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if remoteURL != "" {
		return runStatusRemote()
	}
	port, err := effectivePort()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Port error: %v\n", err)
		os.Exit(2)
	}

	statuses := make(chan panel.Status, 32)
	lost := make(chan struct{}, 1)
	sink := panel.SinkFuncs{
		OnStatus: func(s panel.Status) {
			select {
			case statuses <- s:
			default:
			}
		},
		OnDisconnected: func() {
			select {
			case lost <- struct{}{}:
			default:
			}
		},
	}

	m := panel.NewManager(sink, log.Logger)
	if err := m.Connect(port); err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer m.Disconnect()

	fmt.Printf("Listening on %s for %s...\n", port, statusTimeout)

	received := 0
	deadline := time.After(statusTimeout)
	for {
		select {
		case s := <-statuses:
			received++
			fmt.Printf("brightness=%d%% temp=%dK\n", s.Brightness, s.Kelvin)

		case <-lost:
			fmt.Fprintf(os.Stderr, "Read error: connection lost\n")
			os.Exit(2)

		case <-deadline:
			if received == 0 {
				fmt.Println("No status frames received. The panel only talks when its state changes.")
				os.Exit(1)
			}
			fmt.Printf("\n%d status frame(s) received\n", received)
			return nil
		}
	}
}

// runStatusRemote listens for status events from a serve bridge instead of a
// local serial port. The bridge replays its last known status to every new
// client, so this normally returns immediately.
func runStatusRemote() error {
	conn, err := dialBridge(remoteURL, resolveRemoteToken(), remoteNoSSLVerify)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Listening on %s for %s...\n", remoteURL, statusTimeout)

	events := make(chan bridgeEvent, 16)
	readErr := make(chan error, 1)
	go func() {
		for {
			ev, err := conn.next()
			if err != nil {
				readErr <- err
				return
			}
			events <- ev
		}
	}()

	received := 0
	deadline := time.After(statusTimeout)
	for {
		select {
		case ev := <-events:
			if ev.Event == "disconnected" {
				fmt.Println("panel disconnected")
				continue
			}
			if !ev.isStatus() {
				continue
			}
			received++
			fmt.Printf("brightness=%d%% temp=%dK\n", *ev.Brightness, *ev.Kelvin)

		case err := <-readErr:
			fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
			os.Exit(2)

		case <-deadline:
			if received == 0 {
				fmt.Println("No status frames received. The panel only talks when its state changes.")
				os.Exit(1)
			}
			fmt.Printf("\n%d status frame(s) received\n", received)
			return nil
		}
	}
}
