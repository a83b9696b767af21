// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/m-rk/neewer-control/pkg/panel"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for the panel",
	Long: `Control the panel from an interactive terminal UI.

The TUI shows the panel's live state (updated from its unsolicited status
reports, so physical knob turns appear immediately) next to editable
brightness and color temperature fields.

Keys:
  Tab / Shift+Tab  switch between fields
  Enter            apply the entered values
  o / O            panel off / on (full brightness)
  r                reconnect after connection loss
  q / Ctrl+C       quit

Exit codes:
  0 - Normal exit
  2 - Connection error on startup`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

func runControl(cmd *cobra.Command, args []string) error {
	port, err := effectivePort()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Port error: %v\n", err)
		os.Exit(2)
	}

	statusCh := make(chan panel.Status, 64)
	lostCh := make(chan struct{}, 1)
	sink := panel.SinkFuncs{
		OnStatus: func(s panel.Status) {
			select {
			case statusCh <- s:
			default:
			}
		},
		OnDisconnected: func() {
			select {
			case lostCh <- struct{}{}:
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

	model := initialControlModel(m, port, effectiveKelvin())
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Bridge session events into the TUI event loop.
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case s := <-statusCh:
				p.Send(statusMsg{status: s})
			case <-lostCh:
				p.Send(connectionLostMsg{})
			}
		}
	}()

	_, err = p.Run()
	close(done)
	if err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}
