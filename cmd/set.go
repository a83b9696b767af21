// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/m-rk/neewer-control/pkg/panel"
	"github.com/m-rk/neewer-control/pkg/pl81"
)

// echoWait is how long a one-shot command listens for the panel's echo
// before giving up. The panel normally echoes within one frame time.
const echoWait = 500 * time.Millisecond

var setCmd = &cobra.Command{
	Use:   "set <brightness> [kelvin]",
	Short: "Set brightness and color temperature",
	Long: `Send a single CCT command to the panel.

Brightness is a percentage (0-100; larger values are capped). Color
temperature is Kelvin in 2900-7000; it is quantized to the panel's 19
hardware steps and out-of-range values are clamped to the nearest limit.
Omitting the kelvin argument uses the configured default (4950K unless the
config file says otherwise).

The printed values are what actually went on the wire after quantization,
which may differ from the request. The panel echoes accepted commands; set
waits up to 500ms for the echo and reports whether it arrived.

With --url the command is sent through a 'serve' bridge instead of a local
serial port.

Examples:
  # 50% at the default temperature
  neewer-control set 50

  # Full brightness, warmest white
  neewer-control set 100 2900

  # Through a bridge on another machine
  neewer-control set 75 --url ws://pi.local:8517/ws --token s3cret

Exit codes:
  0 - Command sent (with or without echo)
  1 - Invalid arguments
  2 - Connection or write error`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSet,
}

var onCmd = &cobra.Command{
	Use:   "on",
	Short: "Turn the panel on at full brightness",
	Long: `Set brightness to 100% at the configured default color temperature.

Equivalent to 'neewer-control set 100'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return applySet(pl81.MaxBrightness, effectiveKelvin())
	},
}

var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Turn the panel off",
	Long: `Set brightness to 0%.

The panel has no separate power command; zero brightness is off. The color
temperature setting is preserved for the next 'on'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return applySet(0, effectiveKelvin())
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(offCmd)
	registerRemoteFlags(setCmd)
	registerRemoteFlags(onCmd)
	registerRemoteFlags(offCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	brightness, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid brightness %q: expected 0-100\n", args[0])
		os.Exit(1)
	}
	if brightness > uint64(pl81.MaxBrightness) {
		brightness = uint64(pl81.MaxBrightness)
	}

	kelvin := effectiveKelvin()
	if len(args) == 2 {
		k, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid color temperature %q: expected Kelvin\n", args[1])
			os.Exit(1)
		}
		kelvin = uint32(k)
	}

	return applySet(uint8(brightness), kelvin)
}

// applySet connects, sends one CCT command, and waits briefly for the
// panel's echo before disconnecting.
func applySet(brightness uint8, kelvin uint32) error {
	if remoteURL != "" {
		return applySetRemote(brightness, kelvin)
	}

	port, err := effectivePort()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Port error: %v\n", err)
		os.Exit(2)
	}

	echo := make(chan panel.Status, 8)
	sink := panel.SinkFuncs{
		OnStatus: func(s panel.Status) {
			select {
			case echo <- s:
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

	if err := m.SetLight(brightness, kelvin); err != nil {
		fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
		os.Exit(2)
	}

	temp := pl81.KelvinToByte(kelvin)
	sent := pl81.ByteToKelvin(temp)
	fmt.Printf("brightness=%d%% temp=%dK (0x%02X)\n", brightness, sent, temp)

	select {
	case s := <-echo:
		if s.Brightness == brightness && s.Kelvin == sent {
			fmt.Println("OK (echo confirmed)")
		} else {
			fmt.Printf("OK (panel reports brightness=%d%% temp=%dK)\n", s.Brightness, s.Kelvin)
		}
	case <-time.After(echoWait):
		fmt.Println("Sent (no echo)")
	}

	return nil
}

// applySetRemote sends the command through a serve bridge. The bridge
// replays its last known status to every new client, so the first event is
// usually stale; keep reading until the echo matches what was sent.
func applySetRemote(brightness uint8, kelvin uint32) error {
	conn, err := dialBridge(remoteURL, resolveRemoteToken(), remoteNoSSLVerify)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	if err := conn.setLight(brightness, kelvin); err != nil {
		fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
		os.Exit(2)
	}

	temp := pl81.KelvinToByte(kelvin)
	sent := pl81.ByteToKelvin(temp)
	fmt.Printf("brightness=%d%% temp=%dK (0x%02X)\n", brightness, sent, temp)

	events := make(chan bridgeEvent, 8)
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

	var last bridgeEvent
	haveLast := false
	deadline := time.After(echoWait)
	for {
		select {
		case ev := <-events:
			if !ev.isStatus() {
				continue
			}
			if *ev.Brightness == brightness && *ev.Kelvin == sent {
				fmt.Println("OK (echo confirmed)")
				return nil
			}
			last, haveLast = ev, true

		case <-readErr:
			fmt.Println("Sent (no echo)")
			return nil

		case <-deadline:
			if haveLast {
				fmt.Printf("Sent (bridge reports brightness=%d%% temp=%dK)\n", *last.Brightness, *last.Kelvin)
			} else {
				fmt.Println("Sent (no echo)")
			}
			return nil
		}
	}
}
