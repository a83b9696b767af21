// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/m-rk/neewer-control/pkg/panel"
)

var watchReconnect bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream status frames until interrupted",
	Long: `Print every status report as it arrives, with timestamps.

Without --reconnect the command exits when the connection drops. With it,
reconnection is attempted with exponential backoff (1s doubling to 30s),
which survives the panel being unplugged and replugged.

With --url the stream comes from a running 'serve' bridge instead of a
local serial port.

Examples:
  neewer-control watch
  neewer-control watch --reconnect
  neewer-control watch --url ws://pi.local:8517/ws --token s3cret

Exit codes:
  0 - Interrupted (Ctrl-C)
  2 - Connection error or connection lost (without --reconnect)`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchReconnect, "reconnect", false, "Reconnect with backoff when the connection drops")
	registerRemoteFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if remoteURL != "" {
		return watchBridge(ctx)
	}
	return watchSerial(ctx, effectivePort)
}

// watchSerial connects and streams until interrupted. resolve runs per
// attempt so auto-detection finds a panel that re-enumerated under a new
// name after a replug.
func watchSerial(ctx context.Context, resolve func() (string, error)) error {
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
	defer m.Disconnect()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		port, err := resolve()
		if err == nil {
			err = m.Connect(port)
		}
		if err != nil {
			if !watchReconnect {
				fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
				os.Exit(2)
			}

			log.Warn().Err(err).Dur("retry_in", backoff).Msg("connect failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = 1 * time.Second
		fmt.Printf("[%s] connected to %s\n", time.Now().Format("15:04:05.000"), port)

	stream:
		for {
			select {
			case <-ctx.Done():
				fmt.Println("\nInterrupted")
				return nil

			case s := <-statuses:
				fmt.Printf("[%s] brightness=%d%% temp=%dK\n",
					time.Now().Format("15:04:05.000"), s.Brightness, s.Kelvin)

			case <-lost:
				if !watchReconnect {
					fmt.Fprintln(os.Stderr, "Connection lost")
					os.Exit(2)
				}
				fmt.Printf("[%s] connection lost, reconnecting...\n", time.Now().Format("15:04:05.000"))
				break stream
			}
		}
	}
}

// watchBridge streams from a 'serve' bridge. Panel-side disconnects are
// reported inline; only the bridge connection itself ends a session. The
// backoff sleep runs after lost sessions as well as failed dials, and
// backoff resets only once a session has delivered an event, so a bridge
// that accepts the handshake and immediately drops is not redialed in a
// hot loop.
func watchBridge(ctx context.Context) error {
	token := resolveRemoteToken()
	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		conn, err := dialBridge(remoteURL, token, remoteNoSSLVerify)
		if err != nil {
			if !watchReconnect {
				fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
				os.Exit(2)
			}
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("bridge connect failed")
		} else {
			fmt.Printf("[%s] connected to %s\n", time.Now().Format("15:04:05.000"), remoteURL)

			received, err := streamBridge(ctx, conn)
			if ctx.Err() != nil {
				fmt.Println("\nInterrupted")
				return nil
			}
			if !watchReconnect {
				fmt.Fprintf(os.Stderr, "Bridge connection lost: %v\n", err)
				os.Exit(2)
			}
			if received > 0 {
				backoff = 1 * time.Second
			}
			fmt.Printf("[%s] bridge connection lost, reconnecting in %s...\n",
				time.Now().Format("15:04:05.000"), backoff)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// streamBridge prints bridge events until the connection drops or ctx is
// canceled. It returns the number of events delivered and the read error
// that ended the session. The interrupt watcher is released when the
// session ends, so reconnect cycles do not accumulate goroutines.
func streamBridge(ctx context.Context, conn *bridgeConn) (int, error) {
	done := make(chan struct{})
	// Close on interrupt so the blocking read returns.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer close(done)
	defer conn.Close()

	received := 0
	for {
		ev, err := conn.next()
		if err != nil {
			return received, err
		}
		received++

		switch {
		case ev.Event == "disconnected":
			fmt.Printf("[%s] panel disconnected\n", time.Now().Format("15:04:05.000"))
		case ev.isStatus():
			fmt.Printf("[%s] brightness=%d%% temp=%dK\n",
				time.Now().Format("15:04:05.000"), *ev.Brightness, *ev.Kelvin)
		}
	}
}
