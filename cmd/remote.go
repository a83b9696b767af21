// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// Remote mode flags, shared by the commands that can talk to a running
// 'serve' bridge instead of the serial port.
var (
	remoteURL         string
	remoteToken       string
	remoteNoSSLVerify bool
)

// registerRemoteFlags adds the bridge flags to a command with a remote mode.
func registerRemoteFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&remoteURL, "url", "", "WebSocket bridge URL (ws:// or wss://) instead of a serial port")
	cmd.Flags().StringVar(&remoteToken, "token", "", "Bridge auth token (also NEEWER_TOKEN)")
	cmd.Flags().BoolVar(&remoteNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// resolveRemoteToken returns the token for remote mode: flag, then
// environment, then config file.
func resolveRemoteToken() string {
	if remoteToken != "" {
		return remoteToken
	}
	if t := os.Getenv("NEEWER_TOKEN"); t != "" {
		return t
	}
	return cfg.Serve.Token
}

// bridgeEvent is one JSON message from the bridge: a status report, or a
// lifecycle event such as "disconnected".
type bridgeEvent struct {
	Event      string  `json:"event"`
	Brightness *uint8  `json:"brightness"`
	Kelvin     *uint32 `json:"kelvin"`
}

func (ev bridgeEvent) isStatus() bool {
	return ev.Brightness != nil && ev.Kelvin != nil
}

// bridgeConn is a client connection to a 'serve' bridge.
type bridgeConn struct {
	conn *websocket.Conn
}

// dialBridge connects to a bridge URL with optional Bearer token auth.
func dialBridge(rawURL, token string, skipSSLVerify bool) (*bridgeConn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if token != "" {
		headers.Set("Authorization", "Bearer "+token)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, rawURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("bridge connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("bridge connection failed: %v", err)
	}

	return &bridgeConn{conn: conn}, nil
}

func (b *bridgeConn) Close() error {
	return b.conn.Close()
}

// next blocks until the bridge sends a status or lifecycle event.
// Unrecognized messages are skipped.
func (b *bridgeConn) next() (bridgeEvent, error) {
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			return bridgeEvent{}, err
		}

		var ev bridgeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		if ev.Event != "" || ev.isStatus() {
			return ev, nil
		}
	}
}

// setLight sends a set command through the bridge.
func (b *bridgeConn) setLight(brightness uint8, kelvin uint32) error {
	cmd := struct {
		Brightness uint8  `json:"brightness"`
		Kelvin     uint32 `json:"kelvin"`
	}{
		Brightness: brightness,
		Kelvin:     kelvin,
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.TextMessage, data)
}
