// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/m-rk/neewer-control/pkg/panel"
)

var (
	serveListen string
	serveToken  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the panel over WebSocket",
	Long: `Bridge the serial session to WebSocket clients at ws://<listen>/ws.

Every panel status report is broadcast to all connected clients as
  {"brightness":50,"kelvin":4950}
and a connection loss as
  {"event":"disconnected"}

Clients set the light by sending the same shape back:
  {"brightness":100,"kelvin":5600}
The kelvin field may be omitted to keep the current temperature. New
clients receive the last known status on connect.

The serial session reconnects on its own with exponential backoff, so the
bridge survives the panel being unplugged and replugged.

Authentication is optional: with a token (--token flag, NEEWER_TOKEN env,
or serve.token in the config file) clients must present it as an
'Authorization: Bearer' header or a ?token= query parameter.

Examples:
  neewer-control serve
  neewer-control serve --listen 127.0.0.1:8517 --token s3cret

Exit codes:
  0 - Clean shutdown on SIGINT/SIGTERM
  2 - Listen or shutdown error`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default :8517)")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "Shared auth token (also NEEWER_TOKEN)")
}

const (
	// Time allowed to write a message to a client.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from a client.
	pongWait = 60 * time.Second

	// Ping period; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Per-client outgoing buffer; slow consumers past this are dropped.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	// The bridge is a LAN tool; browser origin policy does not apply.
	CheckOrigin: func(r *http.Request) bool { return true },
}

//////////////////////////////////////////////////////////////
// Hub
//////////////////////////////////////////////////////////////

type hubClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// hub fans panel events out to connected clients and remembers the last
// status so new clients start with known state.
type hub struct {
	mu         sync.Mutex
	clients    map[*hubClient]struct{}
	lastStatus panel.Status
	hasLast    bool
	log        zerolog.Logger
}

func newHub(logger zerolog.Logger) *hub {
	return &hub{
		clients: make(map[*hubClient]struct{}),
		log:     logger,
	}
}

func (h *hub) register(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}

	if h.hasLast {
		if data, err := json.Marshal(h.lastStatus); err == nil {
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

func (h *hub) unregister(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast queues data on every client. A client whose buffer is full is
// dropped so a stalled consumer cannot back up panel events.
func (h *hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
			h.log.Warn().Str("client", c.id).Msg("send buffer full, dropping client")
		}
	}
}

func (h *hub) setLast(s panel.Status) {
	h.mu.Lock()
	h.lastStatus = s
	h.hasLast = true
	h.mu.Unlock()
}

func (h *hub) last() (panel.Status, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastStatus, h.hasLast
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

//////////////////////////////////////////////////////////////
// Bridge server
//////////////////////////////////////////////////////////////

type bridgeServer struct {
	mgr           *panel.Manager
	hub           *hub
	log           zerolog.Logger
	token         string
	defaultKelvin uint32
	lostCh        chan struct{}
}

func (b *bridgeServer) authorized(r *http.Request) bool {
	if b.token == "" {
		return true
	}
	if r.Header.Get("Authorization") == "Bearer "+b.token {
		return true
	}
	return r.URL.Query().Get("token") == b.token
}

func (b *bridgeServer) handleWS(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &hubClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	b.hub.register(client)
	b.log.Info().
		Str("client", client.id).
		Str("remote", r.RemoteAddr).
		Int("clients", b.hub.count()).
		Msg("client connected")

	go client.writePump()
	go b.readPump(client)
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (b *bridgeServer) readPump(c *hubClient) {
	defer func() {
		b.hub.unregister(c)
		c.conn.Close()
		b.log.Info().Str("client", c.id).Int("clients", b.hub.count()).Msg("client disconnected")
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		b.handleCommand(c, data)
	}
}

func (b *bridgeServer) handleCommand(c *hubClient, data []byte) {
	var cmd struct {
		Brightness *uint8  `json:"brightness"`
		Kelvin     *uint32 `json:"kelvin"`
	}
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.Brightness == nil {
		b.log.Warn().Str("client", c.id).Str("payload", string(data)).Msg("ignoring malformed command")
		return
	}

	kelvin := b.defaultKelvin
	if last, ok := b.hub.last(); ok {
		kelvin = last.Kelvin
	}
	if cmd.Kelvin != nil {
		kelvin = *cmd.Kelvin
	}

	if err := b.mgr.SetLight(*cmd.Brightness, kelvin); err != nil {
		b.log.Warn().Err(err).Str("client", c.id).Msg("set command failed")
		return
	}

	b.log.Info().
		Str("client", c.id).
		Uint8("brightness", *cmd.Brightness).
		Uint32("kelvin", kelvin).
		Msg("set command applied")
}

// superviseSerial keeps the serial session alive for the lifetime of the
// bridge: connect, wait for loss, reconnect with backoff. Port resolution
// is repeated per attempt so auto-detection finds a replugged panel.
func (b *bridgeServer) superviseSerial(ctx context.Context) error {
	defer b.mgr.Disconnect()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		name, err := effectivePort()
		if err == nil {
			err = b.mgr.Connect(name)
		}
		if err != nil {
			b.log.Warn().Err(err).Dur("retry_in", backoff).Msg("serial connect failed")
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
		b.log.Info().Str("port", name).Msg("serial connected")

		select {
		case <-ctx.Done():
			return nil
		case <-b.lostCh:
			b.log.Warn().Msg("serial connection lost")
		}
	}
}

//////////////////////////////////////////////////////////////
// Command
//////////////////////////////////////////////////////////////

func runServe(cmd *cobra.Command, args []string) error {
	listen := serveListen
	if listen == "" {
		listen = cfg.Serve.Listen
	}

	token := serveToken
	if token == "" {
		token = os.Getenv("NEEWER_TOKEN")
	}
	if token == "" {
		token = cfg.Serve.Token
	}

	h := newHub(log.Logger)
	lostCh := make(chan struct{}, 1)

	sink := panel.SinkFuncs{
		OnStatus: func(s panel.Status) {
			h.setLast(s)
			if data, err := json.Marshal(s); err == nil {
				h.broadcast(data)
			}
		},
		OnDisconnected: func() {
			h.broadcast([]byte(`{"event":"disconnected"}`))
			select {
			case lostCh <- struct{}{}:
			default:
			}
		},
	}

	bridge := &bridgeServer{
		mgr:           panel.NewManager(sink, log.Logger),
		hub:           h,
		log:           log.Logger,
		token:         token,
		defaultKelvin: effectiveKelvin(),
		lostCh:        lostCh,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", bridge.handleWS)

	server := &http.Server{
		Addr:    listen,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	errg.Go(func() error {
		log.Info().Str("listen", listen).Bool("auth", token != "").Msg("websocket bridge listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	errg.Go(func() error {
		return bridge.superviseSerial(ctx)
	})

	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(2)
	}

	log.Info().Msg("shutdown complete")
	return nil
}
