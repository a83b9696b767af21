// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package panel

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/m-rk/neewer-control/pkg/pl81"
)

// ErrNotConnected is returned by Write when no port handle is held.
var ErrNotConnected = errors.New("port not open")

// readBufferSize is the read loop's chunk size. Status traffic is a handful
// of 8-byte frames per second even under continuous knob turning.
const readBufferSize = 256

// session binds one open port to the read loop that owns it. The alive flag
// starts true and flips false exactly once: when the session is superseded by
// a new Connect, deliberately disconnected, or its read fails. It never flips
// back, so a superseded loop can never mistake a later session's liveness for
// its own.
type session struct {
	port  Port
	alive atomic.Bool
}

func newSession(port Port) *session {
	s := &session{port: port}
	s.alive.Store(true)
	return s
}

// Manager owns the serial session with the panel: at most one open port, one
// live read loop publishing decoded statuses to the sink, and
// mutex-serialized writes. It never reopens a port on its own.
type Manager struct {
	sink EventSink
	log  zerolog.Logger
	open Opener

	mu  sync.Mutex
	cur *session
}

// NewManager returns a manager that opens real serial ports and publishes
// events to sink.
func NewManager(sink EventSink, log zerolog.Logger) *Manager {
	return &Manager{sink: sink, log: log, open: OpenSerialPort}
}

// Connect opens portName and starts a read loop for it, replacing any
// existing session. The existing loop's stop flag is cleared before the new
// port is opened, so its output stops being authoritative even if the
// goroutine is still draining a read.
//
// If the open fails the previous port handle is kept, writes on it still
// work, and the error is returned. The previous loop has already been
// stopped at that point; only a successful Connect starts a new one.
func (m *Manager) Connect(portName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur != nil {
		m.cur.alive.Store(false)
	}

	port, err := m.open(portName)
	if err != nil {
		m.log.Error().Err(err).Str("port", portName).Msg("connect failed")
		return err
	}

	if m.cur != nil {
		m.cur.port.Close()
	}

	s := newSession(port)
	m.cur = s
	go m.readLoop(s, portName)

	m.log.Info().Str("port", portName).Msg("serial session started")
	return nil
}

// Disconnect stops the read loop and closes the port. Idempotent, never
// fails. The liveness flag is cleared before the close so the read error the
// close provokes is not mistaken for a device fault; a deliberate disconnect
// publishes no Disconnected event.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return
	}
	m.cur.alive.Store(false)
	m.cur.port.Close()
	m.cur = nil

	m.log.Info().Msg("serial session closed")
}

// IsConnected reports whether a port handle is held. It does not probe the
// device; a session whose read loop already died still counts until
// Disconnect or a successful Connect replaces it.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur != nil
}

// Write sends raw bytes to the panel, holding the session lock across the
// write and the drain so concurrent writers cannot interleave frames.
func (m *Manager) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return ErrNotConnected
	}

	n, err := m.cur.port.Write(data)
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if n < len(data) {
		return fmt.Errorf("write failed: short write (%d of %d bytes)", n, len(data))
	}
	if err := m.cur.port.Drain(); err != nil {
		return fmt.Errorf("flush failed: %w", err)
	}
	return nil
}

// SetLight encodes and sends a CCT command. Brightness above 100 is capped
// and kelvin is quantized by the codec; the panel echoes the resulting state
// back as a status frame.
func (m *Manager) SetLight(brightness uint8, kelvin uint32) error {
	return m.Write(pl81.NewCCTCommand(brightness, kelvin))
}

// readLoop reads the port until its session dies, feeding bytes through the
// frame decoder and publishing valid statuses. Invalid frames are dropped
// without ceremony; they are "not yet a frame", not a fault. Publishing is
// gated on the session's own flag, so a superseded loop falls silent even if
// it is mid-chunk when the new session starts.
func (m *Manager) readLoop(s *session, portName string) {
	dec := pl81.NewDecoder()
	buf := make([]byte, readBufferSize)

	log := m.log.With().Str("port", portName).Logger()
	log.Debug().Msg("read loop started")

	for s.alive.Load() {
		n, err := s.port.Read(buf)
		if err != nil {
			if !s.alive.Load() {
				break // close or supersede unblocked the read
			}
			log.Warn().Err(err).Msg("serial read failed")
			s.alive.Store(false)
			m.sink.Disconnected()
			break
		}
		if n == 0 {
			continue // read timeout, loop back to the liveness check
		}

		for _, b := range buf[:n] {
			status, derr := dec.DecodeByte(b)
			if derr != nil {
				log.Debug().Err(derr).Msg("discarding invalid frame")
				continue
			}
			if status == nil {
				continue
			}
			if !s.alive.Load() {
				break
			}
			m.sink.LightStatus(Status{
				Brightness: status.Brightness,
				Kelvin:     status.Kelvin(),
			})
		}
	}

	log.Debug().Uint64("discarded_bytes", dec.Discarded()).Msg("read loop stopped")
}
