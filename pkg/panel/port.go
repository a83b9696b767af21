// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

// Package panel manages the serial session with a Neewer PL81-Pro: port
// discovery, the connection lifecycle, mutex-serialized writes, and a read
// loop that decodes status frames and publishes them to an event sink.
//
// The package deliberately never reconnects on its own. When a read fails it
// publishes a single Disconnected event and stops; reconnect policy belongs
// to the caller.
package panel

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// The panel's CH340 adapter speaks exactly one configuration.
const (
	BaudRate    = 115200
	ReadTimeout = 100 * time.Millisecond
)

// Port is the slice of go.bug.st/serial.Port the session manager needs,
// abstracted so tests can drive the manager with a scripted fake.
type Port interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds how long Read blocks. A timed-out Read returns
	// (0, nil).
	SetReadTimeout(t time.Duration) error

	// Drain blocks until transmitted bytes have left the adapter.
	Drain() error

	// ResetInputBuffer discards unread bytes buffered by the driver.
	ResetInputBuffer() error
}

// Opener opens a named serial port configured for the panel.
type Opener func(name string) (Port, error)

// OpenSerialPort opens name at 115200 8-N-1 with a 100ms read timeout. The
// timeout keeps the read loop returning to its liveness check instead of
// blocking in the driver forever.
func OpenSerialPort(name string) (Port, error) {
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to configure read timeout on %s: %w", name, err)
	}

	return port, nil
}
