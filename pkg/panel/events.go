// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package panel

// Status is a light state report published by the read loop. Brightness is
// the raw percentage byte from the frame; the temperature step has already
// been converted to Kelvin.
type Status struct {
	Brightness uint8  `json:"brightness"`
	Kelvin     uint32 `json:"kelvin"`
}

// EventSink receives session events. Calls arrive synchronously on the read
// loop goroutine, so implementations must hand work off rather than block;
// a slow sink stalls the serial reader.
type EventSink interface {
	// LightStatus is called once per valid status frame.
	LightStatus(Status)

	// Disconnected is called once when a live session's read fails. A
	// deliberate Disconnect never produces it.
	Disconnected()
}

// SinkFuncs adapts plain functions to EventSink. Nil fields are ignored.
type SinkFuncs struct {
	OnStatus       func(Status)
	OnDisconnected func()
}

func (s SinkFuncs) LightStatus(st Status) {
	if s.OnStatus != nil {
		s.OnStatus(st)
	}
}

func (s SinkFuncs) Disconnected() {
	if s.OnDisconnected != nil {
		s.OnDisconnected()
	}
}
