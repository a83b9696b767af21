// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package pl81

import (
	"errors"
	"fmt"
	"time"
)

// Frame parse failures. ParseStatus wraps these with the offending values;
// use errors.Is to classify.
var (
	ErrShortFrame       = errors.New("frame shorter than 8 bytes")
	ErrBadSentinel      = errors.New("missing 0x3A sentinel")
	ErrBadTag           = errors.New("unexpected command tag")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Status is a decoded status frame. The panel reports one whenever its state
// changes, whether from a host command or the physical knobs, and echoes
// every accepted command back in the same shape.
type Status struct {
	// Brightness is the reported brightness percentage, normally 0-100.
	Brightness uint8

	// TempByte is the reported color temperature step, normally 0x00-0x12.
	TempByte uint8

	// Timestamp records when the frame was parsed.
	Timestamp time.Time
}

// Kelvin returns the status color temperature converted from the protocol
// step to Kelvin.
func (s *Status) Kelvin() uint32 {
	return ByteToKelvin(s.TempByte)
}

// String renders the status in the form the CLI prints.
func (s *Status) String() string {
	return fmt.Sprintf("brightness=%d%% temp=%dK (0x%02X)", s.Brightness, s.Kelvin(), s.TempByte)
}

// ParseStatus parses an 8-byte status frame: sentinel, CCT tag, two payload
// bytes that are not inspected, brightness at byte 4, temperature step at
// byte 5, and a big-endian checksum over the first six bytes.
//
// A returned error means "not a valid frame at this offset", nothing more.
// Callers scanning a stream should discard and keep hunting; the Decoder
// does exactly that.
func ParseStatus(frame []byte) (*Status, error) {
	if len(frame) < StatusFrameSize {
		return nil, fmt.Errorf("%w: got %d", ErrShortFrame, len(frame))
	}
	if frame[0] != StartByte {
		return nil, fmt.Errorf("%w: got 0x%02X", ErrBadSentinel, frame[0])
	}
	if frame[1] != TagCCT {
		return nil, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrBadTag, frame[1], TagCCT)
	}
	want := Checksum(frame[:StatusFrameSize-2])
	got := uint16(frame[StatusFrameSize-2])<<8 | uint16(frame[StatusFrameSize-1])
	if got != want {
		return nil, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrChecksumMismatch, want, got)
	}
	return &Status{
		Brightness: frame[4],
		TempByte:   frame[5],
		Timestamp:  time.Now(),
	}, nil
}
