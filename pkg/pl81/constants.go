// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

// Package pl81 implements the wire protocol of the Neewer PL81-Pro LED
// panel, a bi-color light controlled over a CH340 USB-serial adapter at
// 115200 8N1.
//
// Every frame is 8 bytes: a 0x3A sentinel, a command tag, four payload
// bytes, and a 16-bit big-endian checksum over everything before it. The
// only tag the panel speaks is 0x02 (CCT): the host sends it to set
// brightness and color temperature, and the panel sends the same shape
// back as a status report whenever its state changes, including when the
// physical knobs are turned.
//
// The package provides command encoding, stream decoding with
// resynchronization, checksum and range validation, and the Kelvin
// quantization the CCT command uses. It does no I/O; the panel package
// owns the serial session.
package pl81

// Frame layout.
const (
	// StartByte is the sentinel that opens every frame.
	StartByte byte = 0x3A

	// TagCCT is the command tag for brightness/color-temperature, used in
	// both directions.
	TagCCT byte = 0x02

	// StatusFrameSize is the fixed length of every frame on the wire,
	// checksum included.
	StatusFrameSize = 8
)

// CCT command payload bytes. The panel rejects frames without them, so the
// encoder hardcodes both.
const (
	cctPayloadLen byte = 0x03
	cctSubcommand byte = 0x01
)

// Color temperature is quantized to 19 steps (0x00 through 0x12) spanning
// 2900K to 7000K. The panel treats steps above 0x12 as 7000K.
const (
	TempMinKelvin uint32 = 2900
	TempMaxKelvin uint32 = 7000
	TempSteps     uint32 = 18
)

// MaxBrightness is the highest brightness percentage the CCT command
// accepts. The encoder caps larger values rather than rejecting them.
const MaxBrightness uint8 = 100

// DefaultKelvin is the midpoint of the panel's range, step 0x09. Tools that
// set brightness without an explicit temperature use it.
const DefaultKelvin uint32 = 4950
