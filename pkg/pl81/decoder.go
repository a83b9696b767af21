// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package pl81

import "fmt"

// Decoder states.
const (
	stateHunt = iota // scanning for a sentinel byte
	stateFill        // collecting the remainder of an 8-byte window
)

// Decoder extracts status frames from a raw byte stream. The protocol has no
// terminator and no escaping: frames are a fixed 8 bytes behind a 0x3A
// sentinel. The decoder skips bytes until it sees the sentinel, collects a
// full window, and hands it to ParseStatus.
//
// A window is consumed whole whether or not it parses. That loses a frame
// whose own sentinel sat inside the bad window, but the next clean frame
// resynchronizes the stream, and the alternative (rescanning inside the
// window) can emit phantom frames from checksum bytes that happen to read
// 0x3A.
type Decoder struct {
	state     int
	window    [StatusFrameSize]byte
	fill      int
	discarded uint64
}

// NewDecoder returns a decoder in the hunting state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Reset returns the decoder to the hunting state, dropping any partial
// window. The discard counter is kept.
func (d *Decoder) Reset() {
	d.state = stateHunt
	d.fill = 0
}

// Discarded reports how many bytes have been skipped while hunting for a
// sentinel since the decoder was created.
func (d *Decoder) Discarded() uint64 {
	return d.discarded
}

// Pending reports how many bytes of a partial window the decoder is holding.
func (d *Decoder) Pending() int {
	return d.fill
}

// DecodeByte feeds one byte through the decoder. It returns a status when
// the byte completes a valid frame, an error when it completes an invalid
// one, and (nil, nil) while a frame is still in progress or the byte was
// skipped between frames.
func (d *Decoder) DecodeByte(b byte) (*Status, error) {
	switch d.state {
	case stateHunt:
		if b != StartByte {
			d.discarded++
			return nil, nil
		}
		d.window[0] = b
		d.fill = 1
		d.state = stateFill
		return nil, nil

	case stateFill:
		d.window[d.fill] = b
		d.fill++
		if d.fill < StatusFrameSize {
			return nil, nil
		}
		d.Reset()
		return ParseStatus(d.window[:])

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid decoder state: %d", d.state)
	}
}

// Decode feeds a whole buffer through the decoder and returns every status
// completed by it, plus the parse errors of any invalid windows. Read loops
// that work in chunks rather than bytes use this.
func (d *Decoder) Decode(data []byte) ([]*Status, []error) {
	var (
		statuses []*Status
		errs     []error
	)
	for _, b := range data {
		status, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if status != nil {
			statuses = append(statuses, status)
		}
	}
	return statuses, errs
}
