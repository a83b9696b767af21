// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

// Package capture reads and writes serial traffic captures: a CBOR header
// followed by a stream of timestamped raw-byte records. The monitor command
// records into this format and the decode command replays it offline.
package capture

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// FormatVersion is written into every capture header. Readers reject other
// versions.
const FormatVersion = 1

// Header opens a capture file and records where the bytes came from.
type Header struct {
	Version   int       `cbor:"1,keyasint"`
	Port      string    `cbor:"2,keyasint"`
	BaudRate  int       `cbor:"3,keyasint"`
	StartedAt time.Time `cbor:"4,keyasint"`
}

// Record is one raw read from the port, byte-exact, with the time it
// arrived. Records carry whatever the read returned; framing is the
// decoder's job on replay.
type Record struct {
	At   time.Time `cbor:"1,keyasint"`
	Data []byte    `cbor:"2,keyasint"`
}

// Timestamps are encoded as RFC 3339 with nanoseconds so records round-trip
// exactly.
var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Writer streams capture records to an underlying writer.
type Writer struct {
	enc *cbor.Encoder
}

// NewWriter writes the header immediately and returns a record writer. The
// header's Version field is set by the writer; callers fill in the rest.
func NewWriter(w io.Writer, hdr Header) (*Writer, error) {
	hdr.Version = FormatVersion
	enc := encMode.NewEncoder(w)
	if err := enc.Encode(hdr); err != nil {
		return nil, fmt.Errorf("failed to write capture header: %w", err)
	}
	return &Writer{enc: enc}, nil
}

// Write appends one record to the capture.
func (w *Writer) Write(rec Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write capture record: %w", err)
	}
	return nil
}

// Reader replays a capture stream.
type Reader struct {
	dec *cbor.Decoder
	hdr Header
}

// NewReader reads and validates the capture header.
func NewReader(r io.Reader) (*Reader, error) {
	dec := cbor.NewDecoder(r)
	var hdr Header
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}
	if hdr.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported capture version %d (want %d)", hdr.Version, FormatVersion)
	}
	return &Reader{dec: dec, hdr: hdr}, nil
}

// Header returns the capture header read by NewReader.
func (r *Reader) Header() Header {
	return r.hdr
}

// Next returns the next record. It returns io.EOF at a clean end of stream;
// any other error means the capture is damaged.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read capture record: %w", err)
	}
	return rec, nil
}
