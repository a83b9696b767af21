// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package pl81

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

// ============================================================
// Test Helpers
// ============================================================

// feedFrame pushes a byte slice through the decoder and returns every status
// and error it produced.
func feedFrame(d *Decoder, data []byte) ([]*Status, []error) {
	return d.Decode(data)
}

// ============================================================
// Checksum Tests
// ============================================================

func TestChecksum_Empty(t *testing.T) {
	sum := Checksum([]byte{})
	if sum != 0 {
		t.Errorf("Checksum of empty data should be 0, got 0x%04X", sum)
	}
}

func TestChecksum_KnownVectors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "CCT command header",
			data:     []byte{0x3A, 0x02, 0x03, 0x01, 0x64, 0x09},
			expected: 0x00AD,
		},
		{
			name:     "single byte",
			data:     []byte{0x3A},
			expected: 0x003A,
		},
		{
			name:     "two max bytes",
			data:     []byte{0xFF, 0xFF},
			expected: 0x01FE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := Checksum(tt.data)
			if sum != tt.expected {
				t.Errorf("Checksum mismatch: expected 0x%04X, got 0x%04X", tt.expected, sum)
			}
		})
	}
}

func TestChecksum_Wraps(t *testing.T) {
	// 300 bytes of 0xFF sum to 76500, which wraps past 16 bits to 0x2AD4
	data := bytes.Repeat([]byte{0xFF}, 300)
	sum := Checksum(data)
	if sum != 0x2AD4 {
		t.Errorf("Expected wrapped sum 0x2AD4, got 0x%04X", sum)
	}
}

func TestChecksumBytes_WireOrder(t *testing.T) {
	hi, lo := checksumBytes(0x12AB)
	if hi != 0x12 || lo != 0xAB {
		t.Errorf("Expected (0x12, 0xAB), got (0x%02X, 0x%02X)", hi, lo)
	}
}

// ============================================================
// Encoder Tests
// ============================================================

func TestBuildPacket_AppendsChecksum(t *testing.T) {
	payload := []byte{0x3A, 0x02, 0x03, 0x01, 0x64, 0x09}
	pkt := BuildPacket(payload)

	if len(pkt) != len(payload)+2 {
		t.Fatalf("Expected %d bytes, got %d", len(payload)+2, len(pkt))
	}
	if !bytes.Equal(pkt[:len(payload)], payload) {
		t.Errorf("Payload bytes altered: %v", pkt[:len(payload)])
	}
	if pkt[6] != 0x00 || pkt[7] != 0xAD {
		t.Errorf("Expected checksum bytes 00 AD, got %02X %02X", pkt[6], pkt[7])
	}
}

func TestNewCCTCommand_FullOn(t *testing.T) {
	pkt := NewCCTCommand(100, 7000)
	expected := []byte{0x3A, 0x02, 0x03, 0x01, 0x64, 0x12, 0x00, 0xB6}
	if !bytes.Equal(pkt, expected) {
		t.Errorf("Expected % X, got % X", expected, pkt)
	}
}

func TestNewCCTCommand_Midpoint(t *testing.T) {
	pkt := NewCCTCommand(50, 4950)
	expected := []byte{0x3A, 0x02, 0x03, 0x01, 0x32, 0x09, 0x00, 0x7B}
	if !bytes.Equal(pkt, expected) {
		t.Errorf("Expected % X, got % X", expected, pkt)
	}
}

func TestNewCCTCommand_Off(t *testing.T) {
	pkt := NewCCTCommand(0, 2900)
	expected := []byte{0x3A, 0x02, 0x03, 0x01, 0x00, 0x00, 0x00, 0x40}
	if !bytes.Equal(pkt, expected) {
		t.Errorf("Expected % X, got % X", expected, pkt)
	}
}

func TestNewCCTCommand_BrightnessCapped(t *testing.T) {
	capped := NewCCTCommand(150, 4950)
	full := NewCCTCommand(100, 4950)
	if !bytes.Equal(capped, full) {
		t.Errorf("Brightness above 100 should encode as 100: % X vs % X", capped, full)
	}
}

func TestNewCCTCommand_AlwaysEightBytes(t *testing.T) {
	tests := []struct {
		brightness uint8
		kelvin     uint32
	}{
		{0, 0},
		{0, 2900},
		{50, 4950},
		{100, 7000},
		{255, 99999},
	}

	for _, tt := range tests {
		pkt := NewCCTCommand(tt.brightness, tt.kelvin)
		if len(pkt) != StatusFrameSize {
			t.Errorf("NewCCTCommand(%d, %d): expected %d bytes, got %d",
				tt.brightness, tt.kelvin, StatusFrameSize, len(pkt))
		}
		if pkt[0] != StartByte || pkt[1] != TagCCT || pkt[2] != 0x03 || pkt[3] != 0x01 {
			t.Errorf("NewCCTCommand(%d, %d): bad header % X", tt.brightness, tt.kelvin, pkt[:4])
		}
	}
}

// ============================================================
// Temperature Quantization Tests
// ============================================================

func TestKelvinToByte(t *testing.T) {
	tests := []struct {
		name     string
		kelvin   uint32
		expected uint8
	}{
		{"minimum", 2900, 0x00},
		{"maximum", 7000, 0x12},
		{"midpoint", 4950, 0x09},
		{"below range clamps", 1000, 0x00},
		{"above range clamps", 10000, 0x12},
		{"zero clamps", 0, 0x00},
		{"just below first boundary", 3013, 0x00},
		{"first kelvin mapping to step 1", 3014, 0x01},
		{"tie at step 5", 3925, 0x05},
		{"tie at step 14", 5975, 0x0E},
		{"interior value", 6500, 0x10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KelvinToByte(tt.kelvin)
			if got != tt.expected {
				t.Errorf("KelvinToByte(%d) = 0x%02X, expected 0x%02X", tt.kelvin, got, tt.expected)
			}
		})
	}
}

func TestByteToKelvin(t *testing.T) {
	// Every step the panel can report, endpoints exact.
	expected := []uint32{
		2900, 3128, 3356, 3583, 3811, 4039, 4267, 4494, 4722, 4950,
		5178, 5406, 5633, 5861, 6089, 6317, 6544, 6772, 7000,
	}

	for step, want := range expected {
		got := ByteToKelvin(uint8(step))
		if got != want {
			t.Errorf("ByteToKelvin(0x%02X) = %d, expected %d", step, got, want)
		}
	}
}

func TestByteToKelvin_ClampsHighSteps(t *testing.T) {
	if got := ByteToKelvin(0x13); got != 7000 {
		t.Errorf("ByteToKelvin(0x13) = %d, expected 7000", got)
	}
	if got := ByteToKelvin(0xFF); got != 7000 {
		t.Errorf("ByteToKelvin(0xFF) = %d, expected 7000", got)
	}
}

func TestTemperature_StepRoundTrip(t *testing.T) {
	// Converting a step to Kelvin and back must always return the same step.
	for step := uint8(0); uint32(step) <= TempSteps; step++ {
		kelvin := ByteToKelvin(step)
		back := KelvinToByte(kelvin)
		if back != step {
			t.Errorf("Step 0x%02X -> %dK -> 0x%02X, round trip lost the step", step, kelvin, back)
		}
	}
}

func TestTemperature_KelvinRoundTripIsLossy(t *testing.T) {
	// An arbitrary Kelvin value quantizes to the nearest step and does not
	// survive a round trip exactly, but stays within half a step.
	got := ByteToKelvin(KelvinToByte(3000))
	if got == 3000 {
		t.Error("Expected 3000K to quantize away, got it back exactly")
	}
	if got != 2900 {
		t.Errorf("Expected 3000K to quantize to 2900K, got %d", got)
	}
}

// ============================================================
// ParseStatus Tests
// ============================================================

func TestParseStatus_Valid(t *testing.T) {
	status, err := ParseStatus(NewCCTCommand(50, 4950))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if status.Brightness != 50 {
		t.Errorf("Expected brightness 50, got %d", status.Brightness)
	}
	if status.TempByte != 0x09 {
		t.Errorf("Expected temp byte 0x09, got 0x%02X", status.TempByte)
	}
	if status.Kelvin() != 4950 {
		t.Errorf("Expected 4950K, got %d", status.Kelvin())
	}
	if status.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestParseStatus_ShortFrame(t *testing.T) {
	_, err := ParseStatus([]byte{0x3A, 0x02, 0x03, 0x01, 0x32, 0x09, 0x00})
	if !errors.Is(err, ErrShortFrame) {
		t.Errorf("Expected ErrShortFrame, got %v", err)
	}
}

func TestParseStatus_BadSentinel(t *testing.T) {
	frame := NewCCTCommand(50, 4950)
	frame[0] = 0x3B
	_, err := ParseStatus(frame)
	if !errors.Is(err, ErrBadSentinel) {
		t.Errorf("Expected ErrBadSentinel, got %v", err)
	}
}

func TestParseStatus_BadTag(t *testing.T) {
	frame := NewCCTCommand(50, 4950)
	frame[1] = 0x05
	_, err := ParseStatus(frame)
	if !errors.Is(err, ErrBadTag) {
		t.Errorf("Expected ErrBadTag, got %v", err)
	}
}

func TestParseStatus_ChecksumMismatch(t *testing.T) {
	frame := NewCCTCommand(50, 4950)
	frame[4] ^= 0xFF
	_, err := ParseStatus(frame)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", err)
	}
}

func TestParseStatus_IgnoresPayloadHeader(t *testing.T) {
	// Bytes 2 and 3 are not inspected; a frame with unusual values there
	// still parses as long as the checksum covers them.
	payload := []byte{0x3A, 0x02, 0xAA, 0xBB, 0x32, 0x09}
	status, err := ParseStatus(BuildPacket(payload))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if status.Brightness != 50 || status.TempByte != 0x09 {
		t.Errorf("Expected (50, 0x09), got (%d, 0x%02X)", status.Brightness, status.TempByte)
	}
}

func TestStatus_String(t *testing.T) {
	s := &Status{Brightness: 62, TempByte: 0x09}
	str := s.String()
	if !strings.Contains(str, "brightness=62%") {
		t.Errorf("Expected brightness in string, got '%s'", str)
	}
	if !strings.Contains(str, "4950K") {
		t.Errorf("Expected Kelvin in string, got '%s'", str)
	}
	if !strings.Contains(str, "0x09") {
		t.Errorf("Expected temp byte in string, got '%s'", str)
	}
}

// ============================================================
// Decoder Tests
// ============================================================

func TestDecoder_CleanFrame(t *testing.T) {
	d := NewDecoder()
	frame := NewCCTCommand(75, 5178)

	// Nothing should come out before the final byte.
	for _, b := range frame[:StatusFrameSize-1] {
		status, err := d.DecodeByte(b)
		if status != nil || err != nil {
			t.Fatalf("Expected (nil, nil) mid-frame, got (%v, %v)", status, err)
		}
	}

	status, err := d.DecodeByte(frame[StatusFrameSize-1])
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if status == nil {
		t.Fatal("Expected status, got nil")
	}
	if status.Brightness != 75 {
		t.Errorf("Expected brightness 75, got %d", status.Brightness)
	}
	if status.TempByte != 0x0A {
		t.Errorf("Expected temp byte 0x0A, got 0x%02X", status.TempByte)
	}
}

func TestDecoder_GarbagePrefix(t *testing.T) {
	d := NewDecoder()
	data := append([]byte{0x00, 0xFF, 0x12}, NewCCTCommand(50, 4950)...)

	statuses, errs := feedFrame(d, data)
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if len(statuses) != 1 {
		t.Fatalf("Expected 1 status, got %d", len(statuses))
	}
	if d.Discarded() != 3 {
		t.Errorf("Expected 3 discarded bytes, got %d", d.Discarded())
	}
}

func TestDecoder_BackToBackFrames(t *testing.T) {
	d := NewDecoder()
	data := append(NewCCTCommand(10, 2900), NewCCTCommand(90, 7000)...)

	statuses, errs := feedFrame(d, data)
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if len(statuses) != 2 {
		t.Fatalf("Expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Brightness != 10 || statuses[1].Brightness != 90 {
		t.Errorf("Expected brightness 10 then 90, got %d then %d",
			statuses[0].Brightness, statuses[1].Brightness)
	}
}

func TestDecoder_ChecksumErrorThenResync(t *testing.T) {
	d := NewDecoder()
	bad := NewCCTCommand(50, 4950)
	bad[4] ^= 0x40 // corrupt brightness, checksum no longer matches
	data := append(bad, NewCCTCommand(25, 3128)...)

	statuses, errs := feedFrame(d, data)
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %d: %v", len(errs), errs)
	}
	if !errors.Is(errs[0], ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", errs[0])
	}
	if len(statuses) != 1 {
		t.Fatalf("Expected 1 status after resync, got %d", len(statuses))
	}
	if statuses[0].Brightness != 25 || statuses[0].TempByte != 0x01 {
		t.Errorf("Expected (25, 0x01), got (%d, 0x%02X)", statuses[0].Brightness, statuses[0].TempByte)
	}
}

func TestDecoder_BadWindowConsumedWhole(t *testing.T) {
	d := NewDecoder()

	// A sentinel followed by a bad tag opens a window that happens to contain
	// the start of a real frame. The whole window is consumed, the embedded
	// frame's remaining bytes are skipped as garbage, and only the next clean
	// frame decodes.
	window := []byte{0x3A, 0xFF, 0x3A, 0x02, 0x03, 0x01, 0x32, 0x09}
	tail := []byte{0x00, 0x7B} // rest of the frame that began inside the window

	statuses, errs := feedFrame(d, append(window, tail...))
	if len(errs) != 1 || !errors.Is(errs[0], ErrBadTag) {
		t.Fatalf("Expected single ErrBadTag, got %v", errs)
	}
	if len(statuses) != 0 {
		t.Fatalf("Embedded frame should be lost, got %d statuses", len(statuses))
	}
	if d.Discarded() != 2 {
		t.Errorf("Expected 2 discarded tail bytes, got %d", d.Discarded())
	}

	statuses, errs = feedFrame(d, NewCCTCommand(80, 6089))
	if len(errs) != 0 || len(statuses) != 1 {
		t.Fatalf("Expected clean decode after bad window, got (%v, %v)", statuses, errs)
	}
}

func TestDecoder_Reset(t *testing.T) {
	d := NewDecoder()
	d.DecodeByte(StartByte)
	d.DecodeByte(0x02)
	d.DecodeByte(0x03)

	if d.Pending() != 3 {
		t.Fatalf("Expected 3 pending bytes, got %d", d.Pending())
	}

	d.Reset()
	if d.Pending() != 0 {
		t.Errorf("Expected 0 pending bytes after reset, got %d", d.Pending())
	}

	statuses, errs := feedFrame(d, NewCCTCommand(50, 4950))
	if len(errs) != 0 || len(statuses) != 1 {
		t.Errorf("Expected clean decode after reset, got (%v, %v)", statuses, errs)
	}
}

func TestDecoder_InvalidState(t *testing.T) {
	d := NewDecoder()
	d.state = 999

	_, err := d.DecodeByte(0x00)
	if err == nil {
		t.Fatal("Expected invalid state error")
	}
	if !strings.Contains(err.Error(), "invalid decoder state") {
		t.Errorf("Expected 'invalid decoder state' error, got '%s'", err.Error())
	}
}

func TestDecoder_FrameSplitAcrossChunks(t *testing.T) {
	d := NewDecoder()
	frame := NewCCTCommand(33, 5861)

	statuses, errs := feedFrame(d, frame[:5])
	if len(statuses) != 0 || len(errs) != 0 {
		t.Fatalf("Expected nothing from partial chunk, got (%v, %v)", statuses, errs)
	}

	statuses, errs = feedFrame(d, frame[5:])
	if len(errs) != 0 {
		t.Fatalf("Unexpected errors: %v", errs)
	}
	if len(statuses) != 1 || statuses[0].Brightness != 33 {
		t.Fatalf("Expected brightness 33 from completed frame, got %v", statuses)
	}
}

func TestDecoder_OnlyGarbage(t *testing.T) {
	d := NewDecoder()
	garbage := []byte{0x00, 0x01, 0xFE, 0x99, 0x42}

	statuses, errs := feedFrame(d, garbage)
	if len(statuses) != 0 || len(errs) != 0 {
		t.Fatalf("Expected nothing from garbage, got (%v, %v)", statuses, errs)
	}
	if d.Discarded() != uint64(len(garbage)) {
		t.Errorf("Expected %d discarded, got %d", len(garbage), d.Discarded())
	}
}

// ============================================================
// Validation Tests
// ============================================================

func TestValidateStatus_Clean(t *testing.T) {
	errors := ValidateStatus(&Status{Brightness: 50, TempByte: 0x09})
	if len(errors) != 0 {
		t.Errorf("Expected no validation errors, got %d: %v", len(errors), errors)
	}
}

func TestValidateStatus_BrightnessOutOfRange(t *testing.T) {
	errors := ValidateStatus(&Status{Brightness: 150, TempByte: 0x09})
	if len(errors) != 1 {
		t.Fatalf("Expected 1 validation error, got %d", len(errors))
	}
	if errors[0].Type != ANOMALY_BRIGHTNESS_RANGE {
		t.Errorf("Expected ANOMALY_BRIGHTNESS_RANGE, got %d", errors[0].Type)
	}
}

func TestValidateStatus_TempOutOfRange(t *testing.T) {
	errors := ValidateStatus(&Status{Brightness: 50, TempByte: 0x20})
	if len(errors) != 1 {
		t.Fatalf("Expected 1 validation error, got %d", len(errors))
	}
	if errors[0].Type != ANOMALY_TEMP_RANGE {
		t.Errorf("Expected ANOMALY_TEMP_RANGE, got %d", errors[0].Type)
	}
}

func TestValidateStatus_BothOutOfRange(t *testing.T) {
	errors := ValidateStatus(&Status{Brightness: 200, TempByte: 0xFF})
	if len(errors) != 2 {
		t.Errorf("Expected 2 validation errors, got %d", len(errors))
	}
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Type:    ANOMALY_TEMP_RANGE,
		Message: "Temperature step out of range",
		Details: map[string]interface{}{"temp_byte": 0x20},
	}
	if err.Error() != "Temperature step out of range" {
		t.Errorf("Error() should return message, got '%s'", err.Error())
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatStatus(t *testing.T) {
	s := &Status{
		Brightness: 62,
		TempByte:   0x09,
		Timestamp:  time.Date(2025, 6, 1, 13, 45, 30, 0, time.UTC),
	}
	result := FormatStatus(s)

	if !strings.Contains(result, "[13:45:30.000]") {
		t.Errorf("Expected timestamp, got '%s'", result)
	}
	if !strings.Contains(result, "STATUS") {
		t.Errorf("Expected STATUS label, got '%s'", result)
	}
	if !strings.Contains(result, "brightness=62%") {
		t.Errorf("Expected brightness, got '%s'", result)
	}
	if !strings.Contains(result, "temp=4950K (0x09)") {
		t.Errorf("Expected temperature, got '%s'", result)
	}
}

func TestFormatFrame(t *testing.T) {
	result := FormatFrame([]byte{0x3A, 0x02, 0x03, 0x01, 0x64, 0x12, 0x00, 0xB6})
	expected := "3A 02 03 01 64 12 00 B6"
	if result != expected {
		t.Errorf("Expected '%s', got '%s'", expected, result)
	}
}

func TestFormatFrame_Empty(t *testing.T) {
	if result := FormatFrame(nil); result != "" {
		t.Errorf("Expected empty string, got '%s'", result)
	}
}

func TestHexDump(t *testing.T) {
	data := make([]byte, 20)
	copy(data, "Hello")
	data[5] = 0x00

	result := HexDump(data)
	lines := strings.Split(strings.TrimRight(result, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines for 20 bytes, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "00000000  ") {
		t.Errorf("Expected offset prefix, got '%s'", lines[0])
	}
	if !strings.HasPrefix(lines[1], "00000010  ") {
		t.Errorf("Expected second offset 00000010, got '%s'", lines[1])
	}
	if !strings.Contains(lines[0], "Hello") {
		t.Errorf("Expected ASCII column with 'Hello', got '%s'", lines[0])
	}
	if !strings.Contains(lines[0], "48 65 6C 6C 6F") {
		t.Errorf("Expected hex bytes for 'Hello', got '%s'", lines[0])
	}
	if !strings.Contains(lines[0], ".") {
		t.Errorf("Expected non-printables rendered as dots, got '%s'", lines[0])
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_NewStatistics(t *testing.T) {
	s := NewStatistics()
	if s.TotalFrames != 0 {
		t.Error("New statistics should have 0 total frames")
	}
	if s.ValidFrames != 0 {
		t.Error("New statistics should have 0 valid frames")
	}
	if s.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}
}

func TestStatistics_Update_ValidFrame(t *testing.T) {
	s := NewStatistics()
	status, err := ParseStatus(NewCCTCommand(50, 4950))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	s.Update(status, nil, nil)

	if s.TotalFrames != 1 {
		t.Errorf("TotalFrames should be 1, got %d", s.TotalFrames)
	}
	if s.ValidFrames != 1 {
		t.Errorf("ValidFrames should be 1, got %d", s.ValidFrames)
	}
}

func TestStatistics_Update_ChecksumError(t *testing.T) {
	s := NewStatistics()
	frame := NewCCTCommand(50, 4950)
	frame[4] ^= 0xFF
	_, err := ParseStatus(frame)

	s.Update(nil, err, nil)

	if s.TotalFrames != 1 {
		t.Errorf("TotalFrames should be 1, got %d", s.TotalFrames)
	}
	if s.ChecksumErrors != 1 {
		t.Errorf("ChecksumErrors should be 1, got %d", s.ChecksumErrors)
	}
	if s.ValidFrames != 0 {
		t.Errorf("ValidFrames should be 0, got %d", s.ValidFrames)
	}
}

func TestStatistics_Update_FramingError(t *testing.T) {
	s := NewStatistics()
	frame := NewCCTCommand(50, 4950)
	frame[1] = 0x05
	_, err := ParseStatus(frame)

	s.Update(nil, err, nil)

	if s.FramingErrors != 1 {
		t.Errorf("FramingErrors should be 1, got %d", s.FramingErrors)
	}
	if s.ChecksumErrors != 0 {
		t.Errorf("ChecksumErrors should be 0, got %d", s.ChecksumErrors)
	}
}

func TestStatistics_Update_ValidationErrors(t *testing.T) {
	s := NewStatistics()
	status := &Status{Brightness: 150, TempByte: 0x09}
	validationErrors := ValidateStatus(status)

	s.Update(status, nil, validationErrors)

	if s.TotalFrames != 1 {
		t.Errorf("TotalFrames should be 1, got %d", s.TotalFrames)
	}
	if s.BrightnessAnomalies != 1 {
		t.Errorf("BrightnessAnomalies should be 1, got %d", s.BrightnessAnomalies)
	}
	if s.AnomalousValues != 1 {
		t.Errorf("AnomalousValues should be 1, got %d", s.AnomalousValues)
	}
	if s.ValidFrames != 0 {
		t.Errorf("ValidFrames should be 0 for anomalous frame, got %d", s.ValidFrames)
	}
}

func TestStatistics_RecordDiscarded(t *testing.T) {
	s := NewStatistics()
	s.RecordDiscarded(42)
	if s.DiscardedBytes != 42 {
		t.Errorf("DiscardedBytes should be 42, got %d", s.DiscardedBytes)
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.TotalFrames = 100
	s.ValidFrames = 95
	s.ChecksumErrors = 5

	s.Reset()

	if s.TotalFrames != 0 {
		t.Error("TotalFrames should be 0 after reset")
	}
	if s.ValidFrames != 0 {
		t.Error("ValidFrames should be 0 after reset")
	}
	if s.ChecksumErrors != 0 {
		t.Error("ChecksumErrors should be 0 after reset")
	}
}

func TestStatistics_CalculateRates(t *testing.T) {
	s := NewStatistics()
	s.TotalFrames = 100
	s.ChecksumErrors = 5
	s.FramingErrors = 3
	s.AnomalousValues = 1

	s.CalculateRates()

	if s.FrameRate <= 0 {
		t.Error("FrameRate should be positive")
	}
	if s.ErrorRate <= 0 {
		t.Error("ErrorRate should be positive")
	}
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.TotalFrames = 100
	s.ValidFrames = 90
	s.ChecksumErrors = 5
	s.FramingErrors = 2
	s.AnomalousValues = 3
	s.BrightnessAnomalies = 2
	s.TempAnomalies = 1
	s.DiscardedBytes = 17

	result := s.String()

	if !strings.Contains(result, "Statistics") {
		t.Error("String should contain 'Statistics'")
	}
	if !strings.Contains(result, "Total Frames") {
		t.Error("String should contain 'Total Frames'")
	}
	if !strings.Contains(result, "Checksum Errors") {
		t.Error("String should contain 'Checksum Errors'")
	}
	if !strings.Contains(result, "Discarded Bytes") {
		t.Error("String should contain 'Discarded Bytes'")
	}
}
