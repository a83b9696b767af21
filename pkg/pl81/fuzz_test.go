// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package pl81

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomGarbageByte returns a byte that is never the frame sentinel, so
// garbage runs cannot open a decode window.
func randomGarbageByte(rng *rand.Rand) byte {
	b := byte(rng.Intn(255))
	if b >= StartByte {
		b++
	}
	return b
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

// TestFuzzDecoder_RandomBytes feeds random byte streams to the decoder and
// verifies it never panics and never loses count of its input
func TestFuzzDecoder_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		d := NewDecoder()

		length := rng.Intn(512) + 1
		data := make([]byte, length)
		rng.Read(data)

		for _, b := range data {
			d.DecodeByte(b)
		}

		// Every input byte either sits in the pending window, was consumed by
		// a completed window, or was discarded while hunting.
		if d.Discarded() > uint64(length) {
			t.Fatalf("Round %d: discarded %d of %d bytes", i, d.Discarded(), length)
		}
	}
}

// TestFuzzDecoder_InterleavedGarbage places valid frames between runs of
// sentinel-free garbage and verifies every frame is recovered in order
func TestFuzzDecoder_InterleavedGarbage(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		d := NewDecoder()

		numFrames := rng.Intn(8) + 1
		sent := make([]uint8, 0, numFrames)
		var stream []byte

		for j := 0; j < numFrames; j++ {
			for k := rng.Intn(16); k > 0; k-- {
				stream = append(stream, randomGarbageByte(rng))
			}
			brightness := uint8(rng.Intn(101))
			sent = append(sent, brightness)
			stream = append(stream, NewCCTCommand(brightness, uint32(rng.Intn(8000)))...)
		}
		for k := rng.Intn(16); k > 0; k-- {
			stream = append(stream, randomGarbageByte(rng))
		}

		statuses, errs := d.Decode(stream)
		if len(errs) != 0 {
			t.Fatalf("Round %d: unexpected decode errors: %v", i, errs)
		}
		if len(statuses) != numFrames {
			t.Fatalf("Round %d: expected %d frames, got %d", i, numFrames, len(statuses))
		}
		for j, status := range statuses {
			if status.Brightness != sent[j] {
				t.Errorf("Round %d: frame %d brightness mismatch: expected %d, got %d",
					i, j, sent[j], status.Brightness)
			}
		}
	}
}

// ============================================================
// Encoder Fuzz Tests
// ============================================================

// TestFuzzEncoder_RoundTrip encodes random commands and verifies they parse
// back to the capped brightness and quantized temperature
func TestFuzzEncoder_RoundTrip(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		brightness := uint8(rng.Intn(256))
		kelvin := uint32(rng.Intn(20000))

		pkt := NewCCTCommand(brightness, kelvin)
		if len(pkt) != StatusFrameSize {
			t.Fatalf("Round %d: expected %d bytes, got %d", i, StatusFrameSize, len(pkt))
		}

		status, err := ParseStatus(pkt)
		if err != nil {
			t.Fatalf("Round %d: self-produced frame failed to parse: %v", i, err)
		}

		expectedBrightness := brightness
		if expectedBrightness > MaxBrightness {
			expectedBrightness = MaxBrightness
		}
		if status.Brightness != expectedBrightness {
			t.Errorf("Round %d: brightness mismatch: expected %d, got %d",
				i, expectedBrightness, status.Brightness)
		}
		if status.TempByte != KelvinToByte(kelvin) {
			t.Errorf("Round %d: temp byte mismatch: expected 0x%02X, got 0x%02X",
				i, KelvinToByte(kelvin), status.TempByte)
		}
	}
}

// ============================================================
// Checksum Fuzz Tests
// ============================================================

// TestFuzzChecksum_SingleByteCorruption verifies that flipping any bits of
// any single byte in a valid frame is always detected. The checksum is a
// plain sum, so a lone byte change of at most 255 can never wrap back to the
// same 16-bit value.
func TestFuzzChecksum_SingleByteCorruption(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		frame := NewCCTCommand(uint8(rng.Intn(101)), uint32(rng.Intn(8000)))

		idx := rng.Intn(StatusFrameSize)
		frame[idx] ^= byte(rng.Intn(255) + 1)

		if _, err := ParseStatus(frame); err == nil {
			t.Fatalf("Round %d: corrupted byte %d went undetected: % X", i, idx, frame)
		}
	}
}

// ============================================================
// Temperature Fuzz Tests
// ============================================================

// TestFuzzTemperature_Quantization checks the quantization bounds and
// stability for arbitrary Kelvin inputs, in and out of range
func TestFuzzTemperature_Quantization(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		kelvin := uint32(rng.Intn(12000))

		step := KelvinToByte(kelvin)
		if uint32(step) > TempSteps {
			t.Fatalf("Round %d: KelvinToByte(%d) = 0x%02X exceeds max step", i, kelvin, step)
		}

		quantized := ByteToKelvin(step)
		if quantized < TempMinKelvin || quantized > TempMaxKelvin {
			t.Fatalf("Round %d: ByteToKelvin(0x%02X) = %d outside panel range", i, step, quantized)
		}

		// Quantizing again must land on the same step.
		if again := KelvinToByte(quantized); again != step {
			t.Errorf("Round %d: quantization not stable: %dK -> 0x%02X -> %dK -> 0x%02X",
				i, kelvin, step, quantized, again)
		}

		// The quantized value stays within half a step of the clamped input.
		clamped := kelvin
		if clamped < TempMinKelvin {
			clamped = TempMinKelvin
		}
		if clamped > TempMaxKelvin {
			clamped = TempMaxKelvin
		}
		diff := int64(quantized) - int64(clamped)
		if diff < 0 {
			diff = -diff
		}
		if diff > 114 {
			t.Errorf("Round %d: %dK quantized to %dK, off by %d", i, kelvin, quantized, diff)
		}
	}
}
