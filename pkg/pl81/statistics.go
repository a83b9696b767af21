// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package pl81

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames         uint64
	ValidFrames         uint64
	ChecksumErrors      uint64
	FramingErrors       uint64
	AnomalousValues     uint64
	BrightnessAnomalies uint64
	TempAnomalies       uint64
	DiscardedBytes      uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics based on a frame and its errors. Exactly one of
// status and decodeErr is set per completed window; validationErrors come
// from ValidateStatus on a parsed frame.
func (s *Statistics) Update(status *Status, decodeErr error, validationErrors []ValidationError) {
	s.TotalFrames++

	if decodeErr != nil {
		if errors.Is(decodeErr, ErrChecksumMismatch) {
			s.ChecksumErrors++
		} else {
			s.FramingErrors++
		}
		return // Don't process the frame further if decode failed
	}

	if len(validationErrors) > 0 {
		for _, err := range validationErrors {
			switch err.Type {
			case ANOMALY_BRIGHTNESS_RANGE:
				s.BrightnessAnomalies++
				s.AnomalousValues++
			case ANOMALY_TEMP_RANGE:
				s.TempAnomalies++
				s.AnomalousValues++
			}
		}
	} else {
		s.ValidFrames++
	}

	s.LastUpdateTime = time.Now()
}

// RecordDiscarded sets the count of bytes skipped between frames, taken from
// the decoder's running total.
func (s *Statistics) RecordDiscarded(n uint64) {
	s.DiscardedBytes = n
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		errorCount := s.ChecksumErrors + s.FramingErrors + s.AnomalousValues
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, checksumPercent, framingPercent, anomalousPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		checksumPercent = float64(s.ChecksumErrors) * 100.0 / float64(s.TotalFrames)
		framingPercent = float64(s.FramingErrors) * 100.0 / float64(s.TotalFrames)
		anomalousPercent = float64(s.AnomalousValues) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%%)\n", s.ChecksumErrors, checksumPercent)
	}
	if s.FramingErrors > 0 {
		result += fmt.Sprintf("Framing Errors:  %8d (%.1f%%)\n", s.FramingErrors, framingPercent)
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values:%8d (%.1f%%)\n", s.AnomalousValues, anomalousPercent)
		if s.BrightnessAnomalies > 0 {
			result += fmt.Sprintf("  Brightness >100%%: %5d\n", s.BrightnessAnomalies)
		}
		if s.TempAnomalies > 0 {
			result += fmt.Sprintf("  Temp Step >0x12:  %5d\n", s.TempAnomalies)
		}
	}
	if s.DiscardedBytes > 0 {
		result += fmt.Sprintf("Discarded Bytes: %8d\n", s.DiscardedBytes)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalFrames = 0
	s.ValidFrames = 0
	s.ChecksumErrors = 0
	s.FramingErrors = 0
	s.AnomalousValues = 0
	s.BrightnessAnomalies = 0
	s.TempAnomalies = 0
	s.DiscardedBytes = 0
	s.FrameRate = 0
	s.ErrorRate = 0
}
