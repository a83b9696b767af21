// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package pl81

import "fmt"

// AnomalyType represents different classes of suspicious status values
type AnomalyType int

const (
	ANOMALY_BRIGHTNESS_RANGE AnomalyType = iota
	ANOMALY_TEMP_RANGE
	ANOMALY_CHECKSUM_ERROR
	ANOMALY_FRAMING_ERROR
)

// ValidationError represents one anomalous value in an otherwise
// checksum-valid status frame
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateStatus checks a decoded status for values outside the panel's
// documented ranges. The session layer publishes statuses exactly as
// received; range checking is left to monitoring tools that want anomalies
// surfaced. Returns a slice of validation errors (empty if the status is
// clean).
func ValidateStatus(s *Status) []ValidationError {
	errors := []ValidationError{}

	if s.Brightness > MaxBrightness {
		errors = append(errors, ValidationError{
			Type:    ANOMALY_BRIGHTNESS_RANGE,
			Message: fmt.Sprintf("Brightness out of range (%d%%, max %d%%)", s.Brightness, MaxBrightness),
			Details: map[string]interface{}{"brightness": s.Brightness, "max": MaxBrightness},
		})
	}

	if uint32(s.TempByte) > TempSteps {
		errors = append(errors, ValidationError{
			Type:    ANOMALY_TEMP_RANGE,
			Message: fmt.Sprintf("Temperature step out of range (0x%02X, max 0x%02X)", s.TempByte, TempSteps),
			Details: map[string]interface{}{"temp_byte": s.TempByte, "max": TempSteps},
		})
	}

	return errors
}
