// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package pl81

// tempSpanKelvin is the width of the panel's color temperature range.
const tempSpanKelvin = TempMaxKelvin - TempMinKelvin

// KelvinToByte converts a color temperature in Kelvin to the protocol's
// quantization step. Input is clamped to the 2900K-7000K range and the step
// is rounded half-up, so 4950K lands exactly on step 0x09, the midpoint.
func KelvinToByte(kelvin uint32) uint8 {
	if kelvin < TempMinKelvin {
		kelvin = TempMinKelvin
	}
	if kelvin > TempMaxKelvin {
		kelvin = TempMaxKelvin
	}
	step := ((kelvin-TempMinKelvin)*TempSteps + tempSpanKelvin/2) / tempSpanKelvin
	if step > TempSteps {
		step = TempSteps
	}
	return uint8(step)
}

// ByteToKelvin converts a quantization step back to Kelvin, rounding interior
// steps to the nearest Kelvin. Steps above 0x12 are clamped, matching the
// panel's own treatment. The endpoints are exact: 0x00 is 2900K and 0x12 is
// 7000K.
//
// The two conversions are lossy inverses. A step always survives the round
// trip through ByteToKelvin and KelvinToByte unchanged, but an arbitrary
// Kelvin value only survives to within one step's width (roughly 228K).
func ByteToKelvin(step uint8) uint32 {
	s := uint32(step)
	if s > TempSteps {
		s = TempSteps
	}
	return TempMinKelvin + (s*tempSpanKelvin+TempSteps/2)/TempSteps
}
