// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package pl81

// Checksum computes the 16-bit wrapping sum of data. The wire format stores
// it big-endian immediately after the summed bytes.
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// checksumBytes splits a checksum into its wire order, high byte first.
func checksumBytes(sum uint16) (hi, lo byte) {
	return byte(sum >> 8), byte(sum & 0xFF)
}
