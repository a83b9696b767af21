// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package pl81

import (
	"fmt"
	"strings"
	"time"
)

// FormatStatus formats a decoded status frame into a human-readable line
func FormatStatus(s *Status) string {
	timestamp := s.Timestamp.Format("15:04:05.000")
	return fmt.Sprintf("[%s] STATUS brightness=%d%% temp=%dK (0x%02X)\n",
		timestamp, s.Brightness, s.Kelvin(), s.TempByte)
}

// FormatDecodeError formats a frame decode failure in the same line format.
// The parse errors already carry the offending values.
func FormatDecodeError(err error) string {
	timestamp := time.Now().Format("15:04:05.000")
	return fmt.Sprintf("[%s] INVALID %v\n", timestamp, err)
}

// FormatFrame formats raw frame bytes as space-separated hex
func FormatFrame(frame []byte) string {
	var b strings.Builder
	for i, v := range frame {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}

// HexDump formats arbitrary bytes as offset, hex, and ASCII columns, 16 bytes
// per line. The monitor's --hex mode renders raw chunks with it.
func HexDump(data []byte) string {
	var b strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]

		fmt.Fprintf(&b, "%08X  ", off)
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(&b, "%02X ", line[i])
			} else {
				b.WriteString("   ")
			}
			if i == 7 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(" |")
		for _, v := range line {
			if v >= 0x20 && v < 0x7F {
				b.WriteByte(v)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("|\n")
	}
	return b.String()
}
