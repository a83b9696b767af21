// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package panel

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrNoPort is returned by FindPort when no candidate port is present.
var ErrNoPort = errors.New("no usbserial port found")

// portNameFilter is the substring the CH340 adapter's device node carries
// (/dev/cu.usbserial-XXXX on macOS, usbserial udev aliases on Linux).
const portNameFilter = "usbserial"

// ListPorts returns every serial port name on the system.
func ListPorts() ([]string, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return names, nil
}

// FilterCandidates keeps the names that look like the panel's USB-serial
// adapter, preserving enumeration order.
func FilterCandidates(names []string) []string {
	var out []string
	for _, n := range names {
		if strings.Contains(n, portNameFilter) {
			out = append(out, n)
		}
	}
	return out
}

// FindPort returns the first port whose name contains "usbserial". Returns
// ErrNoPort when nothing matches.
func FindPort() (string, error) {
	names, err := ListPorts()
	if err != nil {
		return "", err
	}
	candidates := FilterCandidates(names)
	if len(candidates) == 0 {
		return "", ErrNoPort
	}
	return candidates[0], nil
}

// PortDetails describes an enumerated port with USB metadata when available.
type PortDetails struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// ListPortDetails returns every port with its USB metadata, for the ports
// command's detailed listing.
func ListPortDetails() ([]PortDetails, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	out := make([]PortDetails, 0, len(ports))
	for _, p := range ports {
		out = append(out, PortDetails{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}
	return out, nil
}
