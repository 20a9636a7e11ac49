// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"fmt"

	"go.bug.st/serial/enumerator"
)

// ProgrammerProduct is the USB product string of the programmer's J-Link adapter
const ProgrammerProduct = "J-Link"

// PortLister returns the serial ports present on the host
type PortLister func() ([]*enumerator.PortDetails, error)

// ListPorts enumerates serial ports with USB details.
func ListPorts() ([]*enumerator.PortDetails, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	return ports, nil
}

// FindProgrammerPort picks the port the programmer is most likely on.
// On Windows the first port wins; elsewhere the first J-Link port.
func FindProgrammerPort(goos string, ports []*enumerator.PortDetails) (string, bool) {
	for _, p := range ports {
		if p == nil {
			continue
		}
		if goos == "windows" || p.Product == ProgrammerProduct {
			return p.Name, true
		}
	}
	return "", false
}

// FallbackPort is the path used when nothing better is found
func FallbackPort(goos string) string {
	if goos == "windows" {
		return "COM1"
	}
	return "/dev/ttyACM0"
}

// DefaultPort resolves the port to use when none was given. Enumeration
// errors are not fatal; the fallback is returned instead.
func DefaultPort(goos string, list PortLister) string {
	ports, err := list()
	if err != nil {
		return FallbackPort(goos)
	}
	if name, ok := FindProgrammerPort(goos, ports); ok {
		return name
	}
	return FallbackPort(goos)
}
