// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scum

import (
	"fmt"
	"strings"
)

// Protocol selects the programmer firmware generation
type Protocol int

// Protocol values. The zero value is invalid.
const (
	ProtocolLegacy Protocol = iota + 1
	ProtocolFramed
)

// ParseProtocol parses "legacy" or "framed"
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy":
		return ProtocolLegacy, nil
	case "framed":
		return ProtocolFramed, nil
	}
	return 0, fmt.Errorf("unknown protocol %q (use legacy or framed)", s)
}

func (p Protocol) String() string {
	switch p {
	case ProtocolLegacy:
		return "legacy"
	case ProtocolFramed:
		return "framed"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// Valid reports whether p is a known protocol
func (p Protocol) Valid() bool {
	return p == ProtocolLegacy || p == ProtocolFramed
}

// UnitSize returns the number of image bytes carried per transfer step
func (p Protocol) UnitSize() int {
	if p == ProtocolLegacy {
		return LegacyUnitSize
	}
	return FramedUnitSize
}

// WriteChunkSize returns the largest single write the programmer can buffer
func (p Protocol) WriteChunkSize() int {
	if p == ProtocolLegacy {
		return LegacyWriteChunkSize
	}
	return FramedWriteChunkSize
}

// SuccessToken returns the response line that acknowledges a step
func (p Protocol) SuccessToken() string {
	if p == ProtocolLegacy {
		return TokenOK
	}
	return TokenACK
}

// DefaultBaudRate returns the UART speed the programmer firmware runs at
func (p Protocol) DefaultBaudRate() int {
	if p == ProtocolLegacy {
		return LegacyBaudRate
	}
	return FramedBaudRate
}

// FramerConfig returns the framing rules for this protocol.
// Legacy pads the whole image to MemorySize; framed only pads the last unit.
func (p Protocol) FramerConfig(padding Padding) FramerConfig {
	if p == ProtocolLegacy {
		return FramerConfig{
			UnitSize:  LegacyUnitSize,
			Padding:   padding,
			TotalSize: MemorySize,
		}
	}
	return FramerConfig{
		UnitSize:     FramedUnitSize,
		Padding:      PaddingZero,
		MaxImageSize: MemorySize,
	}
}

// Padding selects how the final unit is filled
type Padding int

// Padding values
const (
	PaddingZero Padding = iota
	PaddingRandom
)

// ParsePadding parses "zero" or "random"
func ParsePadding(s string) (Padding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero", "":
		return PaddingZero, nil
	case "random":
		return PaddingRandom, nil
	}
	return 0, fmt.Errorf("unknown padding %q (use zero or random)", s)
}

func (p Padding) String() string {
	switch p {
	case PaddingZero:
		return "zero"
	case PaddingRandom:
		return "random"
	default:
		return fmt.Sprintf("Padding(%d)", int(p))
	}
}

// BootMode selects how the legacy programmer boots SCuM after loading
type BootMode int

// Boot mode values
const (
	BootThreeWireBus BootMode = iota
	BootOptical
)

// ParseBootMode accepts the wire tokens ("3wb", "optical") and "three-wire-bus"
func ParseBootMode(s string) (BootMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "3wb", "three-wire-bus", "":
		return BootThreeWireBus, nil
	case "optical":
		return BootOptical, nil
	}
	return 0, fmt.Errorf("unknown boot mode %q (use 3wb or optical)", s)
}

// Token returns the text sent to the programmer to trigger the boot
func (b BootMode) Token() string {
	if b == BootOptical {
		return "optical"
	}
	return "3wb"
}

func (b BootMode) String() string {
	return b.Token()
}

// BootLine returns the full boot trigger written by the legacy protocol
func (b BootMode) BootLine() []byte {
	return []byte(b.Token() + "\n")
}
