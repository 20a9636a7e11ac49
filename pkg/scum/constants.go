// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package scum implements the host side of the SCuM programmer wire protocol.
//
// The programmer is an nRF52840 board that receives a RAM image over UART and
// bit-bangs it into the 64 KiB instruction memory of a SCuM chip over its
// three-wire bus. Two generations of the programmer firmware exist:
//
//   - Legacy: the host streams the whole image, padded to the full memory
//     size, as raw bytes and then sends a boot-mode line. The programmer
//     answers "OK" after the load and after the boot.
//   - Framed: every transfer step is a command frame
//     [opcode:1][payload:256]. The programmer answers "ACK" to each frame.
//
// This package provides firmware loading, unit framing, command encoding and
// response classification. Driving a device is the job of the loader package.
package scum

import "time"

// Memory layout
const (
	// MemorySize is the size of SCuM's instruction memory. Legacy transfers
	// always send exactly this many bytes.
	MemorySize = 1 << 16
)

// Unit sizes (bytes carried by one protocol transfer step)
const (
	LegacyUnitSize = 32
	FramedUnitSize = 256
)

// Write chunk sizes, bounded by the programmer's UART receive buffer.
// These are transport concerns and differ from the unit sizes.
const (
	LegacyWriteChunkSize = 32
	FramedWriteChunkSize = 64
)

// Success tokens returned by the programmer, one per line
const (
	TokenOK  = "OK"
	TokenACK = "ACK"
)

// Serial defaults
const (
	LegacyBaudRate = 250000
	FramedBaudRate = 460800
	ReadTimeout    = 5 * time.Second
)

// Opcode identifies a framed protocol command
type Opcode uint8

// Framed protocol opcodes
const (
	OpStart     Opcode = 0x01
	OpChunk     Opcode = 0x02
	OpBoot      Opcode = 0x03
	OpCalibrate Opcode = 0x04
)

// Valid reports whether the opcode is understood by the programmer
func (o Opcode) Valid() bool {
	return o >= OpStart && o <= OpCalibrate
}

// Decoder states (internal)
const (
	stateOpcode = iota
	statePayload
)
