// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scum

// Command is one framed protocol request: an opcode and a unit-sized payload.
type Command struct {
	Opcode  Opcode
	Payload []byte
}

// Command builder functions create Commands ready for encoding.
// Control commands carry an all-zero payload of the unit size.

// NewStartCommand creates a START command (0x01).
// The programmer resets SCuM and rewinds its chunk counter.
func NewStartCommand(unitSize int) Command {
	return Command{Opcode: OpStart, Payload: make([]byte, unitSize)}
}

// NewChunkCommand creates a CHUNK command (0x02) carrying one unit.
// The programmer shifts the payload into SCuM memory.
func NewChunkCommand(u Unit) Command {
	return Command{Opcode: OpChunk, Payload: u.Data}
}

// NewBootCommand creates a BOOT command (0x03).
// The programmer zero-fills the rest of SCuM memory and releases it from reset.
func NewBootCommand(unitSize int) Command {
	return Command{Opcode: OpBoot, Payload: make([]byte, unitSize)}
}

// NewCalibrateCommand creates a CALIBRATE command (0x04).
// The programmer emits the 100 ms reference pulses used to trim SCuM's clocks.
func NewCalibrateCommand(unitSize int) Command {
	return Command{Opcode: OpCalibrate, Payload: make([]byte, unitSize)}
}
