// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scum

import "fmt"

// Encoder encodes framed protocol commands for transmission.
type Encoder struct {
	unitSize int
}

// NewEncoder creates an encoder for the given payload size.
func NewEncoder(unitSize int) *Encoder {
	return &Encoder{unitSize: unitSize}
}

// Encode encodes a Command to wire format.
func (e *Encoder) Encode(cmd Command) ([]byte, error) {
	return EncodeCommand(cmd, e.unitSize)
}

// FrameSize returns the length of every encoded frame
func (e *Encoder) FrameSize() int {
	return 1 + e.unitSize
}

// EncodeCommand creates a wire-formatted frame: [opcode:1][payload:unitSize].
func EncodeCommand(cmd Command, unitSize int) ([]byte, error) {
	if !cmd.Opcode.Valid() {
		return nil, &InvalidOpcodeError{Opcode: cmd.Opcode}
	}
	if len(cmd.Payload) != unitSize {
		return nil, &PayloadSizeError{Opcode: cmd.Opcode, Size: len(cmd.Payload), Want: unitSize}
	}

	frame := make([]byte, 1+unitSize)
	frame[0] = byte(cmd.Opcode)
	copy(frame[1:], cmd.Payload)

	return frame, nil
}

// MustEncodeCommand encodes a command and panics on error.
// Only use with commands built by the New*Command helpers.
func MustEncodeCommand(cmd Command, unitSize int) []byte {
	frame, err := EncodeCommand(cmd, unitSize)
	if err != nil {
		panic(fmt.Sprintf("scum: encode error: %v", err))
	}
	return frame
}
