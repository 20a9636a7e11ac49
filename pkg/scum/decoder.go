// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scum

// Decoder reassembles framed commands from a byte stream, the way the
// programmer firmware does. The host never needs it; it backs the device
// emulator and round-trip tests.
type Decoder struct {
	state    int
	unitSize int
	opcode   Opcode
	payload  []byte
}

// NewDecoder creates a decoder for the given payload size
func NewDecoder(unitSize int) *Decoder {
	return &Decoder{
		state:    stateOpcode,
		unitSize: unitSize,
		payload:  make([]byte, 0, unitSize),
	}
}

// Reset discards any partially received frame
func (d *Decoder) Reset() {
	d.state = stateOpcode
	d.opcode = 0
	d.payload = d.payload[:0]
}

// Pending returns the number of bytes of the current partial frame
func (d *Decoder) Pending() int {
	if d.state == stateOpcode {
		return 0
	}
	return 1 + len(d.payload)
}

// DecodeByte processes a single byte.
// Returns a completed command, or nil if the frame is incomplete.
// The programmer does not validate opcodes before the payload is complete,
// so an unknown opcode is reported only once the whole frame has arrived.
func (d *Decoder) DecodeByte(b byte) (*Command, error) {
	switch d.state {
	case stateOpcode:
		d.opcode = Opcode(b)
		d.payload = d.payload[:0]
		d.state = statePayload
		if d.unitSize > 0 {
			return nil, nil
		}
	case statePayload:
		d.payload = append(d.payload, b)
		if len(d.payload) < d.unitSize {
			return nil, nil
		}
	}

	cmd := &Command{Opcode: d.opcode, Payload: append([]byte(nil), d.payload...)}
	d.Reset()

	if !cmd.Opcode.Valid() {
		return nil, &InvalidOpcodeError{Opcode: cmd.Opcode}
	}
	return cmd, nil
}

// DecodeCommand decodes one complete frame.
func DecodeCommand(frame []byte, unitSize int) (*Command, error) {
	if len(frame) != 1+unitSize {
		return nil, &PayloadSizeError{Opcode: Opcode(firstByte(frame)), Size: len(frame) - 1, Want: unitSize}
	}

	d := NewDecoder(unitSize)
	for _, b := range frame[:len(frame)-1] {
		if _, err := d.DecodeByte(b); err != nil {
			return nil, err
		}
	}
	return d.DecodeByte(frame[len(frame)-1])
}

func firstByte(p []byte) byte {
	if len(p) == 0 {
		return 0
	}
	return p[0]
}
