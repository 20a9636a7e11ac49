// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package emulator implements the programmer side of both loader protocols.
//
// A Device consumes the byte stream the host writes and returns the response
// bytes the programmer would send. It keeps an image of SCuM memory so tests
// can check what was loaded, and can be scripted to reject or ignore
// specific steps.
package emulator

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Thermoquad/scumloader/pkg/scum"
)

// Response lines
const (
	replyACK = "ACK\r\n"
	replyOK  = "OK\r\n"
	replyERR = "ERR\r\n"
)

// legacy stages
const (
	stageImage = iota
	stageBootLine
	stageIdle
)

// Fault scripts a misbehaving reply. The legacy protocol reports its end of
// transfer reply as OpChunk and its boot reply as OpBoot.
type Fault struct {
	// Opcode selects the step
	Opcode scum.Opcode

	// Occurrence is the zero-based count of Opcode at which to fire
	Occurrence int

	// Reply replaces the success line; ignored when Silent
	Reply string

	// Silent suppresses the reply entirely
	Silent bool
}

// Device emulates a programmer. It is safe for concurrent use.
type Device struct {
	mu       sync.Mutex
	protocol scum.Protocol
	decoder  *scum.Decoder
	faults   []Fault
	seen     map[scum.Opcode]int
	commands []scum.Opcode

	memory     []byte
	loaded     int
	stage      int
	bootLine   []byte
	bootMode   string
	booted     bool
	calibrated bool
}

// NewDevice creates a device speaking protocol with empty memory
func NewDevice(protocol scum.Protocol, faults ...Fault) *Device {
	return &Device{
		protocol: protocol,
		decoder:  scum.NewDecoder(scum.FramedUnitSize),
		faults:   faults,
		seen:     make(map[scum.Opcode]int),
		memory:   make([]byte, scum.MemorySize),
	}
}

// Protocol returns the protocol the device speaks
func (d *Device) Protocol() scum.Protocol {
	return d.protocol
}

// Feed consumes host bytes and returns the bytes the device sends back.
func (d *Device) Feed(p []byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []byte
	for _, b := range p {
		if d.protocol == scum.ProtocolLegacy {
			out = append(out, d.feedLegacy(b)...)
		} else {
			out = append(out, d.feedFramed(b)...)
		}
	}
	return out
}

func (d *Device) feedFramed(b byte) []byte {
	cmd, err := d.decoder.DecodeByte(b)
	if err != nil {
		log.Debug().Err(err).Msg("emulator: bad frame")
		return []byte(replyERR)
	}
	if cmd == nil {
		return nil
	}

	d.commands = append(d.commands, cmd.Opcode)

	switch cmd.Opcode {
	case scum.OpStart:
		clear(d.memory)
		d.loaded = 0
		d.booted = false
		d.calibrated = false
	case scum.OpChunk:
		if d.loaded+len(cmd.Payload) > len(d.memory) {
			return []byte(replyERR)
		}
		copy(d.memory[d.loaded:], cmd.Payload)
		d.loaded += len(cmd.Payload)
	case scum.OpBoot:
		clear(d.memory[d.loaded:])
		d.booted = true
	case scum.OpCalibrate:
		d.calibrated = true
	}

	log.Debug().Str("cmd", scum.FormatCommand(*cmd)).Msg("emulator: received")
	return d.reply(cmd.Opcode, replyACK)
}

func (d *Device) feedLegacy(b byte) []byte {
	switch d.stage {
	case stageImage:
		d.memory[d.loaded] = b
		d.loaded++
		if d.loaded < len(d.memory) {
			return nil
		}
		d.stage = stageBootLine
		d.commands = append(d.commands, scum.OpChunk)
		return d.reply(scum.OpChunk, replyOK)
	case stageBootLine:
		d.bootLine = append(d.bootLine, b)
		if b != '\n' {
			return nil
		}
		d.stage = stageIdle
		d.bootMode = string(bytes.TrimSpace(d.bootLine))
		d.commands = append(d.commands, scum.OpBoot)
		if d.bootMode != "3wb" && d.bootMode != "optical" {
			return []byte(replyERR)
		}
		d.booted = true
		return d.reply(scum.OpBoot, replyOK)
	default:
		return nil
	}
}

// reply applies any scripted fault for op, else returns ok
func (d *Device) reply(op scum.Opcode, ok string) []byte {
	n := d.seen[op]
	d.seen[op] = n + 1

	for _, f := range d.faults {
		if f.Opcode != op || f.Occurrence != n {
			continue
		}
		if f.Silent {
			return nil
		}
		return []byte(f.Reply)
	}
	return []byte(ok)
}

// Memory returns a copy of emulated SCuM memory
func (d *Device) Memory() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return bytes.Clone(d.memory)
}

// Loaded returns the number of image bytes received
func (d *Device) Loaded() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

// Commands returns the commands received, in order
func (d *Device) Commands() []scum.Opcode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]scum.Opcode(nil), d.commands...)
}

// Booted reports whether SCuM was released from reset
func (d *Device) Booted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.booted
}

// Calibrated reports whether the calibration pulses were requested
func (d *Device) Calibrated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calibrated
}

// BootMode returns the legacy boot trigger received, without the newline
func (d *Device) BootMode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bootMode
}
