// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scum

import (
	"fmt"
	"strings"
)

// FormatOpcode returns the human-readable name for an opcode
func FormatOpcode(op Opcode) string {
	switch op {
	case OpStart:
		return "START"
	case OpChunk:
		return "CHUNK"
	case OpBoot:
		return "BOOT"
	case OpCalibrate:
		return "CALIBRATE"
	default:
		return "UNKNOWN"
	}
}

// FormatCommand formats a command into a one-line summary
func FormatCommand(cmd Command) string {
	nonZero := 0
	for _, b := range cmd.Payload {
		if b != 0 {
			nonZero++
		}
	}
	return fmt.Sprintf("%s (0x%02X) payload=%d bytes nonzero=%d",
		FormatOpcode(cmd.Opcode), uint8(cmd.Opcode), len(cmd.Payload), nonZero)
}

// FormatFrame formats an encoded frame: the opcode and a short hex preview
func FormatFrame(frame []byte) string {
	if len(frame) == 0 {
		return "(empty frame)"
	}

	preview := frame[1:]
	truncated := false
	if len(preview) > 16 {
		preview = preview[:16]
		truncated = true
	}

	var s strings.Builder
	fmt.Fprintf(&s, "%s (0x%02X) len=%d [", FormatOpcode(Opcode(frame[0])), frame[0], len(frame))
	for i, b := range preview {
		if i > 0 {
			s.WriteByte(' ')
		}
		fmt.Fprintf(&s, "%02X", b)
	}
	if truncated {
		s.WriteString(" ...")
	}
	s.WriteByte(']')

	return s.String()
}

// FormatSize formats a byte count the way the loader reports image sizes
func FormatSize(n int) string {
	if n >= 1024 && n%1024 == 0 {
		return fmt.Sprintf("%dkB", n/1024)
	}
	if n >= 1024 {
		return fmt.Sprintf("%.1fkB", float64(n)/1024)
	}
	return fmt.Sprintf("%dB", n)
}
