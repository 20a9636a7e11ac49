// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scum

import (
	"errors"
	"fmt"
)

// ErrEmptyFirmware is returned for a zero-length image
var ErrEmptyFirmware = errors.New("firmware image is empty")

// FirmwareLoadError indicates the firmware could not be read into memory.
type FirmwareLoadError struct {
	Path string
	Err  error
}

func (e *FirmwareLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load firmware: %v", e.Err)
	}
	return fmt.Sprintf("load firmware %s: %v", e.Path, e.Err)
}

func (e *FirmwareLoadError) Unwrap() error {
	return e.Err
}

// FirmwareTooLargeError indicates the image does not fit the target memory.
type FirmwareTooLargeError struct {
	Size  int
	Limit int
}

func (e *FirmwareTooLargeError) Error() string {
	return fmt.Sprintf("firmware too large: %d bytes (max %d)", e.Size, e.Limit)
}

// PayloadSizeError indicates a command payload does not match the unit size.
type PayloadSizeError struct {
	Opcode Opcode
	Size   int
	Want   int
}

func (e *PayloadSizeError) Error() string {
	return fmt.Sprintf("%s payload is %d bytes, want %d", FormatOpcode(e.Opcode), e.Size, e.Want)
}

// InvalidOpcodeError is returned when encoding or decoding an unknown opcode.
type InvalidOpcodeError struct {
	Opcode Opcode
}

func (e *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode 0x%02X", uint8(e.Opcode))
}
