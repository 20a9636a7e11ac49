// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scum

import (
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// Firmware is an immutable RAM image. It may be shared between sessions.
type Firmware struct {
	name string
	data []byte
}

// NewFirmware copies data into a new image. Empty data is rejected.
func NewFirmware(name string, data []byte) (*Firmware, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFirmware
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Firmware{name: name, data: buf}, nil
}

// ReadFirmware reads an image fully into memory.
func ReadFirmware(name string, r io.Reader) (*Firmware, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &FirmwareLoadError{Path: name, Err: err}
	}
	fw, err := NewFirmware(name, data)
	if err != nil {
		return nil, &FirmwareLoadError{Path: name, Err: err}
	}
	return fw, nil
}

// LoadFirmware reads the image at path from fs.
func LoadFirmware(fs afero.Fs, path string) (*Firmware, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &FirmwareLoadError{Path: path, Err: err}
	}
	defer f.Close()

	return ReadFirmware(path, f)
}

// Name returns the base name of the file the image was loaded from
func (f *Firmware) Name() string {
	if f.name == "" {
		return ""
	}
	return filepath.Base(f.name)
}

// Len returns the image size in bytes
func (f *Firmware) Len() int {
	return len(f.data)
}

// Bytes returns a copy of the image
func (f *Firmware) Bytes() []byte {
	buf := make([]byte, len(f.data))
	copy(buf, f.data)
	return buf
}
