// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scum

import (
	"fmt"
	"iter"
	"math/rand/v2"
)

// FramerConfig controls how an image is carved into units
type FramerConfig struct {
	// UnitSize is the length of every unit produced
	UnitSize int

	// Padding fills the bytes after the end of the image
	Padding Padding

	// TotalSize pads the image to a fixed length before carving.
	// Zero pads only the final unit up to UnitSize.
	TotalSize int

	// MaxImageSize rejects larger images. Zero means TotalSize
	// (or no limit when TotalSize is also zero).
	MaxImageSize int

	// Rand is the source for PaddingRandom. Nil uses the global source.
	Rand *rand.Rand
}

// Unit is one fixed-size block of the padded image
type Unit struct {
	// Index is the zero-based position of the unit in the transfer
	Index int

	// Offset is the position of Data[0] in the padded image
	Offset int

	// Data is always exactly UnitSize bytes
	Data []byte

	// Padding is the number of synthetic bytes at the end of Data
	Padding int
}

// ImageBytes returns the part of the unit that came from the firmware image
func (u Unit) ImageBytes() []byte {
	return u.Data[:len(u.Data)-u.Padding]
}

// Framer splits a firmware image into protocol units.
type Framer struct {
	fw  *Firmware
	cfg FramerConfig
}

// NewFramer validates the configuration against the image and returns a framer.
// Validation happens here so that framing errors surface before any I/O.
func NewFramer(fw *Firmware, cfg FramerConfig) (*Framer, error) {
	if fw == nil || fw.Len() == 0 {
		return nil, ErrEmptyFirmware
	}
	if cfg.UnitSize <= 0 {
		return nil, fmt.Errorf("unit size must be positive, got %d", cfg.UnitSize)
	}
	if cfg.TotalSize < 0 || cfg.TotalSize%cfg.UnitSize != 0 {
		return nil, fmt.Errorf("total size %d is not a multiple of unit size %d", cfg.TotalSize, cfg.UnitSize)
	}

	limit := cfg.MaxImageSize
	if limit == 0 {
		limit = cfg.TotalSize
	}
	if limit > 0 && fw.Len() > limit {
		return nil, &FirmwareTooLargeError{Size: fw.Len(), Limit: limit}
	}

	return &Framer{fw: fw, cfg: cfg}, nil
}

// UnitSize returns the configured unit length
func (f *Framer) UnitSize() int {
	return f.cfg.UnitSize
}

// TotalSize returns the number of bytes the units carry, padding included
func (f *Framer) TotalSize() int {
	if f.cfg.TotalSize > 0 {
		return f.cfg.TotalSize
	}
	u := f.cfg.UnitSize
	return (f.fw.Len() + u - 1) / u * u
}

// UnitCount returns the number of units Units yields
func (f *Framer) UnitCount() int {
	return f.TotalSize() / f.cfg.UnitSize
}

// Units returns the unit sequence. The sequence is lazy and may be ranged
// over any number of times; each pass allocates fresh unit buffers.
func (f *Framer) Units() iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		total := f.TotalSize()
		size := f.cfg.UnitSize

		for idx, off := 0, 0; off < total; idx, off = idx+1, off+size {
			data := make([]byte, size)
			n := 0
			if off < len(f.fw.data) {
				n = copy(data, f.fw.data[off:])
			}
			f.pad(data[n:])

			if !yield(Unit{Index: idx, Offset: off, Data: data, Padding: size - n}) {
				return
			}
		}
	}
}

// pad fills p according to the padding policy
func (f *Framer) pad(p []byte) {
	switch f.cfg.Padding {
	case PaddingRandom:
		for i := range p {
			if f.cfg.Rand != nil {
				p[i] = byte(f.cfg.Rand.Uint32N(256))
			} else {
				p[i] = byte(rand.Uint32N(256))
			}
		}
	default:
		clear(p)
	}
}
