// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scum

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"
)

func testImage(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i%251) + 1 // never zero, so padding is distinguishable
	}
	return data
}

func mustFirmware(t *testing.T, data []byte) *Firmware {
	t.Helper()
	fw, err := NewFirmware("test.bin", data)
	if err != nil {
		t.Fatalf("NewFirmware failed: %v", err)
	}
	return fw
}

func collectUnits(f *Framer) []Unit {
	var units []Unit
	for u := range f.Units() {
		units = append(units, u)
	}
	return units
}

func TestFramer_Framed(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		wantUnits   int
		wantPadding int
	}{
		{name: "10 byte image", size: 10, wantUnits: 1, wantPadding: 246},
		{name: "one full unit", size: 256, wantUnits: 1, wantPadding: 0},
		{name: "one byte over a unit", size: 257, wantUnits: 2, wantPadding: 255},
		{name: "600 byte image", size: 600, wantUnits: 3, wantPadding: 168},
		{name: "full memory", size: MemorySize, wantUnits: 256, wantPadding: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := testImage(tt.size)
			f, err := NewFramer(mustFirmware(t, data), ProtocolFramed.FramerConfig(PaddingZero))
			if err != nil {
				t.Fatalf("NewFramer failed: %v", err)
			}

			units := collectUnits(f)
			if len(units) != tt.wantUnits {
				t.Fatalf("got %d units, want %d", len(units), tt.wantUnits)
			}
			if f.UnitCount() != tt.wantUnits {
				t.Errorf("UnitCount() = %d, want %d", f.UnitCount(), tt.wantUnits)
			}
			if f.TotalSize() != tt.wantUnits*FramedUnitSize {
				t.Errorf("TotalSize() = %d, want %d", f.TotalSize(), tt.wantUnits*FramedUnitSize)
			}

			var joined []byte
			for i, u := range units {
				if len(u.Data) != FramedUnitSize {
					t.Errorf("unit %d len = %d, want %d", i, len(u.Data), FramedUnitSize)
				}
				if u.Index != i {
					t.Errorf("unit %d Index = %d", i, u.Index)
				}
				if i < len(units)-1 && u.Padding != 0 {
					t.Errorf("unit %d is not last but has %d padding bytes", i, u.Padding)
				}
				joined = append(joined, u.ImageBytes()...)
			}

			last := units[len(units)-1]
			if last.Padding != tt.wantPadding {
				t.Errorf("last unit padding = %d, want %d", last.Padding, tt.wantPadding)
			}
			for _, b := range last.Data[len(last.Data)-last.Padding:] {
				if b != 0 {
					t.Fatalf("zero padding contains 0x%02X", b)
				}
			}
			if !bytes.Equal(joined, data) {
				t.Error("concatenated image bytes differ from firmware")
			}
		})
	}
}

func TestFramer_Legacy(t *testing.T) {
	for _, size := range []int{1, 31, 32, 1000, MemorySize - 1, MemorySize} {
		data := testImage(size)
		f, err := NewFramer(mustFirmware(t, data), ProtocolLegacy.FramerConfig(PaddingZero))
		if err != nil {
			t.Fatalf("size %d: NewFramer failed: %v", size, err)
		}

		total := 0
		var joined []byte
		for u := range f.Units() {
			if len(u.Data) != LegacyUnitSize {
				t.Fatalf("size %d: unit %d len = %d", size, u.Index, len(u.Data))
			}
			total += len(u.Data)
			joined = append(joined, u.ImageBytes()...)
		}

		if total != MemorySize {
			t.Errorf("size %d: total transferred = %d, want %d", size, total, MemorySize)
		}
		if f.UnitCount() != MemorySize/LegacyUnitSize {
			t.Errorf("size %d: UnitCount() = %d", size, f.UnitCount())
		}
		if !bytes.Equal(joined, data) {
			t.Errorf("size %d: image bytes not reproduced", size)
		}
	}
}

func TestFramer_LegacyPaddingAfterImage(t *testing.T) {
	// 40 bytes: unit 0 full, unit 1 has 8 image bytes, units 2.. all padding
	f, err := NewFramer(mustFirmware(t, testImage(40)), ProtocolLegacy.FramerConfig(PaddingZero))
	if err != nil {
		t.Fatalf("NewFramer failed: %v", err)
	}

	units := collectUnits(f)
	if units[1].Padding != 24 {
		t.Errorf("unit 1 padding = %d, want 24", units[1].Padding)
	}
	if units[2].Padding != LegacyUnitSize {
		t.Errorf("unit 2 padding = %d, want %d", units[2].Padding, LegacyUnitSize)
	}
	if units[2].Offset != 64 {
		t.Errorf("unit 2 offset = %d, want 64", units[2].Offset)
	}
}

func TestFramer_RandomPadding(t *testing.T) {
	data := testImage(40)
	cfg := ProtocolLegacy.FramerConfig(PaddingRandom)
	cfg.Rand = rand.New(rand.NewPCG(1, 2))

	f, err := NewFramer(mustFirmware(t, data), cfg)
	if err != nil {
		t.Fatalf("NewFramer failed: %v", err)
	}

	var padded []byte
	for u := range f.Units() {
		if !bytes.Equal(u.ImageBytes(), data[min(u.Offset, len(data)):min(u.Offset+LegacyUnitSize, len(data))]) {
			t.Fatalf("unit %d: random padding overwrote image data", u.Index)
		}
		padded = append(padded, u.Data[len(u.Data)-u.Padding:]...)
	}

	if len(padded) != MemorySize-len(data) {
		t.Fatalf("padding length = %d, want %d", len(padded), MemorySize-len(data))
	}
	if bytes.Count(padded, []byte{0}) == len(padded) {
		t.Error("random padding is all zero")
	}
}

func TestFramer_Restartable(t *testing.T) {
	f, err := NewFramer(mustFirmware(t, testImage(600)), ProtocolFramed.FramerConfig(PaddingZero))
	if err != nil {
		t.Fatalf("NewFramer failed: %v", err)
	}

	first := collectUnits(f)
	second := collectUnits(f)
	if len(first) != len(second) {
		t.Fatalf("second pass yielded %d units, first %d", len(second), len(first))
	}
	for i := range first {
		if !bytes.Equal(first[i].Data, second[i].Data) {
			t.Errorf("unit %d differs between passes", i)
		}
	}

	// Early exit must not break a later pass
	for range f.Units() {
		break
	}
	if n := len(collectUnits(f)); n != 3 {
		t.Errorf("pass after early exit yielded %d units, want 3", n)
	}
}

func TestNewFramer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fw      *Firmware
		cfg     FramerConfig
		wantErr func(error) bool
	}{
		{
			name: "nil firmware",
			fw:   nil,
			cfg:  ProtocolFramed.FramerConfig(PaddingZero),
			wantErr: func(err error) bool {
				return errors.Is(err, ErrEmptyFirmware)
			},
		},
		{
			name: "legacy image larger than memory",
			fw:   &Firmware{data: testImage(MemorySize + 1)},
			cfg:  ProtocolLegacy.FramerConfig(PaddingZero),
			wantErr: func(err error) bool {
				var tooLarge *FirmwareTooLargeError
				return errors.As(err, &tooLarge) && tooLarge.Size == MemorySize+1 && tooLarge.Limit == MemorySize
			},
		},
		{
			name: "framed image larger than memory",
			fw:   &Firmware{data: testImage(MemorySize + 10)},
			cfg:  ProtocolFramed.FramerConfig(PaddingZero),
			wantErr: func(err error) bool {
				var tooLarge *FirmwareTooLargeError
				return errors.As(err, &tooLarge)
			},
		},
		{
			name: "zero unit size",
			fw:   &Firmware{data: testImage(10)},
			cfg:  FramerConfig{UnitSize: 0},
			wantErr: func(err error) bool {
				return err != nil
			},
		},
		{
			name: "total size not a multiple of unit size",
			fw:   &Firmware{data: testImage(10)},
			cfg:  FramerConfig{UnitSize: 32, TotalSize: 100},
			wantErr: func(err error) bool {
				return err != nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFramer(tt.fw, tt.cfg)
			if f != nil {
				t.Error("NewFramer returned a framer on error")
			}
			if !tt.wantErr(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
