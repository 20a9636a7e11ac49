// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scum

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 200
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 200
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

func TestFuzzDecoder_RandomBytes(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		d := NewDecoder(FramedUnitSize)
		data := make([]byte, rng.Intn(2048))
		rng.Read(data)

		frames := 0
		for _, b := range data {
			cmd, err := d.DecodeByte(b)
			if cmd != nil || err != nil {
				frames++
			}
			if cmd != nil && len(cmd.Payload) != FramedUnitSize {
				t.Fatalf("round %d: decoded payload of %d bytes", i, len(cmd.Payload))
			}
		}

		// Every frame boundary yields exactly one result
		if want := len(data) / (FramedUnitSize + 1); frames != want {
			t.Fatalf("round %d: %d frames from %d bytes, want %d", i, frames, len(data), want)
		}
		if d.Pending() != len(data)%(FramedUnitSize+1) {
			t.Fatalf("round %d: Pending() = %d", i, d.Pending())
		}
	}
}

// ============================================================
// Framing Fuzz Tests
// ============================================================

func TestFuzzFramedStream_RoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		data := make([]byte, 1+rng.Intn(MemorySize))
		rng.Read(data)

		fw, err := NewFirmware("", data)
		if err != nil {
			t.Fatalf("round %d: NewFirmware: %v", i, err)
		}
		f, err := NewFramer(fw, ProtocolFramed.FramerConfig(PaddingZero))
		if err != nil {
			t.Fatalf("round %d: NewFramer: %v", i, err)
		}

		var stream []byte
		for u := range f.Units() {
			stream = append(stream, MustEncodeCommand(NewChunkCommand(u), FramedUnitSize)...)
		}

		// Reassemble the image the way the programmer would
		d := NewDecoder(FramedUnitSize)
		var memory []byte
		for _, b := range stream {
			cmd, err := d.DecodeByte(b)
			if err != nil {
				t.Fatalf("round %d: decode: %v", i, err)
			}
			if cmd != nil {
				memory = append(memory, cmd.Payload...)
			}
		}

		if !bytes.Equal(memory[:len(data)], data) {
			t.Fatalf("round %d: memory does not start with image", i)
		}
		for _, b := range memory[len(data):] {
			if b != 0 {
				t.Fatalf("round %d: non-zero padding", i)
			}
		}
	}
}
