// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loader

import (
	"math/rand/v2"

	"github.com/jonboulle/clockwork"

	"github.com/Thermoquad/scumloader/pkg/scum"
)

// Config holds session settings
type Config struct {
	// Padding fills the tail of the legacy image. Framed always pads with zeros.
	Padding scum.Padding

	// BootMode is sent after a legacy transfer
	BootMode scum.BootMode

	// Calibrate sends CALIBRATE after a framed BOOT
	Calibrate bool

	// TotalSize overrides the legacy transfer length (must be a multiple of 32)
	TotalSize int

	// Progress receives transfer events
	Progress ProgressFunc

	// Clock measures elapsed time
	Clock clockwork.Clock

	// Rand is the source for random padding
	Rand *rand.Rand
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Padding:   scum.PaddingZero,
		BootMode:  scum.BootThreeWireBus,
		Calibrate: true,
		Clock:     clockwork.NewRealClock(),
	}
}

// Option configures a Session
type Option func(*Config)

// WithProgress sets a callback to track transfer progress.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Config) {
		c.Progress = fn
	}
}

// WithPadding sets the legacy padding policy.
func WithPadding(p scum.Padding) Option {
	return func(c *Config) {
		c.Padding = p
	}
}

// WithBootMode sets the legacy boot mode.
func WithBootMode(m scum.BootMode) Option {
	return func(c *Config) {
		c.BootMode = m
	}
}

// WithCalibrate enables or disables the framed CALIBRATE step.
func WithCalibrate(enabled bool) Option {
	return func(c *Config) {
		c.Calibrate = enabled
	}
}

// WithTotalSize overrides the legacy transfer length.
func WithTotalSize(n int) Option {
	return func(c *Config) {
		c.TotalSize = n
	}
}

// WithClock sets the clock used for elapsed time.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithRand sets the random source for PaddingRandom.
func WithRand(r *rand.Rand) Option {
	return func(c *Config) {
		c.Rand = r
	}
}
