// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loader

import (
	"fmt"
	"time"
)

// Step names used in Progress events and SessionError
const (
	StepPrepare   = "prepare"
	StepStart     = "start"
	StepTransfer  = "transfer"
	StepBoot      = "boot"
	StepCalibrate = "calibrate"
)

// ChunkStep names the framed CHUNK step for unit index
func ChunkStep(index int) string {
	return fmt.Sprintf("chunk %d", index)
}

// Progress reports transfer progress.
// Transferred counts unit bytes (padding included, opcode bytes excluded)
// and never decreases within a session.
type Progress struct {
	// Step is the step that produced the event
	Step string

	// Transferred is the number of bytes delivered so far
	Transferred int

	// Total is the number of bytes the transfer will deliver
	Total int

	// Elapsed is the time since Run started
	Elapsed time.Duration
}

// Percent returns progress as a fraction in [0, 1]
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Transferred) / float64(p.Total)
}

// ProgressFunc receives progress events synchronously from Run.
// It must not block for long; the transfer waits for it.
type ProgressFunc func(Progress)
