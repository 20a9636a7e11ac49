// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loader

import (
	"errors"
	"fmt"
)

// ErrSessionUsed is returned when Run is called a second time
var ErrSessionUsed = errors.New("session already run")

// RejectedError indicates the programmer answered with something other than
// the success token.
type RejectedError struct {
	// Expected is the success token for the protocol
	Expected string

	// Received is the trimmed response line
	Received string
}

func (e *RejectedError) Error() string {
	if e.Received == "" {
		return fmt.Sprintf("programmer rejected request: expected %q, got empty line", e.Expected)
	}
	return fmt.Sprintf("programmer rejected request: expected %q, got %q", e.Expected, e.Received)
}

// SessionError wraps the failure that aborted a session with the step
// that was in progress.
type SessionError struct {
	Step string
	Err  error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}
