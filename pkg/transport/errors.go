// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when no complete line arrives in time
	ErrTimeout = errors.New("timed out waiting for response")

	// ErrClosed is returned for operations on a closed transport
	ErrClosed = errors.New("transport closed")

	// ErrLineTooLong is returned when a response exceeds the line limit
	ErrLineTooLong = errors.New("response line too long")
)

// OpenError indicates the transport could not be opened.
type OpenError struct {
	Target string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Target, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// IOError indicates a read, write or flush failed on an open transport.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
