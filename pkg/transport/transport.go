// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport carries loader traffic to the programmer.
//
// A Transport is a byte-oriented, line-delimited duplex channel. The serial
// implementation talks to the programmer directly; the WebSocket
// implementation talks to a bridge that relays binary messages to a UART.
package transport

import "github.com/Thermoquad/scumloader/pkg/scum"

// DefaultReadTimeout bounds every ReadLine call
const DefaultReadTimeout = scum.ReadTimeout

// maxLineLength caps a response line. Programmer responses are a few bytes;
// anything longer means the link is out of sync.
const maxLineLength = 256

// Transport is an open duplex byte channel to the programmer.
// Implementations are not safe for concurrent use; a session owns its
// transport exclusively.
type Transport interface {
	// Write sends p in full or returns an error.
	Write(p []byte) (int, error)

	// Flush blocks until written bytes have left the host.
	Flush() error

	// ReadLine returns bytes up to and including the next '\n'.
	// It never consumes bytes past the delimiter and fails with
	// ErrTimeout when no full line arrives within the read timeout.
	ReadLine() ([]byte, error)

	// Close releases the channel. Calling it more than once is harmless.
	Close() error
}
