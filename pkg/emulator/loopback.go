// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package emulator

import (
	"bytes"
	"sync"

	"github.com/Thermoquad/scumloader/pkg/transport"
)

// Loopback is an in-memory transport.Transport wired straight to a Device.
// Writes are fed synchronously; replies queue until ReadLine. A ReadLine with
// no complete line queued fails with transport.ErrTimeout immediately.
type Loopback struct {
	mu      sync.Mutex
	dev     *Device
	rx      []byte
	writes  [][]byte
	flushes int
	closes  int

	// WriteErr, when set, fails every Write
	WriteErr error
}

// NewLoopback connects a transport to dev
func NewLoopback(dev *Device) *Loopback {
	return &Loopback{dev: dev}
}

func (l *Loopback) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closes > 0 {
		return 0, transport.ErrClosed
	}
	if l.WriteErr != nil {
		return 0, &transport.IOError{Op: "write", Err: l.WriteErr}
	}

	l.writes = append(l.writes, bytes.Clone(p))
	l.rx = append(l.rx, l.dev.Feed(p)...)
	return len(p), nil
}

func (l *Loopback) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closes > 0 {
		return transport.ErrClosed
	}
	l.flushes++
	return nil
}

func (l *Loopback) ReadLine() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closes > 0 {
		return nil, transport.ErrClosed
	}

	i := bytes.IndexByte(l.rx, '\n')
	if i < 0 {
		partial := l.rx
		l.rx = nil
		return partial, &transport.IOError{Op: "read", Err: transport.ErrTimeout}
	}

	line := bytes.Clone(l.rx[:i+1])
	l.rx = l.rx[i+1:]
	return line, nil
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closes++
	return nil
}

// Writes returns every buffer passed to Write, in order
func (l *Loopback) Writes() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.writes...)
}

// Written returns the concatenation of all writes
func (l *Loopback) Written() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return bytes.Join(l.writes, nil)
}

// Flushes returns the number of Flush calls
func (l *Loopback) Flushes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushes
}

// Closes returns the number of Close calls
func (l *Loopback) Closes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closes
}
