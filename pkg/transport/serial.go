// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.bug.st/serial"
)

// SerialPort is the subset of serial.Port the loader needs (for mocking in tests).
type SerialPort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Drain() error
	SetReadTimeout(t time.Duration) error
	Close() error
}

// SerialPortFactory creates a serial port connection.
type SerialPortFactory func(path string, mode *serial.Mode) (SerialPort, error)

// DefaultSerialPortFactory opens real serial ports.
func DefaultSerialPortFactory(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// SerialOption configures a SerialTransport
type SerialOption func(*serialConfig)

type serialConfig struct {
	readTimeout time.Duration
	clock       clockwork.Clock
	factory     SerialPortFactory
}

// WithReadTimeout sets the ReadLine deadline
func WithReadTimeout(d time.Duration) SerialOption {
	return func(c *serialConfig) {
		c.readTimeout = d
	}
}

// WithClock sets the clock used for read deadlines
func WithClock(clock clockwork.Clock) SerialOption {
	return func(c *serialConfig) {
		c.clock = clock
	}
}

// WithPortFactory replaces the function used to open the port
func WithPortFactory(factory SerialPortFactory) SerialOption {
	return func(c *serialConfig) {
		c.factory = factory
	}
}

func newSerialConfig(opts []SerialOption) serialConfig {
	cfg := serialConfig{
		readTimeout: DefaultReadTimeout,
		clock:       clockwork.NewRealClock(),
		factory:     DefaultSerialPortFactory,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// SerialTransport is a Transport over a UART at 8N1.
type SerialTransport struct {
	port        SerialPort
	name        string
	readTimeout time.Duration
	clock       clockwork.Clock
	closed      bool
	buf         [1]byte

	// portTimeout is the read timeout last set on port
	portTimeout time.Duration
}

// timeoutSlack is how far the port timeout may run past the line deadline
// before ReadLine sets it again.
const timeoutSlack = 10 * time.Millisecond

// OpenSerial opens path at the given baud rate, 8 data bits, no parity,
// one stop bit.
func OpenSerial(path string, baudRate int, opts ...SerialOption) (*SerialTransport, error) {
	cfg := newSerialConfig(opts)

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := cfg.factory(path, mode)
	if err != nil {
		return nil, &OpenError{Target: path, Err: err}
	}

	return newSerialTransport(port, path, cfg), nil
}

// NewSerialTransport wraps an already open port.
func NewSerialTransport(port SerialPort, name string, opts ...SerialOption) *SerialTransport {
	return newSerialTransport(port, name, newSerialConfig(opts))
}

func newSerialTransport(port SerialPort, name string, cfg serialConfig) *SerialTransport {
	return &SerialTransport{
		port:        port,
		name:        name,
		readTimeout: cfg.readTimeout,
		clock:       cfg.clock,
	}
}

// Name returns the port path
func (s *SerialTransport) Name() string {
	return s.name
}

func (s *SerialTransport) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}

	written := 0
	for written < len(p) {
		n, err := s.port.Write(p[written:])
		written += n
		if err != nil {
			return written, &IOError{Op: "write", Err: err}
		}
		if n == 0 {
			return written, &IOError{Op: "write", Err: fmt.Errorf("port accepted 0 of %d bytes", len(p)-written)}
		}
	}
	return written, nil
}

// Flush waits for the OS to transmit everything written so far.
func (s *SerialTransport) Flush() error {
	if s.closed {
		return ErrClosed
	}
	if err := s.port.Drain(); err != nil {
		return &IOError{Op: "flush", Err: err}
	}
	return nil
}

// ReadLine reads one byte at a time so nothing past '\n' is consumed. The
// port timeout is only reset when it would overrun the deadline by more than
// timeoutSlack, so a burst of bytes costs one read each.
func (s *SerialTransport) ReadLine() ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}

	deadline := s.clock.Now().Add(s.readTimeout)
	line := make([]byte, 0, 8)

	for {
		remaining := deadline.Sub(s.clock.Now())
		if remaining <= 0 {
			return line, &IOError{Op: "read", Err: ErrTimeout}
		}
		if s.portTimeout < remaining || s.portTimeout-remaining >= timeoutSlack {
			if err := s.port.SetReadTimeout(remaining); err != nil {
				return line, &IOError{Op: "read", Err: err}
			}
			s.portTimeout = remaining
		}

		n, err := s.port.Read(s.buf[:])
		if err != nil {
			return line, &IOError{Op: "read", Err: err}
		}
		// go.bug.st/serial reports an expired read timeout as 0, nil
		if n == 0 {
			return line, &IOError{Op: "read", Err: ErrTimeout}
		}

		line = append(line, s.buf[0])
		if s.buf[0] == '\n' {
			return line, nil
		}
		if len(line) >= maxLineLength {
			return line, &IOError{Op: "read", Err: ErrLineTooLong}
		}
	}
}

func (s *SerialTransport) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}
