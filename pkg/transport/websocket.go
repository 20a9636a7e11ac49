// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketOptions configures a bridge connection
type WebSocketOptions struct {
	Username      string
	Password      string
	SkipSSLVerify bool
	ReadTimeout   time.Duration
}

// WebSocketTransport is a Transport over a serial-to-WebSocket bridge.
// Outgoing writes are sent as binary messages; incoming binary messages are
// buffered and split into lines.
type WebSocketTransport struct {
	conn        *websocket.Conn
	url         string
	readTimeout time.Duration
	pending     []byte
	closed      bool
}

// OpenWebSocket dials a bridge with optional HTTP Basic auth.
func OpenWebSocket(wsURL string, opts WebSocketOptions) (*WebSocketTransport, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, &OpenError{Target: wsURL, Err: fmt.Errorf("invalid URL: %w", err)}
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, &OpenError{Target: wsURL, Err: fmt.Errorf("unsupported URL scheme %q (use ws:// or wss://)", u.Scheme)}
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: opts.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if opts.Username != "" && opts.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("HTTP %d: %w", resp.StatusCode, err)
		}
		return nil, &OpenError{Target: wsURL, Err: err}
	}

	return NewWebSocketTransport(conn, wsURL, opts.ReadTimeout), nil
}

// NewWebSocketTransport wraps an established connection. A zero readTimeout
// uses DefaultReadTimeout.
func NewWebSocketTransport(conn *websocket.Conn, name string, readTimeout time.Duration) *WebSocketTransport {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &WebSocketTransport{
		conn:        conn,
		url:         name,
		readTimeout: readTimeout,
	}
}

// Name returns the bridge URL
func (w *WebSocketTransport) Name() string {
	return w.url
}

func (w *WebSocketTransport) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, &IOError{Op: "write", Err: err}
	}
	return len(p), nil
}

// Flush is a no-op: each Write is already a complete message.
func (w *WebSocketTransport) Flush() error {
	if w.closed {
		return ErrClosed
	}
	return nil
}

// ReadLine returns the next buffered line, reading messages as needed.
// Bytes after the delimiter stay buffered for the next call.
func (w *WebSocketTransport) ReadLine() ([]byte, error) {
	if w.closed {
		return nil, ErrClosed
	}

	if err := w.conn.SetReadDeadline(time.Now().Add(w.readTimeout)); err != nil {
		return nil, &IOError{Op: "read", Err: err}
	}

	for {
		if i := bytes.IndexByte(w.pending, '\n'); i >= 0 {
			line := append([]byte(nil), w.pending[:i+1]...)
			w.pending = w.pending[i+1:]
			return line, nil
		}
		if len(w.pending) >= maxLineLength {
			return nil, &IOError{Op: "read", Err: ErrLineTooLong}
		}

		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			// A failed read leaves the gorilla connection unusable
			w.closed = true
			w.conn.Close()

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, &IOError{Op: "read", Err: ErrTimeout}
			}
			return nil, &IOError{Op: "read", Err: err}
		}

		// Only binary messages carry UART data
		if messageType != websocket.BinaryMessage {
			continue
		}
		w.pending = append(w.pending, data...)
	}
}

func (w *WebSocketTransport) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return w.conn.Close()
}
