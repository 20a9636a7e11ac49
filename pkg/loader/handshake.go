// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loader

import (
	"github.com/rs/zerolog/log"

	"github.com/Thermoquad/scumloader/pkg/scum"
	"github.com/Thermoquad/scumloader/pkg/transport"
)

// HandshakeClient implements the write-then-expect exchange both protocols
// use. The programmer UART buffers only a few bytes, so every write is split
// into chunkSize pieces and flushed before the next one.
type HandshakeClient struct {
	t         transport.Transport
	chunkSize int
}

// NewHandshakeClient creates a client that writes at most chunkSize bytes
// per flush.
func NewHandshakeClient(t transport.Transport, chunkSize int) *HandshakeClient {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	return &HandshakeClient{t: t, chunkSize: chunkSize}
}

// Write sends p in chunkSize pieces, flushing after each. onChunk, when set,
// observes the length of every piece once it has been flushed.
func (h *HandshakeClient) Write(p []byte, onChunk func(n int)) error {
	for off := 0; off < len(p); off += h.chunkSize {
		end := min(off+h.chunkSize, len(p))

		if _, err := h.t.Write(p[off:end]); err != nil {
			return err
		}
		if err := h.t.Flush(); err != nil {
			return err
		}
		if onChunk != nil {
			onChunk(end - off)
		}
	}
	return nil
}

// Expect reads exactly one line and checks it against token.
// Transport failures are returned unchanged; a mismatch is a *RejectedError.
func (h *HandshakeClient) Expect(token string) error {
	line, err := h.t.ReadLine()
	if err != nil {
		return err
	}

	resp := scum.ParseResponse(line)
	if resp.Classify(token) != scum.Acknowledged {
		log.Debug().Str("expected", token).Str("received", resp.Token()).Msg("response rejected")
		return &RejectedError{Expected: token, Received: resp.Token()}
	}
	return nil
}

// Send writes p and waits for token.
func (h *HandshakeClient) Send(p []byte, token string) error {
	if err := h.Write(p, nil); err != nil {
		return err
	}
	return h.Expect(token)
}
