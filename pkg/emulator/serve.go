// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package emulator

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Serve runs the device over a byte stream until ctx is done or r reaches
// EOF. r should return periodically (a serial port with a read timeout) so
// cancellation is noticed.
func (d *Device) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	buf := make([]byte, 512)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		n, err := r.Read(buf)
		if n > 0 {
			if out := d.Feed(buf[:n]); len(out) > 0 {
				if _, werr := w.Write(out); werr != nil {
					return werr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler exposes the device as a serial-over-WebSocket bridge: binary
// messages in are UART bytes to the device, replies go out as binary
// messages.
func (d *Device) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Msg("emulator: upgrade failed")
			return
		}
		defer conn.Close()

		log.Debug().Str("remote", r.RemoteAddr).Msg("emulator: bridge client connected")
		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.BinaryMessage {
				continue
			}
			if out := d.Feed(data); len(out) > 0 {
				if err := conn.WriteMessage(websocket.BinaryMessage, out); err != nil {
					return
				}
			}
		}
	})
}
