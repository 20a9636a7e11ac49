// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loader

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/scumloader/pkg/emulator"
	"github.com/Thermoquad/scumloader/pkg/scum"
	"github.com/Thermoquad/scumloader/pkg/transport"
)

func TestSession_OverWebSocketBridge(t *testing.T) {
	dev := emulator.NewDevice(scum.ProtocolFramed)
	srv := httptest.NewServer(dev.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, err := transport.OpenWebSocket(url, transport.WebSocketOptions{ReadTimeout: 2 * time.Second})
	require.NoError(t, err)

	res, err := NewSession(scum.ProtocolFramed, ws, newFirmware(t, 600)).Run()
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, testImage(600), dev.Memory()[:600])
	assert.True(t, dev.Calibrated())

	// The session closed the connection
	_, err = ws.Write([]byte{0})
	assert.ErrorIs(t, err, transport.ErrClosed)
}
