// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loader

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/scumloader/pkg/transport"
)

// scriptedTransport records writes and replays canned lines
type scriptedTransport struct {
	lines    []string
	writes   [][]byte
	ops      []string
	writeErr error
	closes   int
}

func (s *scriptedTransport) Write(p []byte) (int, error) {
	s.ops = append(s.ops, "write")
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.writes = append(s.writes, bytes.Clone(p))
	return len(p), nil
}

func (s *scriptedTransport) Flush() error {
	s.ops = append(s.ops, "flush")
	return nil
}

func (s *scriptedTransport) ReadLine() ([]byte, error) {
	s.ops = append(s.ops, "read")
	if len(s.lines) == 0 {
		return nil, &transport.IOError{Op: "read", Err: transport.ErrTimeout}
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return []byte(line), nil
}

func (s *scriptedTransport) Close() error {
	s.closes++
	return nil
}

func TestHandshakeClient_WriteSplits(t *testing.T) {
	t.Parallel()

	st := &scriptedTransport{}
	hs := NewHandshakeClient(st, 64)

	frame := make([]byte, 257)
	var observed []int
	require.NoError(t, hs.Write(frame, func(n int) { observed = append(observed, n) }))

	require.Len(t, st.writes, 5)
	for i := 0; i < 4; i++ {
		assert.Len(t, st.writes[i], 64)
	}
	assert.Len(t, st.writes[4], 1)
	assert.Equal(t, []int{64, 64, 64, 64, 1}, observed)

	// Every piece is flushed before the next write
	assert.Equal(t, []string{
		"write", "flush", "write", "flush", "write", "flush",
		"write", "flush", "write", "flush",
	}, st.ops)
}

func TestHandshakeClient_Expect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lines    []string
		token    string
		wantRecv string
		wantErr  func(t *testing.T, err error)
	}{
		{
			name:  "ack",
			lines: []string{"ACK\r\n"},
			token: "ACK",
			wantErr: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:  "error token",
			lines: []string{"ERR\r\n"},
			token: "ACK",
			wantErr: func(t *testing.T, err error) {
				var rej *RejectedError
				require.ErrorAs(t, err, &rej)
				assert.Equal(t, "ACK", rej.Expected)
				assert.Equal(t, "ERR", rej.Received)
			},
		},
		{
			name:  "empty line",
			lines: []string{"\r\n"},
			token: "OK",
			wantErr: func(t *testing.T, err error) {
				var rej *RejectedError
				require.ErrorAs(t, err, &rej)
				assert.Empty(t, rej.Received)
			},
		},
		{
			name:  "timeout is not a rejection",
			lines: nil,
			token: "OK",
			wantErr: func(t *testing.T, err error) {
				var rej *RejectedError
				assert.False(t, errors.As(err, &rej))
				assert.ErrorIs(t, err, transport.ErrTimeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := &scriptedTransport{lines: tt.lines}
			err := NewHandshakeClient(st, 32).Expect(tt.token)
			tt.wantErr(t, err)

			// Exactly one read, no resync
			assert.Equal(t, []string{"read"}, st.ops)
		})
	}
}

func TestHandshakeClient_SendStopsOnWriteError(t *testing.T) {
	t.Parallel()

	writeErr := &transport.IOError{Op: "write", Err: errors.New("unplugged")}
	st := &scriptedTransport{writeErr: writeErr, lines: []string{"OK\r\n"}}

	err := NewHandshakeClient(st, 32).Send([]byte("3wb\n"), "OK")
	assert.ErrorIs(t, err, writeErr)
	assert.Equal(t, []string{"write"}, st.ops)
}
