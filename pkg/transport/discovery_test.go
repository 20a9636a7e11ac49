// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.bug.st/serial/enumerator"
)

func TestFindProgrammerPort(t *testing.T) {
	t.Parallel()

	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001", Product: "FT232R USB UART"},
		{Name: "/dev/ttyACM3", IsUSB: true, VID: "1366", PID: "0105", Product: "J-Link"},
		{Name: "/dev/ttyACM4", IsUSB: true, VID: "1366", PID: "0105", Product: "J-Link"},
	}

	tests := []struct {
		name   string
		goos   string
		ports  []*enumerator.PortDetails
		want   string
		wantOK bool
	}{
		{name: "first J-Link on linux", goos: "linux", ports: ports, want: "/dev/ttyACM3", wantOK: true},
		{name: "first J-Link on darwin", goos: "darwin", ports: ports, want: "/dev/ttyACM3", wantOK: true},
		{name: "first port on windows", goos: "windows", ports: []*enumerator.PortDetails{{Name: "COM4"}, {Name: "COM7"}}, want: "COM4", wantOK: true},
		{name: "no J-Link", goos: "linux", ports: ports[:2], wantOK: false},
		{name: "no ports", goos: "windows", ports: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := FindProgrammerPort(tt.goos, tt.ports)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultPort(t *testing.T) {
	t.Parallel()

	failing := func() ([]*enumerator.PortDetails, error) {
		return nil, errors.New("no sysfs")
	}
	empty := func() ([]*enumerator.PortDetails, error) {
		return nil, nil
	}
	jlink := func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{{Name: "/dev/ttyACM1", Product: "J-Link"}}, nil
	}

	assert.Equal(t, "/dev/ttyACM0", DefaultPort("linux", failing))
	assert.Equal(t, "/dev/ttyACM0", DefaultPort("linux", empty))
	assert.Equal(t, "COM1", DefaultPort("windows", empty))
	assert.Equal(t, "/dev/ttyACM1", DefaultPort("linux", jlink))
}
