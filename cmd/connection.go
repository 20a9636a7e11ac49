// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/Thermoquad/scumloader/pkg/transport"
)

// passwordEnv holds the bridge password when set
const passwordEnv = "SCUMLOADER_PASSWORD"

// listPorts is swapped out in tests
var listPorts transport.PortLister = transport.ListPorts

// readPassword returns the bridge password from the environment, or prompts
// on w and reads one line from in. A terminal is read without echo.
func readPassword(in io.Reader, w io.Writer) (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(w, "Password: ")
	defer fmt.Fprintln(w)

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// resolvePort returns the requested port, or the auto-detected one
func resolvePort(requested string) string {
	if requested != "" {
		return requested
	}
	port := transport.DefaultPort(runtime.GOOS, listPorts)
	log.Debug().Str("port", port).Msg("auto-detected programmer port")
	return port
}

// OpenConnection opens either a serial or WebSocket transport. The returned
// string describes the connection for display.
func OpenConnection(s *programSettings) (transport.Transport, string, error) {
	if s.URL != "" {
		password := ""
		if s.Username != "" {
			var err error
			password, err = readPassword(os.Stdin, os.Stderr)
			if err != nil {
				return nil, "", err
			}
		}

		ws, err := transport.OpenWebSocket(s.URL, transport.WebSocketOptions{
			Username:      s.Username,
			Password:      password,
			SkipSSLVerify: wsNoSSLVerify,
			ReadTimeout:   s.ReadTimeout,
		})
		if err != nil {
			return nil, "", err
		}
		return ws, fmt.Sprintf("WebSocket: %s", s.URL), nil
	}

	port := resolvePort(s.Port)
	st, err := transport.OpenSerial(port, s.Baud, transport.WithReadTimeout(s.ReadTimeout))
	if err != nil {
		return nil, "", err
	}
	return st, fmt.Sprintf("Serial: %s @ %d baud", port, s.Baud), nil
}
