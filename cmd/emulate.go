// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/Thermoquad/scumloader/pkg/emulator"
	"github.com/Thermoquad/scumloader/pkg/scum"
	"github.com/Thermoquad/scumloader/pkg/transport"
)

var (
	emulateProtocol string
	emulateListen   string
	emulateReject   []string
)

var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Emulate a SCuM programmer",
	Long: `Run a software SCuM programmer for testing the loader without hardware.

Serial mode answers on --port (for example one end of a socat pty pair).
WebSocket mode (--listen) serves a serial-over-WebSocket bridge that program
can reach with --url.

--reject makes the emulator answer ERR to the first occurrence of a step
(start, chunk, boot, calibrate).

Examples:
  socat -d -d pty,raw,echo=0 pty,raw,echo=0
  scumloader emulate --port /dev/pts/3
  scumloader program --port /dev/pts/4 blink.bin

  scumloader emulate --listen :8080 --reject boot
  scumloader program --url ws://localhost:8080/ blink.bin

Exit codes:
  0 - Stopped by interrupt
  2 - Could not open the port or listen address`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runEmulate(); err != nil {
			printFailure(cmd.ErrOrStderr(), "Emulator error", err)
			os.Exit(exitSetup)
		}
	},
}

func init() {
	rootCmd.AddCommand(emulateCmd)
	emulateCmd.Flags().StringVar(&emulateProtocol, "protocol", "framed", "Protocol to speak (framed, legacy)")
	emulateCmd.Flags().StringVar(&emulateListen, "listen", "", "Serve a WebSocket bridge on this address instead of a serial port")
	emulateCmd.Flags().StringSliceVar(&emulateReject, "reject", nil, "Steps to answer with ERR (start, chunk, boot, calibrate)")
}

// parseFaults turns step names into first-occurrence ERR faults
func parseFaults(steps []string) ([]emulator.Fault, error) {
	faults := make([]emulator.Fault, 0, len(steps))
	for _, step := range steps {
		var op scum.Opcode
		switch strings.ToLower(strings.TrimSpace(step)) {
		case "start":
			op = scum.OpStart
		case "chunk", "transfer":
			op = scum.OpChunk
		case "boot":
			op = scum.OpBoot
		case "calibrate":
			op = scum.OpCalibrate
		default:
			return nil, fmt.Errorf("unknown step %q", step)
		}
		faults = append(faults, emulator.Fault{Opcode: op, Reply: "ERR\r\n"})
	}
	return faults, nil
}

func runEmulate() error {
	protocol, err := scum.ParseProtocol(emulateProtocol)
	if err != nil {
		return err
	}
	faults, err := parseFaults(emulateReject)
	if err != nil {
		return err
	}
	dev := emulator.NewDevice(protocol, faults...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if emulateListen != "" {
		return serveBridge(ctx, dev, emulateListen)
	}
	return serveSerial(ctx, dev, resolvePort(portName), baudRate)
}

func serveSerial(ctx context.Context, dev *emulator.Device, port string, baud int) error {
	if baud == 0 {
		baud = dev.Protocol().DefaultBaudRate()
	}

	p, err := transport.DefaultSerialPortFactory(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return &transport.OpenError{Target: port, Err: err}
	}
	defer p.Close()

	// Wake up regularly to notice the interrupt
	if err := p.SetReadTimeout(100 * time.Millisecond); err != nil {
		return err
	}

	log.Info().Str("port", port).Int("baud", baud).Str("protocol", dev.Protocol().String()).Msg("emulating programmer")
	return dev.Serve(ctx, p, p)
}

func serveBridge(ctx context.Context, dev *emulator.Device, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           dev.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("listen", addr).Str("protocol", dev.Protocol().String()).Msg("emulating programmer bridge")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
