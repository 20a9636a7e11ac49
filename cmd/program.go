// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Thermoquad/scumloader/pkg/loader"
	"github.com/Thermoquad/scumloader/pkg/scum"
	"github.com/Thermoquad/scumloader/pkg/transport"
)

// Exit codes
const (
	exitOK      = 0
	exitAborted = 1
	exitSetup   = 2
)

var (
	programProtocol    string
	programPadding     string
	programBootMode    string
	programNoCalibrate bool
	programReadTimeout time.Duration
	programPlain       bool
)

var programCmd = &cobra.Command{
	Use:   "program [flags] FIRMWARE",
	Short: "Load a firmware image into SCuM and boot it",
	Long: `Load a binary RAM image into SCuM through the programmer and boot it.

Framed protocol (default):
  START, one CHUNK per 256 bytes of image (last chunk zero padded), BOOT and
  CALIBRATE. Each command is acknowledged with "ACK". Use --no-calibrate to
  skip the calibration pulses.

Legacy protocol (--protocol legacy):
  The image is padded to 64kB (--padding zero|random) and streamed raw, then
  the boot mode line is sent (--boot-mode 3wb|optical). Both steps are
  acknowledged with "OK".

Examples:
  # Load with the framed programmer firmware on the auto-detected port
  scumloader program blink.bin

  # Legacy programmer, optical boot
  scumloader program --protocol legacy -m optical -p /dev/ttyACM1 blink.bin

  # Through a serial-over-WebSocket bridge
  scumloader program --url ws://bench.local/uart blink.bin

Exit codes:
  0 - Image loaded and SCuM booted
  1 - Programmer rejected a step or stopped responding
  2 - Firmware, connection or configuration error`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if code := runProgram(cmd, args[0]); code != exitOK {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(programCmd)
	programCmd.Flags().StringVar(&programProtocol, "protocol", "framed", "Programmer protocol (framed, legacy)")
	programCmd.Flags().StringVarP(&programPadding, "padding", "P", "zero", "Image padding (zero, random; legacy only)")
	programCmd.Flags().StringVarP(&programBootMode, "boot-mode", "m", "3wb", "Boot mode (3wb, optical; legacy only)")
	programCmd.Flags().BoolVar(&programNoCalibrate, "no-calibrate", false, "Skip CALIBRATE after BOOT (framed only)")
	programCmd.Flags().DurationVar(&programReadTimeout, "read-timeout", transport.DefaultReadTimeout, "Time to wait for each programmer response")
	programCmd.Flags().BoolVar(&programPlain, "plain", false, "Print progress lines instead of the progress bar")
}

func runProgram(cmd *cobra.Command, path string) int {
	stdout := cmd.OutOrStdout()

	settings, err := resolveSettings(fileCfg, programFlags{
		Port:        portName,
		Baud:        baudRate,
		URL:         wsURL,
		Username:    wsUsername,
		Protocol:    programProtocol,
		Padding:     programPadding,
		BootMode:    programBootMode,
		NoCalibrate: programNoCalibrate,
		ReadTimeout: programReadTimeout,
	}, cmd.Flags().Changed)
	if err != nil {
		printFailure(cmd.ErrOrStderr(), "Configuration error", err)
		return exitSetup
	}

	fw, err := scum.LoadFirmware(appFs, path)
	if err != nil {
		printFailure(cmd.ErrOrStderr(), "Firmware error", err)
		return exitSetup
	}

	opts := []loader.Option{
		loader.WithPadding(settings.Padding),
		loader.WithBootMode(settings.BootMode),
		loader.WithCalibrate(settings.Calibrate),
	}

	// Opening a serial port can reset the programmer, so reject the image first
	if err := loader.Validate(settings.Protocol, fw, opts...); err != nil {
		printFailure(cmd.ErrOrStderr(), "Firmware error", err)
		return exitSetup
	}

	t, connInfo, err := OpenConnection(settings)
	if err != nil {
		printFailure(cmd.ErrOrStderr(), "Connection error", err)
		return exitSetup
	}

	printSummary(stdout, fw, settings, connInfo)

	newSession := func(progress loader.ProgressFunc) *loader.Session {
		return loader.NewSession(settings.Protocol, t, fw, append(opts, loader.WithProgress(progress))...)
	}

	var res *loader.Result
	if !programPlain && isTerminal(stdout) {
		res, err = runProgramTUI(fw.Name(), connInfo, newSession)
	} else {
		res, err = newSession(plainProgress(stdout)).Run()
	}

	if err != nil {
		printFailure(cmd.ErrOrStderr(), "Programming failed", err)
		return exitCodeFor(err)
	}

	printSuccess(stdout, res)
	return exitOK
}

// exitCodeFor maps a failure to the documented exit code
func exitCodeFor(err error) int {
	var (
		loadErr  *scum.FirmwareLoadError
		tooLarge *scum.FirmwareTooLargeError
		openErr  *transport.OpenError
		sessErr  *loader.SessionError
	)

	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &loadErr), errors.As(err, &tooLarge), errors.As(err, &openErr):
		return exitSetup
	case errors.As(err, &sessErr) && sessErr.Step == loader.StepPrepare:
		return exitSetup
	default:
		return exitAborted
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printSummary prints what is about to be loaded and where
func printSummary(w io.Writer, fw *scum.Firmware, s *programSettings, connInfo string) {
	fmt.Fprintf(w, "%s %s (%s)\n", labelStyle.Render("Firmware:"), fw.Name(), scum.FormatSize(fw.Len()))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Connection:"), connInfo)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Protocol:"), s.Protocol)

	if s.Protocol == scum.ProtocolLegacy {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Padding:"), s.Padding)
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Boot mode:"), s.BootMode)
	} else {
		fmt.Fprintf(w, "%s %t\n", labelStyle.Render("Calibrate:"), s.Calibrate)
	}
	fmt.Fprintln(w)
}

// plainProgress prints a line each time another tenth of the transfer completes
func plainProgress(w io.Writer) loader.ProgressFunc {
	lastDecile := -1
	return func(p loader.Progress) {
		decile := int(p.Percent() * 10)
		if decile == lastDecile {
			return
		}
		lastDecile = decile
		fmt.Fprintf(w, "  [%3d%%] %d/%d bytes\n", decile*10, p.Transferred, p.Total)
		log.Debug().Str("step", p.Step).Dur("elapsed", p.Elapsed).Msg("progress")
	}
}

func printSuccess(w io.Writer, res *loader.Result) {
	fmt.Fprintf(w, "%s Done in %s\n", successStyle.Render("✓"), formatElapsed(res.Elapsed))
}

func printFailure(w io.Writer, what string, err error) {
	fmt.Fprintf(w, "%s %s: %v\n", errorStyle.Render("✗"), what, err)
}
