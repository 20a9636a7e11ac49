// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// General flags
	configPath string
	verbose    bool
	logJSON    bool

	// appFs is where firmware images and config files are read from
	appFs = afero.NewOsFs()

	// fileCfg holds the config file loaded before every command
	fileCfg = &fileConfig{}
)

var rootCmd = &cobra.Command{
	Use:   "scumloader",
	Short: "SCuM firmware loader",
	Long: `scumloader - Load RAM images into a Single Chip micro Mote.

Sends a binary image to the SCuM programmer board over serial and asks it to
boot the chip. Two programmer firmwares are supported:

  framed (default): START, CHUNK, BOOT, CALIBRATE commands, each acknowledged
                    with "ACK". 460800 baud.
  legacy:           raw 64kB image then a boot mode line, acknowledged with
                    "OK". 250000 baud.

Connection modes:
  Serial:    --port /dev/ttyACM0 [--baud 460800]
  WebSocket: --url ws://host/path [--username user]

When --port is omitted the first J-Link serial port is used.

For WebSocket authentication, the password is read from the SCUMLOADER_PASSWORD
environment variable, or prompted interactively if not set.

Settings may also be stored in $XDG_CONFIG_HOME/scumloader/config.toml;
flags override the file.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verbose, logJSON)

		cfg, path, err := loadConfig(appFs, configPath)
		if err != nil {
			return err
		}
		if path != "" {
			log.Debug().Str("path", path).Msg("loaded config file")
		}
		fileCfg = cfg
		return nil
	},
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (default: auto-detect)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 0, "Baud rate (default: protocol rate)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// General flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: search XDG config dirs)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
}

// setupLogging installs the global zerolog logger on stderr
func setupLogging(debug, jsonOutput bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if jsonOutput {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
