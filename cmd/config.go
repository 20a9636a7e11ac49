// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/Thermoquad/scumloader/pkg/scum"
	"github.com/Thermoquad/scumloader/pkg/transport"
)

// configFileName is searched for under the XDG config directories
const configFileName = "scumloader/config.toml"

// fileConfig is the on-disk configuration. Every field is optional.
type fileConfig struct {
	Port        string `toml:"port"`
	Baud        int    `toml:"baud" validate:"omitempty,min=1200,max=4000000"`
	Protocol    string `toml:"protocol" validate:"omitempty,oneof=legacy framed"`
	Padding     string `toml:"padding" validate:"omitempty,oneof=zero random"`
	BootMode    string `toml:"boot_mode" validate:"omitempty,oneof=3wb three-wire-bus optical"`
	Calibrate   *bool  `toml:"calibrate"`
	ReadTimeout string `toml:"read_timeout"`
	URL         string `toml:"url" validate:"omitempty,url"`
	Username    string `toml:"username"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// loadConfig reads the config file at path, or the first one found in the
// XDG config directories when path is empty. A missing default file is not
// an error. Returns the path actually read.
func loadConfig(fs afero.Fs, path string) (*fileConfig, string, error) {
	if path == "" {
		found, err := xdg.SearchConfigFile(configFileName)
		if err != nil {
			return &fileConfig{}, "", nil
		}
		path = found
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, "", fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return nil, "", fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, path, nil
}

// parseConfig decodes and validates TOML config data
func parseConfig(data []byte) (*fileConfig, error) {
	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := validate.Struct(&cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("invalid value %v for %s (%s)", fe.Value(), fe.Field(), fe.Tag())
		}
		return nil, err
	}

	if cfg.ReadTimeout != "" {
		d, err := time.ParseDuration(cfg.ReadTimeout)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid read_timeout %q", cfg.ReadTimeout)
		}
	}
	return &cfg, nil
}

// programSettings are the effective settings for one program run
type programSettings struct {
	Port        string
	Baud        int
	URL         string
	Username    string
	Protocol    scum.Protocol
	Padding     scum.Padding
	BootMode    scum.BootMode
	Calibrate   bool
	ReadTimeout time.Duration
}

// programFlags are the raw flag values of the program command
type programFlags struct {
	Port        string
	Baud        int
	URL         string
	Username    string
	Protocol    string
	Padding     string
	BootMode    string
	NoCalibrate bool
	ReadTimeout time.Duration
}

// resolveSettings layers defaults, the config file and flags, in that
// order. changed reports whether a flag was set on the command line.
func resolveSettings(cfg *fileConfig, flags programFlags, changed func(name string) bool) (*programSettings, error) {
	pick := func(flag, fileValue, flagValue string) string {
		if changed(flag) || fileValue == "" {
			return flagValue
		}
		return fileValue
	}

	protocol, err := scum.ParseProtocol(pick("protocol", cfg.Protocol, flags.Protocol))
	if err != nil {
		return nil, err
	}
	padding, err := scum.ParsePadding(pick("padding", cfg.Padding, flags.Padding))
	if err != nil {
		return nil, err
	}
	bootMode, err := scum.ParseBootMode(pick("boot-mode", cfg.BootMode, flags.BootMode))
	if err != nil {
		return nil, err
	}

	s := &programSettings{
		Port:        pick("port", cfg.Port, flags.Port),
		URL:         pick("url", cfg.URL, flags.URL),
		Username:    pick("username", cfg.Username, flags.Username),
		Protocol:    protocol,
		Padding:     padding,
		BootMode:    bootMode,
		Calibrate:   true,
		ReadTimeout: transport.DefaultReadTimeout,
	}

	switch {
	case changed("baud"):
		s.Baud = flags.Baud
	case cfg.Baud > 0:
		s.Baud = cfg.Baud
	default:
		s.Baud = protocol.DefaultBaudRate()
	}
	if s.Baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", s.Baud)
	}

	switch {
	case changed("no-calibrate"):
		s.Calibrate = !flags.NoCalibrate
	case cfg.Calibrate != nil:
		s.Calibrate = *cfg.Calibrate
	}

	switch {
	case changed("read-timeout"):
		s.ReadTimeout = flags.ReadTimeout
	case cfg.ReadTimeout != "":
		// Validated in parseConfig
		s.ReadTimeout, _ = time.ParseDuration(cfg.ReadTimeout)
	}
	if s.ReadTimeout <= 0 {
		return nil, fmt.Errorf("invalid read timeout %s", s.ReadTimeout)
	}

	return s, nil
}
