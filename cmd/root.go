// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/m-rk/neewer-control/pkg/panel"
	"github.com/m-rk/neewer-control/pkg/pl81"
)

var (
	// Connection flags
	portName   string
	configPath string

	// Logging flags
	logLevel string
	logJSON  bool

	cfg = DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "neewer-control",
	Short: "Neewer PL81-Pro panel controller",
	Long: `neewer-control - control and monitor a Neewer PL81-Pro LED panel over USB serial.

The panel presents a CH340 USB-serial adapter fixed at 115200 8-N-1. Commands
and status reports share one 8-byte frame format: the panel echoes every
accepted command and reports physical knob changes on its own.

Without --port the first device whose name contains "usbserial" is used
(see 'neewer-control ports').

An optional YAML config file supplies defaults:

  port: /dev/cu.usbserial-110
  default_kelvin: 4950
  log:
    level: info
  serve:
    listen: ":8517"
    token: ${NEEWER_TOKEN}`,
	Version: "0.3.1",
}

func init() {
	// Assigned here rather than in the rootCmd literal: the closure calls
	// setupLogging, which reads rootCmd's flags, and referencing it from the
	// literal would form a package-initialization cycle.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			loaded, err := LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config %s: %w", configPath, err)
			}
			cfg = loaded
		}
		setupLogging()
		return nil
	}
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (default: auto-detect)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Force JSON log output")
}

// setupLogging configures the global zerolog logger. Output is
// human-readable on a terminal and JSON otherwise; --log-json forces JSON.
func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339

	level := logLevel
	if !rootCmd.PersistentFlags().Changed("log-level") && cfg.Log.Level != "" {
		level = cfg.Log.Level
	}
	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if logJSON || cfg.Log.JSON || !term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05.000",
		})
	}
}

// effectivePort resolves the serial port to use: the --port flag first,
// then the config file, then auto-detection.
func effectivePort() (string, error) {
	if portName != "" {
		return portName, nil
	}
	if cfg.Port != "" {
		return cfg.Port, nil
	}
	name, err := panel.FindPort()
	if err != nil {
		return "", err
	}
	log.Debug().Str("port", name).Msg("auto-detected serial port")
	return name, nil
}

// effectiveKelvin returns the color temperature used when a command does
// not specify one.
func effectiveKelvin() uint32 {
	if cfg.DefaultKelvin != 0 {
		return cfg.DefaultKelvin
	}
	return pl81.DefaultKelvin
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
