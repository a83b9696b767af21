// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/m-rk/neewer-control/pkg/capture"
	"github.com/m-rk/neewer-control/pkg/panel"
	"github.com/m-rk/neewer-control/pkg/pl81"
)

var (
	monitorErrorsOnly bool
	monitorHexDump    bool
	monitorStatsEvery time.Duration
	monitorRecordPath string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Raw frame monitor with error statistics",
	Long: `Decode and display every frame on the wire, valid or not.

Unlike 'watch', monitor opens the port directly and shows the protocol as
it is: decode failures (bad tag, checksum mismatch) are printed alongside
valid frames, and out-of-range values inside structurally valid frames are
flagged. Decode errors before the first valid frame are counted silently;
mid-frame attach makes them expected, so real errors are only reported once
synchronized.

Statistics (frame rate, error rate, anomaly counts) are printed at a fixed
interval and once more on exit.

With --record every raw read chunk is appended to a timestamped CBOR
capture file which 'decode' can replay offline. With --hex each chunk is
also dumped as offset/hex/ASCII before decoding, which helps when the
wire carries traffic that never resolves into frames.

Examples:
  neewer-control monitor
  neewer-control monitor --errors-only --stats-interval 30s
  neewer-control monitor --record session.cbor
  neewer-control monitor --hex

Exit codes:
  0 - Interrupted (Ctrl-C)
  2 - Connection or capture file error`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorErrorsOnly, "errors-only", false, "Show only decode errors and anomalies")
	monitorCmd.Flags().BoolVar(&monitorHexDump, "hex", false, "Dump raw chunks as offset/hex/ASCII")
	monitorCmd.Flags().DurationVar(&monitorStatsEvery, "stats-interval", 10*time.Second, "Statistics print interval")
	monitorCmd.Flags().StringVar(&monitorRecordPath, "record", "", "Append raw traffic to a CBOR capture file")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	name, err := effectivePort()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Port error: %v\n", err)
		os.Exit(2)
	}

	port, err := panel.OpenSerialPort(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer port.Close()

	var rec *capture.Writer
	if monitorRecordPath != "" {
		f, err := os.Create(monitorRecordPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Capture file error: %v\n", err)
			os.Exit(2)
		}
		defer f.Close()

		rec, err = capture.NewWriter(f, capture.Header{
			Port:      name,
			BaudRate:  panel.BaudRate,
			StartedAt: time.Now(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Capture file error: %v\n", err)
			os.Exit(2)
		}
		fmt.Printf("Recording to %s\n", monitorRecordPath)
	}

	fmt.Printf("Monitoring %s @ %d baud\n", name, panel.BaudRate)
	if monitorErrorsOnly {
		fmt.Printf("Mode: errors only\n")
	} else {
		fmt.Printf("Mode: all frames\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	decoder := pl81.NewDecoder()
	stats := pl81.NewStatistics()

	// Sync tracking: decode errors before the first valid frame are noise
	// from attaching mid-stream, not real faults.
	synchronized := false
	invalidBytesBeforeSync := 0

	chunks := make(chan []byte, 10)
	readErrs := make(chan error, 1)
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := port.Read(buf)
			if err != nil {
				readErrs <- err
				return
			}
			if n == 0 {
				// Read timeout with nothing buffered.
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case chunks <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	statsTicker := time.NewTicker(monitorStatsEvery)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nInterrupted")
			fmt.Print(stats.String())
			return nil

		case err := <-readErrs:
			fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
			fmt.Print(stats.String())
			os.Exit(2)

		case data := <-chunks:
			if rec != nil {
				if err := rec.Write(capture.Record{At: time.Now(), Data: data}); err != nil {
					log.Error().Err(err).Msg("capture write failed")
					rec = nil
				}
			}
			if monitorHexDump {
				fmt.Print(pl81.HexDump(data))
			}

			for _, b := range data {
				status, decodeErr := decoder.DecodeByte(b)

				if decodeErr != nil {
					if synchronized {
						stats.Update(nil, decodeErr, nil)
						fmt.Print(pl81.FormatDecodeError(decodeErr))
					} else {
						invalidBytesBeforeSync++
					}
					continue
				}
				if status == nil {
					continue
				}

				if !synchronized {
					synchronized = true
					if invalidBytesBeforeSync > 0 {
						fmt.Printf("[SYNC] Synchronized after skipping %d invalid bytes\n\n", invalidBytesBeforeSync)
					} else {
						fmt.Printf("[SYNC] Synchronized\n\n")
					}
				}

				validationErrors := pl81.ValidateStatus(status)
				stats.Update(status, nil, validationErrors)

				if len(validationErrors) > 0 {
					printAnomalies(status, validationErrors)
				} else if !monitorErrorsOnly {
					fmt.Print(pl81.FormatStatus(status))
				}
			}

			// Bytes the decoder skipped hunting for a start byte.
			stats.RecordDiscarded(decoder.Discarded())

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}

// printAnomalies prints a structurally valid frame whose values are
// outside physical limits.
func printAnomalies(status *pl81.Status, errors []pl81.ValidationError) {
	timestamp := status.Timestamp.Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;33mANOMALY:\033[0m %s\n", timestamp, status)

	for i, err := range errors {
		switch err.Type {
		case pl81.ANOMALY_BRIGHTNESS_RANGE:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if v, ok := err.Details["brightness"].(uint8); ok {
				fmt.Printf("    brightness=%d (max 100)\n", v)
			}

		case pl81.ANOMALY_TEMP_RANGE:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if v, ok := err.Details["temp_byte"].(uint8); ok {
				fmt.Printf("    temp_byte=0x%02X (max 0x12)\n", v)
			}

		default:
			fmt.Printf("  Issue %d: %s\n", i+1, err.Message)
		}
	}
	fmt.Println()
}
