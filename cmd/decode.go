// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/m-rk/neewer-control/pkg/capture"
	"github.com/m-rk/neewer-control/pkg/pl81"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <capture-file>",
	Short: "Replay a recorded capture through the decoder",
	Long: `Decode a CBOR capture file recorded with 'monitor --record'.

Frames are printed with the timestamps at which the raw bytes were read,
so a capture replays the way the session looked live. Decode errors before
the first valid frame are counted but not printed, matching the live
monitor. A final summary shows the capture header and statistics.

Examples:
  neewer-control decode session.cbor

Exit codes:
  0 - Capture contained at least one valid frame
  1 - No valid frames in the capture
  2 - Unreadable or corrupt capture file`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Capture file error: %v\n", err)
		os.Exit(2)
	}
	defer f.Close()

	r, err := capture.NewReader(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Capture file error: %v\n", err)
		os.Exit(2)
	}

	hdr := r.Header()
	fmt.Printf("Capture: %s @ %d baud, recorded %s\n\n",
		hdr.Port, hdr.BaudRate, hdr.StartedAt.Format("2006-01-02 15:04:05"))

	decoder := pl81.NewDecoder()
	stats := pl81.NewStatistics()

	synchronized := false
	invalidBytesBeforeSync := 0
	records := 0
	totalBytes := 0

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Capture file error: %v\n", err)
			os.Exit(2)
		}

		records++
		totalBytes += len(rec.Data)

		for _, b := range rec.Data {
			status, decodeErr := decoder.DecodeByte(b)

			if decodeErr != nil {
				if synchronized {
					stats.Update(nil, decodeErr, nil)
					fmt.Printf("[%s] INVALID %v\n", rec.At.Format("15:04:05.000"), decodeErr)
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
				}
			}

			// Present the frame at its capture time, not the replay time.
			status.Timestamp = rec.At

			validationErrors := pl81.ValidateStatus(status)
			stats.Update(status, nil, validationErrors)

			if len(validationErrors) > 0 {
				printAnomalies(status, validationErrors)
			} else {
				fmt.Print(pl81.FormatStatus(status))
			}
		}
	}

	stats.RecordDiscarded(decoder.Discarded())

	fmt.Printf("\n%d record(s), %d byte(s)\n", records, totalBytes)
	fmt.Print(stats.String())

	if stats.ValidFrames == 0 {
		fmt.Println("No valid frames in capture")
		os.Exit(1)
	}

	return nil
}
