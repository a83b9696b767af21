// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/m-rk/neewer-control/pkg/panel"
	"github.com/m-rk/neewer-control/pkg/pl81"
)

var (
	calibrateMax        int
	calibrateBrightness uint8
	calibrateOut        string
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Interactive temperature sweep",
	Long: `Step through raw temperature byte values and record what you see.

The documented range is 0x00-0x12 (2900K-7000K in 19 steps), but the panel
accepts higher bytes; --max lets you probe past the documented range to see
where the output stops changing.

At each step the light is set and you are prompted for a description:

  <enter>   next value (recording nothing)
  <text>    record the description and move on
  r         repeat the same value
  b         back one value
  s         skip without recording
  <number>  jump to that value
  q         stop the sweep

Collected notes are written as YAML to --out.

Examples:
  neewer-control calibrate
  neewer-control calibrate --max 63 --brightness 50 --out sweep.yaml

Exit codes:
  0 - Sweep finished or quit
  1 - Invalid arguments
  2 - Connection or output file error`,
	RunE: runCalibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.Flags().IntVar(&calibrateMax, "max", int(pl81.TempSteps), "Highest temp byte to test (0-255)")
	calibrateCmd.Flags().Uint8Var(&calibrateBrightness, "brightness", pl81.MaxBrightness, "Brightness during the sweep")
	calibrateCmd.Flags().StringVar(&calibrateOut, "out", "temp_calibration.yaml", "Output YAML file")
}

type calibrationEntry struct {
	Step        int    `yaml:"step"`
	Hex         string `yaml:"hex"`
	Kelvin      uint32 `yaml:"kelvin"`
	Description string `yaml:"description"`
}

type calibrationFile struct {
	Port       string             `yaml:"port"`
	Brightness uint8              `yaml:"brightness"`
	RecordedAt time.Time          `yaml:"recorded_at"`
	Steps      []calibrationEntry `yaml:"steps"`
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	if calibrateMax < 0 || calibrateMax > 255 {
		fmt.Fprintf(os.Stderr, "Invalid --max %d: temp byte is 0-255\n", calibrateMax)
		os.Exit(1)
	}

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

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("  Neewer PL81-Pro - Temperature Calibration")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()
	fmt.Printf("Stepping temp bytes 0x00-0x%02X at %d%% brightness on %s.\n", calibrateMax, calibrateBrightness, name)
	fmt.Println("Describe what you see at each step, or just press Enter to move on.")
	fmt.Println("Commands: q=quit  r=repeat  b=back  s=skip  <number>=jump")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("Press Enter when you're ready...")
	if !scanner.Scan() {
		return nil
	}
	fmt.Println()

	results := make(map[int]string)
	total := calibrateMax + 1

	i := 0
sweep:
	for i <= calibrateMax {
		if err := setRawTemp(port, calibrateBrightness, byte(i)); err != nil {
			fmt.Fprintf(os.Stderr, "Write error: %v\n", err)
			os.Exit(2)
		}

		fmt.Printf("  [%d/%d] temp=0x%02x (%d) -> What do you see? ", i+1, total, i, i)
		if !scanner.Scan() {
			break
		}
		answer := strings.TrimSpace(scanner.Text())

		switch {
		case answer == "":
			i++
		case strings.EqualFold(answer, "q"):
			break sweep
		case strings.EqualFold(answer, "r"):
			// repeat same value
		case strings.EqualFold(answer, "b"):
			if i > 0 {
				i--
			}
		case strings.EqualFold(answer, "s") || strings.EqualFold(answer, "skip"):
			i++
		default:
			if jump, err := strconv.Atoi(answer); err == nil {
				if jump >= 0 && jump <= calibrateMax {
					i = jump
				} else {
					fmt.Printf("    (value must be 0-%d)\n", calibrateMax)
				}
				continue
			}
			results[i] = answer
			i++
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("  Results")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()

	if len(results) == 0 {
		fmt.Println("  No data recorded.")
		return nil
	}

	steps := make([]int, 0, len(results))
	for t := range results {
		steps = append(steps, t)
	}
	sort.Ints(steps)

	out := calibrationFile{
		Port:       name,
		Brightness: calibrateBrightness,
		RecordedAt: time.Now(),
	}
	for _, t := range steps {
		fmt.Printf("  0x%02x (%2d): %s\n", t, t, results[t])
		out.Steps = append(out.Steps, calibrationEntry{
			Step:        t,
			Hex:         fmt.Sprintf("0x%02x", t),
			Kelvin:      pl81.ByteToKelvin(uint8(t)),
			Description: results[t],
		})
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		os.Exit(2)
	}
	if err := os.WriteFile(calibrateOut, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("\n  Saved to %s\n", calibrateOut)
	return nil
}

// setRawTemp sends one CCT command with an unquantized temp byte and
// swallows the echo so it does not garble the next prompt.
func setRawTemp(port panel.Port, brightness uint8, tempByte byte) error {
	if brightness > pl81.MaxBrightness {
		brightness = pl81.MaxBrightness
	}

	if err := port.ResetInputBuffer(); err != nil {
		return err
	}

	packet := pl81.BuildPacket([]byte{pl81.StartByte, pl81.TagCCT, 0x03, 0x01, brightness, tempByte})
	if _, err := port.Write(packet); err != nil {
		return err
	}
	if err := port.Drain(); err != nil {
		return err
	}

	// Give the panel time to apply and echo, then discard the echo.
	time.Sleep(300 * time.Millisecond)
	buf := make([]byte, 64)
	for {
		n, err := port.Read(buf)
		if err != nil || n == 0 {
			return nil
		}
	}
}
