// Command goba drives the GBA ARM7TDMI core as a headless step loop: the
// thinnest possible host harness to exercise internal/emulator, not a
// PPU/APU/debugger front end (those stay out of scope per the core's own
// spec).
package main

import (
	"fmt"
	"os"

	"GoBA/internal/emulator"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	biosPath  string
	skipBIOS  bool
	numSteps  int64
	dumpState bool
)

func main() {
	root := &cobra.Command{
		Use:   "goba <rom>",
		Short: "Run a GBA ROM against the GoBA ARM7TDMI core",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	root.Flags().StringVar(&biosPath, "bios", "", "path to a GBA BIOS image (optional)")
	root.Flags().BoolVar(&skipBIOS, "skip-bios", false, "start at the post-BIOS handoff state instead of the reset vector")
	root.Flags().Int64Var(&numSteps, "steps", 0, "number of CPU steps to run (0 = run without a step limit)")
	root.Flags().BoolVar(&dumpState, "dump", false, "print the final register state before exiting")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	romPath := args[0]

	romImage, err := os.ReadFile(romPath)
	if err != nil {
		return errors.Wrap(err, "reading ROM file")
	}

	var biosImage []byte
	if biosPath != "" {
		biosImage, err = os.ReadFile(biosPath)
		if err != nil {
			return errors.Wrap(err, "reading BIOS file")
		}
	} else if !skipBIOS {
		return errors.New("running from the reset vector requires --bios (or pass --skip-bios)")
	}

	e, err := emulator.New(romImage, biosImage, skipBIOS)
	if err != nil {
		return errors.Wrap(err, "constructing emulator")
	}

	var totalCycles int64
	var stepCount int64
	for numSteps == 0 || stepCount < numSteps {
		totalCycles += int64(e.Step())
		stepCount++
	}

	if dumpState {
		fmt.Println(e.CPU.Registers())
	}
	fmt.Fprintf(os.Stderr, "ran %d steps, %d cycles\n", stepCount, totalCycles)
	return nil
}
