// Command agb is a headless diagnostic front-end for the GBA core: load a
// BIOS and ROM, step the core a fixed number of instructions or frames,
// and print register/header state. There is no video, audio or input
// surface here — the Non-goals this core carries exclude a GUI.
//
// Grounded on the teacher-adjacent z80opt CLI's cobra.Command tree shape.
package main

import (
	"fmt"
	"os"

	"github.com/jetsetilly/agb"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agb",
		Short: "Headless GBA core runner",
	}

	var biosPath, romPath string
	var steps int
	var frames int
	var dumpLog bool

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Load a BIOS and ROM and step the core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCore(biosPath, romPath, steps, frames, dumpLog)
		},
	}
	runCmd.Flags().StringVar(&biosPath, "bios", "", "path to a 16KiB GBA BIOS image (required)")
	runCmd.Flags().StringVar(&romPath, "rom", "", "path to a cartridge ROM image (required)")
	runCmd.Flags().IntVar(&steps, "steps", 0, "number of CPU instructions to execute")
	runCmd.Flags().IntVar(&frames, "frames", 0, "number of LCD frames to execute")
	runCmd.Flags().BoolVar(&dumpLog, "log", false, "print the emulator log after running")
	_ = runCmd.MarkFlagRequired("bios")
	_ = runCmd.MarkFlagRequired("rom")

	headerCmd := &cobra.Command{
		Use:   "header",
		Short: "Parse and print a ROM's cartridge header",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printHeader(romPath)
		},
	}
	headerCmd.Flags().StringVar(&romPath, "rom", "", "path to a cartridge ROM image (required)")
	_ = headerCmd.MarkFlagRequired("rom")

	rootCmd.AddCommand(runCmd, headerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCore(biosPath, romPath string, steps, frames int, dumpLog bool) error {
	bios, err := os.ReadFile(biosPath)
	if err != nil {
		return fmt.Errorf("reading BIOS: %w", err)
	}
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}

	core, err := agb.New(bios, rom, agb.Options{})
	if err != nil {
		return fmt.Errorf("constructing core: %w", err)
	}

	fmt.Printf("title=%q code=%q maker=%q\n", core.Header.Title, core.Header.GameCode, core.Header.MakerCode)

	for i := 0; i < steps; i++ {
		core.Step()
	}
	for i := 0; i < frames; i++ {
		core.Frame()
	}

	printState(core)

	if dumpLog {
		core.Log.Write(os.Stdout)
	}
	return nil
}

func printHeader(romPath string) error {
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}
	core, err := agb.New(make([]byte, 0x4000), rom, agb.Options{})
	if err != nil {
		return err
	}
	h := core.Header
	fmt.Printf("entry point: %#08x\n", h.EntryPoint)
	fmt.Printf("title:       %q\n", h.Title)
	fmt.Printf("game code:   %q\n", h.GameCode)
	fmt.Printf("maker code:  %q\n", h.MakerCode)
	fmt.Printf("version:     %d\n", h.SoftwareVer)
	return nil
}

func printState(core *agb.Core) {
	cpsr := core.Regs.CPSR()
	fmt.Printf("pc=%#08x mode=%s thumb=%v\n", core.Regs.Read(15), cpsr.Mode, cpsr.Thumb)
	for i := 0; i < 16; i++ {
		fmt.Printf("r%-2d=%#010x ", i, core.Regs.Read(i))
		if i%4 == 3 {
			fmt.Println()
		}
	}
	fmt.Printf("vcount=%d\n", core.LCD.VCount())
}
