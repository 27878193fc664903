// Package agb is the root of the GBA core: it wires the CPU, address
// space and peripherals together and drives the cycle-stepped core loop.
//
// Grounded on the teacher's hardware package shape (doc.go: "the VCS type
// is the root of the emulation and contains external references to all
// the VCS sub-systems... it can be stepped cycle by cycle") generalised
// from the VCS/TIA/6507 domain to the GBA/LCD/ARM7TDMI one.
package agb

import (
	"github.com/jetsetilly/agb/cartridge"
	"github.com/jetsetilly/agb/cpu"
	"github.com/jetsetilly/agb/cpu/registers"
	"github.com/jetsetilly/agb/curated"
	"github.com/jetsetilly/agb/interrupt"
	"github.com/jetsetilly/agb/keypad"
	"github.com/jetsetilly/agb/lcd"
	"github.com/jetsetilly/agb/logger"
	"github.com/jetsetilly/agb/memory"
	"github.com/jetsetilly/agb/timer"
)

const biosSize = 0x4000

// Options configures a new Core. The zero value is valid: no
// disassembler, a default-sized logger.
type Options struct {
	Disasm       cpu.Disassembler
	LogCapacity  int
}

const defaultLogCapacity = 1024

// Core is the complete GBA emulation: register file, address space, CPU
// and peripherals, and the log sidecar. It owns everything and has no
// back-references to any host UI.
type Core struct {
	Regs      *registers.File
	Bus       *memory.Bus
	CPU       *cpu.CPU
	LCD       *lcd.Controller
	Timers    *timer.Bank
	Interrupt *interrupt.Controller
	Keypad    *keypad.Device
	Log       *logger.Logger

	Header cartridge.Header
}

// New constructs a Core from a BIOS image and a cartridge ROM image. The
// BIOS must be exactly 16KiB, and a BIOS of any other size is the only
// error New returns. The ROM header is parsed and validated, but every
// parse failure (a ROM too short for a header, a wrong fixed byte, a
// checksum mismatch) is logged rather than returned, and construction
// continues with whatever header fields Parse produced.
func New(bios, rom []byte, opts Options) (*Core, error) {
	if len(bios) != biosSize {
		return nil, curated.Errorf("agb: BIOS must be %d bytes, got %d", biosSize, len(bios))
	}

	capacity := opts.LogCapacity
	if capacity == 0 {
		capacity = defaultLogCapacity
	}
	log := logger.NewLogger(capacity)

	header, err := cartridge.Parse(rom)
	if err != nil {
		log.Logf(logger.Allow, "cartridge", "%v", err)
	}

	ic := interrupt.NewController()
	lcdCtl := lcd.NewController(ic)
	timers := timer.NewBank(ic)
	kp := keypad.NewDevice()
	bus := memory.NewBus(bios, rom, lcdCtl, timers, ic, kp, log)
	regs := registers.NewFile()
	c := cpu.New(regs, bus, ic)
	c.Disasm = opts.Disasm

	return &Core{
		Regs:      regs,
		Bus:       bus,
		CPU:       c,
		LCD:       lcdCtl,
		Timers:    timers,
		Interrupt: ic,
		Keypad:    kp,
		Log:       log,
		Header:    header,
	}, nil
}

// Step executes one CPU instruction (or takes a pending IRQ) and, for each
// cycle it consumed, advances the LCD, the timers and the interrupt
// controller's IF FIFO by one slot, per spec §4.9's core loop. It returns
// the number of cycles consumed.
func (c *Core) Step() int {
	cycles := c.CPU.Step()
	for i := 0; i < cycles; i++ {
		c.LCD.Step()
		c.Timers.Step()
		c.Interrupt.Advance()
	}
	return cycles
}

// Frame runs Step until one full LCD frame (228 scanlines) has elapsed,
// starting and ending at VCount 0. It is a convenience for headless
// callers that want to drive the core a frame at a time rather than
// instruction by instruction.
func (c *Core) Frame() {
	for c.LCD.VCount() != 0 {
		c.Step()
	}
	for c.LCD.VCount() == 0 {
		c.Step()
	}
	for c.LCD.VCount() != 0 {
		c.Step()
	}
}

// Framebuffer returns the LCD's current RGB555 framebuffer.
func (c *Core) Framebuffer() *[lcd.ScreenHeight][lcd.ScreenWidth]uint16 {
	return c.LCD.Framebuffer()
}

// PressButton updates the keypad state for btn.
func (c *Core) PressButton(btn keypad.Button, pressed bool) {
	c.Keypad.PressButton(btn, pressed)
}

// Snapshot encodes the complete guest-visible machine state - register
// file, EWRAM, IWRAM, cartridge SRAM, the LCD's registers/counters/video
// memory, the timers, the interrupt controller and the keypad - as a single flat
// byte record, per spec §6's persisted-state layout.
func (c *Core) Snapshot() []byte {
	var out []byte
	out = append(out, c.Regs.Snapshot()...)
	out = append(out, c.Bus.EWRAM...)
	out = append(out, c.Bus.IWRAM...)
	out = append(out, c.Bus.SRAM...)
	out = append(out, c.LCD.Snapshot()...)
	out = append(out, c.Timers.Snapshot()...)
	out = append(out, c.Interrupt.Snapshot()...)
	out = append(out, c.Keypad.Snapshot()...)
	return out
}

// Restore replaces the core's state from a record produced by Snapshot.
// It rejects records of unexpected length, per spec §7, rather than
// partially applying a mismatched one.
func (c *Core) Restore(data []byte) error {
	regsLen := registers.SnapshotSize
	ewramLen := len(c.Bus.EWRAM)
	iwramLen := len(c.Bus.IWRAM)
	sramLen := len(c.Bus.SRAM)

	lcdSnap := c.LCD.Snapshot()
	want := regsLen + ewramLen + iwramLen + sramLen + len(lcdSnap) + timer.SnapshotSize + interrupt.SnapshotSize + keypad.SnapshotSize
	if len(data) != want {
		return curated.Errorf("agb: snapshot record is %d bytes, want %d", len(data), want)
	}

	pos := 0
	take := func(n int) []byte {
		b := data[pos : pos+n]
		pos += n
		return b
	}

	if err := c.Regs.Restore(take(regsLen)); err != nil {
		return err
	}
	copy(c.Bus.EWRAM, take(ewramLen))
	copy(c.Bus.IWRAM, take(iwramLen))
	copy(c.Bus.SRAM, take(sramLen))
	if err := c.LCD.Restore(take(len(lcdSnap))); err != nil {
		return err
	}
	if err := c.Timers.Restore(take(timer.SnapshotSize)); err != nil {
		return err
	}
	if err := c.Interrupt.Restore(take(interrupt.SnapshotSize)); err != nil {
		return err
	}
	if err := c.Keypad.Restore(take(keypad.SnapshotSize)); err != nil {
		return err
	}
	return nil
}
