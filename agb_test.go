package agb_test

import (
	"testing"

	"github.com/jetsetilly/agb"
	"github.com/jetsetilly/agb/keypad"
)

// buildROM constructs a ROM with a minimal, checksum-valid header, mirroring
// the cartridge package's own test fixture builder.
func buildROM(size int) []byte {
	rom := make([]byte, size)
	copy(rom[0xA0:0xAC], "TESTGAME")
	copy(rom[0xAC:0xB0], "TEST")
	copy(rom[0xB0:0xB2], "01")
	rom[0xB2] = 0x96

	var acc uint8
	for _, b := range rom[0xA0:0xBD] {
		acc -= b
	}
	rom[0xBD] = acc - 0x19
	return rom
}

func newTestCore(t *testing.T) *agb.Core {
	t.Helper()
	bios := make([]byte, 0x4000)
	rom := buildROM(0x1000)
	c, err := agb.New(bios, rom, agb.Options{})
	if err != nil {
		t.Fatalf("agb.New: %v", err)
	}
	return c
}

func TestNewRejectsWrongSizedBIOS(t *testing.T) {
	rom := buildROM(0x1000)
	if _, err := agb.New(make([]byte, 0x100), rom, agb.Options{}); err == nil {
		t.Fatal("expected an error for a non-16KiB BIOS")
	}
}

func TestNewParsesCartridgeHeader(t *testing.T) {
	c := newTestCore(t)
	if c.Header.Title != "TESTGAME" {
		t.Fatalf("Header.Title = %q, want TESTGAME", c.Header.Title)
	}
}

func TestStepAdvancesLCDByOneDotPerCycle(t *testing.T) {
	c := newTestCore(t)
	// A fresh core boots with PC at 0 (reset vector) in the BIOS, executing
	// zeroed BIOS bytes, which decode as ARM instructions that at minimum
	// consume cycles; confirm the LCD scanline counter moves by exactly the
	// cycle count Step reports (308 dots per scanline).
	total := 0
	for i := 0; i < 10000 && total < 3*308; i++ {
		total += c.Step()
	}
	if total == 0 {
		t.Fatal("Step never reported any consumed cycles")
	}
	if got, want := c.LCD.VCount(), total/308; got != want {
		t.Fatalf("VCount after %d cycles = %d, want %d", total, got, want)
	}
}

func TestFrameReturnsToVCountZero(t *testing.T) {
	c := newTestCore(t)
	c.Frame()
	if c.LCD.VCount() != 0 {
		t.Fatalf("VCount after Frame = %d, want 0", c.LCD.VCount())
	}
}

func TestPressButtonReachesKeypad(t *testing.T) {
	c := newTestCore(t)
	c.PressButton(keypad.A, true)
	if c.Keypad.KeyInput()&uint16(keypad.A) != 0 {
		t.Fatal("KEYINPUT bit for A should be clear (active low) once pressed")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	c := newTestCore(t)
	for i := 0; i < 1000; i++ {
		c.Step()
	}
	snap := c.Snapshot()

	other := newTestCore(t)
	if err := other.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if other.Regs.Read(15) != c.Regs.Read(15) {
		t.Fatalf("PC after restore = %#x, want %#x", other.Regs.Read(15), c.Regs.Read(15))
	}
	if other.LCD.VCount() != c.LCD.VCount() {
		t.Fatalf("VCount after restore = %d, want %d", other.LCD.VCount(), c.LCD.VCount())
	}
}

func TestRestoreRejectsWrongLength(t *testing.T) {
	c := newTestCore(t)
	if err := c.Restore([]byte{0, 1, 2}); err == nil {
		t.Fatal("expected an error restoring a truncated snapshot")
	}
}
