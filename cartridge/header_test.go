package cartridge_test

import (
	"testing"

	"github.com/jetsetilly/agb/cartridge"
)

// buildHeader constructs a minimal, checksum-valid 0xC0-byte header with
// the given title/code/maker fields, for use as test fixture ROM data.
func buildHeader(title, code, maker string) []byte {
	rom := make([]byte, 0xC0)
	copy(rom[0xA0:0xAC], title)
	copy(rom[0xAC:0xB0], code)
	copy(rom[0xB0:0xB2], maker)
	rom[0xB2] = 0x96
	rom[0xB3] = 0x00
	rom[0xB4] = 0x00
	rom[0xBC] = 0x00

	var acc uint8
	for _, b := range rom[0xA0:0xBD] {
		acc -= b
	}
	rom[0xBD] = acc - 0x19
	return rom
}

func TestParseValidHeader(t *testing.T) {
	rom := buildHeader("TESTGAME", "TEST", "01")
	h, err := cartridge.Parse(rom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Title != "TESTGAME" {
		t.Errorf("Title = %q, want TESTGAME", h.Title)
	}
	if h.GameCode != "TEST" {
		t.Errorf("GameCode = %q, want TEST", h.GameCode)
	}
	if h.MakerCode != "01" {
		t.Errorf("MakerCode = %q, want 01", h.MakerCode)
	}
}

func TestParseRejectsBadFixedByte(t *testing.T) {
	rom := buildHeader("X", "X", "X")
	rom[0xB2] = 0x00
	if _, err := cartridge.Parse(rom); err == nil {
		t.Fatal("expected error for bad fixed byte, got nil")
	}
}

func TestParseRejectsBadChecksum(t *testing.T) {
	rom := buildHeader("X", "X", "X")
	rom[0xBD] ^= 0xff
	if _, err := cartridge.Parse(rom); err == nil {
		t.Fatal("expected error for bad checksum, got nil")
	}
}

func TestParseRejectsTruncatedROM(t *testing.T) {
	if _, err := cartridge.Parse(make([]byte, 0x10)); err == nil {
		t.Fatal("expected error for truncated ROM, got nil")
	}
}
