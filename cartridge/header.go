// Package cartridge parses the 192-byte GBA ROM header: entry point,
// title/code/maker fields, and the header checksum that the BIOS boot
// procedure verifies before jumping into a cartridge.
//
// Grounded on original_source/emu/src/cartridge_header.rs, translated from
// its field-by-field byte-range parse into the same shape using this
// project's curated error type in place of Rust's boxed-error return.
package cartridge

import (
	"github.com/jetsetilly/agb/curated"
)

const (
	headerSize   = 0xC0
	fixedByteOff = 0xB2
	fixedByte    = 0x96
)

// Header is the parsed fixed portion of a GBA ROM header (offsets
// 0x00-0xBF). The multiboot-only fields beyond 0xC0 are not modelled; this
// core only supports cartridge boot.
type Header struct {
	EntryPoint     uint32
	Title          string
	GameCode       string
	MakerCode      string
	MainUnitCode   uint8
	DeviceType     uint8
	SoftwareVer    uint8
	ComplementChk  uint8
}

// Parse validates and extracts the header from the start of rom. It
// returns a curated error, not a panic, because a malformed or truncated
// ROM is host-supplied input, not a programming error.
func Parse(rom []byte) (Header, error) {
	if len(rom) < headerSize {
		return Header{}, curated.Errorf("cartridge: ROM too short for header (%d bytes)", len(rom))
	}
	if rom[fixedByteOff] != fixedByte {
		return Header{}, curated.Errorf("cartridge: fixed header byte at %#02x is %#02x, want %#02x", fixedByteOff, rom[fixedByteOff], fixedByte)
	}

	h := Header{
		EntryPoint:    beWord(rom[0x00:0x04]),
		Title:         asciiString(rom[0xA0:0xAC]),
		GameCode:      asciiString(rom[0xAC:0xB0]),
		MakerCode:     asciiString(rom[0xB0:0xB2]),
		MainUnitCode:  rom[0xB3],
		DeviceType:    rom[0xB4],
		SoftwareVer:   rom[0xBC],
		ComplementChk: rom[0xBD],
	}

	if got, want := checksum(rom), h.ComplementChk; got != want {
		return h, curated.Errorf("cartridge: header checksum mismatch: got %#02x, want %#02x", got, want)
	}
	return h, nil
}

// checksum reproduces the GBA BIOS boot check: the negated (two's-complement)
// sum of bytes 0xA0..0xBC, minus 0x19, modulo 256.
func checksum(rom []byte) uint8 {
	var acc uint8
	for _, b := range rom[0xA0:0xBD] {
		acc -= b
	}
	return acc - 0x19
}

func beWord(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// asciiString trims trailing NUL padding from a fixed-width header field.
// The header spec requires pure ASCII; non-ASCII bytes are kept verbatim
// rather than rejected, since a handful of bad dumps in the wild carry
// stray bytes in these fields and this core prefers "report, don't crash"
// for cartridge metadata.
func asciiString(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
