// Package keypad implements the GBA's ten-button active-low KEYINPUT
// register, generalised from the teacher's hardware/controller +
// hardware/input split between a device-facing press/release API and the
// bus-facing register byte pair.
package keypad

import (
	"encoding/binary"

	"github.com/jetsetilly/agb/curated"
)

// Button identifies one of the ten physical buttons, numbered by its
// KEYINPUT bit position.
type Button uint16

// The ten GBA buttons, by KEYINPUT bit.
const (
	A      Button = 1 << 0
	B      Button = 1 << 1
	Select Button = 1 << 2
	Start  Button = 1 << 3
	Right  Button = 1 << 4
	Left   Button = 1 << 5
	Up     Button = 1 << 6
	Down   Button = 1 << 7
	R      Button = 1 << 8
	L      Button = 1 << 9
)

const allButtons = 0x3ff

// Device holds the KEYINPUT and KEYCNT registers. KEYINPUT is active-low:
// a set bit means "not pressed". Bits 10-15 of KEYINPUT always read zero.
type Device struct {
	input uint16 // raw KEYINPUT value, active low
	cnt   uint16 // KEYCNT: IRQ select mask + condition bit
}

// NewDevice returns a Device with every button in the released state.
func NewDevice() *Device {
	return &Device{input: allButtons}
}

// PressButton updates the keypad register for btn: pressed clears its bit
// (active low), released sets it.
func (d *Device) PressButton(btn Button, pressed bool) {
	if pressed {
		d.input &^= uint16(btn)
	} else {
		d.input |= uint16(btn)
	}
}

// KeyInput returns the current KEYINPUT value (bits 10-15 always zero).
func (d *Device) KeyInput() uint16 {
	return d.input & allButtons
}

// Pending reports whether the keypad IRQ condition configured in KEYCNT is
// currently satisfied. Nothing in the core polls it, so the keypad
// interrupt (IF bit 12) is never raised.
func (d *Device) Pending() bool {
	if d.cnt&(1<<14) == 0 {
		return false
	}
	mask := d.cnt & allButtons
	pressed := ^d.input & allButtons
	if d.cnt&(1<<15) != 0 {
		// AND mode: every selected button must be pressed.
		return pressed&mask == mask
	}
	// OR mode: any selected button pressed.
	return pressed&mask != 0
}

const (
	offKeyInputLo = 0x00
	offKeyInputHi = 0x01
	offKeyCntLo   = 0x02
	offKeyCntHi   = 0x03
)

// ReadByte reads one byte of the 0x130-0x133 register window.
func (d *Device) ReadByte(offset uint32) uint8 {
	switch offset {
	case offKeyInputLo:
		return byte(d.KeyInput())
	case offKeyInputHi:
		return byte(d.KeyInput() >> 8)
	case offKeyCntLo:
		return byte(d.cnt)
	case offKeyCntHi:
		return byte(d.cnt >> 8)
	}
	return 0
}

// WriteByte writes one byte of the 0x130-0x133 register window. KEYINPUT
// is read-only from the guest's perspective; only KEYCNT accepts writes.
func (d *Device) WriteByte(offset uint32, v uint8) {
	switch offset {
	case offKeyCntLo:
		d.cnt = d.cnt&0xff00 | uint16(v)
	case offKeyCntHi:
		d.cnt = d.cnt&0x00ff | uint16(v)<<8
	}
}

// SnapshotSize is the fixed length of a Device's snapshot record.
const SnapshotSize = 4

// Snapshot encodes the raw KEYINPUT and KEYCNT state.
func (d *Device) Snapshot() []byte {
	out := make([]byte, SnapshotSize)
	binary.LittleEndian.PutUint16(out[0:2], d.input)
	binary.LittleEndian.PutUint16(out[2:4], d.cnt)
	return out
}

// Restore replaces the device's state from a record produced by Snapshot.
func (d *Device) Restore(data []byte) error {
	if len(data) != SnapshotSize {
		return curated.Errorf("keypad: snapshot record is %d bytes, want %d", len(data), SnapshotSize)
	}
	d.input = binary.LittleEndian.Uint16(data[0:2])
	d.cnt = binary.LittleEndian.Uint16(data[2:4])
	return nil
}
