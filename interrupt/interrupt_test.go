package interrupt_test

import (
	"testing"

	"github.com/jetsetilly/agb/interrupt"
)

func TestRaiseRequiresFourAdvancesToBecomeVisible(t *testing.T) {
	ic := interrupt.NewController()
	ic.SetIE(uint16(interrupt.VBlank))
	ic.SetIME(true)

	ic.Raise(interrupt.VBlank)
	for i := 0; i < 4; i++ {
		if ic.Pending() {
			t.Fatalf("interrupt visible after only %d advances, want not yet", i)
		}
		ic.Advance()
	}
	if !ic.Pending() {
		t.Fatal("interrupt not visible after 4 advances, want visible on the 4th")
	}
}

func TestIMEMasksPendingInterrupt(t *testing.T) {
	ic := interrupt.NewController()
	ic.SetIE(uint16(interrupt.VBlank))
	ic.Raise(interrupt.VBlank)
	for i := 0; i < 4; i++ {
		ic.Advance()
	}
	if ic.Pending() {
		t.Fatal("interrupt pending with IME disabled")
	}
	ic.SetIME(true)
	if !ic.Pending() {
		t.Fatal("interrupt should be visible once IME is enabled")
	}
}

func TestIEMasksUnenabledSource(t *testing.T) {
	ic := interrupt.NewController()
	ic.SetIME(true)
	ic.Raise(interrupt.Timer0)
	for i := 0; i < 4; i++ {
		ic.Advance()
	}
	if ic.Pending() {
		t.Fatal("Timer0 interrupt pending without its IE bit set")
	}
}

func TestAcknowledgeIFClearsBackSlotBeforePropagation(t *testing.T) {
	ic := interrupt.NewController()
	ic.SetIE(uint16(interrupt.VBlank))
	ic.SetIME(true)

	ic.Raise(interrupt.VBlank)
	ic.WriteByte(0x02, uint8(interrupt.VBlank)) // IF write-one-to-clear, low byte
	for i := 0; i < 4; i++ {
		ic.Advance()
	}
	if ic.Pending() {
		t.Fatal("acknowledged interrupt still became pending")
	}
}

func TestRegisterByteAccess(t *testing.T) {
	ic := interrupt.NewController()
	ic.WriteByte(0x00, 0xff)
	ic.WriteByte(0x01, 0x3f)
	if got := ic.IE(); got != 0x3fff {
		t.Fatalf("IE = %#x, want 0x3fff", got)
	}
	if got := ic.ReadByte(0x00); got != 0xff {
		t.Fatalf("IE low byte = %#x, want 0xff", got)
	}
	if got := ic.ReadByte(0x01); got != 0x3f {
		t.Fatalf("IE high byte = %#x, want 0x3f", got)
	}

	ic.WriteByte(0x08, 1)
	if !ic.IME() {
		t.Fatal("IME not set after WriteByte(0x08, 1)")
	}
	if got := ic.ReadByte(0x08); got != 1 {
		t.Fatalf("IME readback = %d, want 1", got)
	}
}
