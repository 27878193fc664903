package timer_test

import (
	"testing"

	"github.com/jetsetilly/agb/interrupt"
	"github.com/jetsetilly/agb/timer"
)

const (
	offCntL = 0x0
	offCntH = 0x2
)

func newBank() (*timer.Bank, *interrupt.Controller) {
	ic := interrupt.NewController()
	return timer.NewBank(ic), ic
}

// writeReload writes TMxCNT_L (the reload value) for channel index ch
// relative to the bank's register window (each channel occupies 4 bytes
// starting at ch*4).
func writeReload(b *timer.Bank, ch int, reload uint16) {
	base := uint32(ch * 4)
	b.WriteByte(base+0, byte(reload))
	b.WriteByte(base+1, byte(reload>>8))
}

func writeControl(b *timer.Bank, ch int, v uint8) {
	b.WriteByte(uint32(ch*4)+2, v)
}

func readCounter(b *timer.Bank, ch int) uint16 {
	lo := b.ReadByte(uint32(ch * 4))
	hi := b.ReadByte(uint32(ch*4) + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func TestPrescaler1024OverflowTiming(t *testing.T) {
	b, _ := newBank()
	writeReload(b, 0, 0xffff)
	writeControl(b, 0, 0x80|0x3) // enable, prescaler=1024

	for i := 0; i < 1023; i++ {
		b.Step()
		if readCounter(b, 0) != 0xffff {
			t.Fatalf("counter changed early at cycle %d: %#04x", i, readCounter(b, 0))
		}
	}
	b.Step()
	if got := readCounter(b, 0); got != 0xffff {
		t.Fatalf("counter after overflow = %#04x, want reload 0xffff", got)
	}
}

func TestTimerCascade(t *testing.T) {
	b, _ := newBank()
	writeReload(b, 0, 0xfffe)
	writeControl(b, 0, 0x80) // enable, prescaler=1 (divisor 1), no IRQ
	writeReload(b, 1, 0x0000)
	writeControl(b, 1, 0x80|0x04|0x40) // enable, cascade, IRQ on

	b.Step()
	b.Step()
	b.Step()
	if got := readCounter(b, 0); got != 0xffff {
		t.Fatalf("TM0 after 3 steps = %#04x, want 0xffff", got)
	}
	if got := readCounter(b, 1); got != 1 {
		t.Fatalf("TM1 after 3 steps = %d, want 1", got)
	}

	b.Step()
	if got := readCounter(b, 0); got != 0xfffe { // 0xffff -> overflow -> reload 0xfffe
		t.Fatalf("TM0 after 4th step = %#04x, want 0xfffe", got)
	}
	if got := readCounter(b, 1); got != 2 {
		t.Fatalf("TM1 after 4th step = %d, want 2", got)
	}
}

func TestDisablingTimerFreezesCounter(t *testing.T) {
	b, _ := newBank()
	writeReload(b, 2, 0x0000)
	writeControl(b, 2, 0x80) // enable, prescaler 1
	for i := 0; i < 5; i++ {
		b.Step()
	}
	frozen := readCounter(b, 2)
	writeControl(b, 2, 0x00) // disable
	for i := 0; i < 10; i++ {
		b.Step()
	}
	if got := readCounter(b, 2); got != frozen {
		t.Fatalf("counter moved after disable: got %d, want %d", got, frozen)
	}
}

func TestTM0CannotCascade(t *testing.T) {
	b, _ := newBank()
	// TM0 has no preceding channel; setting its cascade bit must be
	// ignored and it must still free-run off its own prescaler.
	writeReload(b, 0, 0)
	writeControl(b, 0, 0x80|0x04)
	b.Step()
	if got := readCounter(b, 0); got != 1 {
		t.Fatalf("TM0 with cascade bit set = %d, want 1 (cascade ignored)", got)
	}
}

func TestOverflowRaisesIRQWhenEnabled(t *testing.T) {
	b, ic := newBank()
	writeReload(b, 0, 0xffff)
	writeControl(b, 0, 0x80|0x40) // enable, IRQ on, prescaler 1
	ic.SetIE(uint16(interrupt.Timer0))
	ic.SetIME(true)

	b.Step()
	for i := 0; i < 4; i++ {
		ic.Advance()
	}
	if !ic.Pending() {
		t.Fatal("expected Timer0 IRQ pending after overflow and FIFO propagation")
	}
}
