// Package timer implements the GBA's four cascadable hardware timers.
// Control-register semantics (prescaler divisor table, cascade, IRQ
// enable, reload-on-enable) are confirmed by
// original_source/emu/src/cpu/hardware/timers.rs.
package timer

import (
	"encoding/binary"

	"github.com/jetsetilly/agb/curated"
	"github.com/jetsetilly/agb/interrupt"
)

// channelSnapshotSize is the per-channel byte count Snapshot/Restore use:
// counter(2) + reload(2) + control(1) + accum(4) + overflowed(1).
const channelSnapshotSize = 10

// SnapshotSize is the fixed length of a Bank's snapshot record.
const SnapshotSize = channelSnapshotSize * 4

var prescalerDivisor = [4]uint32{1, 64, 256, 1024}

const (
	ctrlPrescaler = 0x3 // bits 0-1
	ctrlCascade   = 1 << 2
	ctrlIRQ       = 1 << 6
	ctrlStart     = 1 << 7
)

// Channel is one of the four TMxCNT timers.
type Channel struct {
	counter   uint16
	reload    uint16
	control   uint8
	accum     uint32
	overflowed bool
}

// Enabled reports whether the start bit is set.
func (ch *Channel) Enabled() bool { return ch.control&ctrlStart != 0 }

func (ch *Channel) cascade() bool { return ch.control&ctrlCascade != 0 }
func (ch *Channel) irqEnabled() bool { return ch.control&ctrlIRQ != 0 }
func (ch *Channel) divisor() uint32 { return prescalerDivisor[ch.control&ctrlPrescaler] }

// setControl writes TMxCNT_H. Per the resolved Open Question, disabling a
// running timer freezes the counter; only the 0->1 transition reloads it.
func (ch *Channel) setControl(v uint8) {
	wasEnabled := ch.Enabled()
	ch.control = v
	if !wasEnabled && ch.Enabled() {
		ch.counter = ch.reload
		ch.accum = 0
	}
}

// tick advances the channel by one CPU cycle. cascadeIn is true when the
// preceding channel overflowed this same cycle (ignored by channel 0,
// which cannot cascade). It returns whether this channel overflowed.
func (ch *Channel) tick(cascadeIn bool, cascadeCapable bool) bool {
	ch.overflowed = false
	if !ch.Enabled() {
		return false
	}

	advance := false
	if cascadeCapable && ch.cascade() {
		advance = cascadeIn
	} else {
		ch.accum++
		if ch.accum >= ch.divisor() {
			ch.accum = 0
			advance = true
		}
	}

	if !advance {
		return false
	}

	ch.counter++
	if ch.counter == 0 {
		ch.counter = ch.reload
		ch.overflowed = true
	}
	return ch.overflowed
}

// Bank is the four-channel timer unit TM0..TM3.
type Bank struct {
	ch        [4]Channel
	Interrupt *interrupt.Controller
}

// NewBank returns a Bank wired to the given interrupt controller for
// overflow IRQ signalling.
func NewBank(ic *interrupt.Controller) *Bank {
	return &Bank{Interrupt: ic}
}

// irqSources maps channel index to its IE/IF bit.
var irqSources = [4]interrupt.Source{interrupt.Timer0, interrupt.Timer1, interrupt.Timer2, interrupt.Timer3}

// Step advances all four channels by one CPU cycle, propagating cascade
// within the same tick (TM0 overflow can ripple through TM1, TM2, TM3 in
// one call) and raising any enabled overflow IRQs.
func (b *Bank) Step() {
	prevOverflow := false
	for i := range b.ch {
		cascadeCapable := i != 0
		overflow := b.ch[i].tick(prevOverflow, cascadeCapable)
		if overflow && b.ch[i].irqEnabled() {
			b.Interrupt.Raise(irqSources[i])
		}
		prevOverflow = overflow
	}
}

func (b *Bank) reg(offset uint32) (ch *Channel, sub uint32) {
	idx := offset / 4
	if int(idx) >= len(b.ch) {
		return nil, 0
	}
	return &b.ch[idx], offset % 4
}

const (
	subCounterLo = 0
	subCounterHi = 1
	subControlLo = 2
	subControlHi = 3
)

// ReadByte reads one byte of the 0x100-0x10F timer register window.
func (b *Bank) ReadByte(offset uint32) uint8 {
	ch, sub := b.reg(offset)
	if ch == nil {
		return 0
	}
	switch sub {
	case subCounterLo:
		return byte(ch.counter)
	case subCounterHi:
		return byte(ch.counter >> 8)
	case subControlLo:
		return ch.control
	case subControlHi:
		return 0
	}
	return 0
}

// WriteByte writes one byte of the 0x100-0x10F timer register window.
// Writes to the counter lanes update the reload value (the counter itself
// is read-only from the bus), matching real hardware's TMxCNT_L semantics.
func (b *Bank) WriteByte(offset uint32, v uint8) {
	ch, sub := b.reg(offset)
	if ch == nil {
		return
	}
	switch sub {
	case subCounterLo:
		ch.reload = ch.reload&0xff00 | uint16(v)
	case subCounterHi:
		ch.reload = ch.reload&0x00ff | uint16(v)<<8
	case subControlLo:
		ch.setControl(v)
	}
}

// Snapshot encodes every channel's full internal state (including the
// prescaler accumulator, invisible from the register window) as a flat
// little-endian byte record.
func (b *Bank) Snapshot() []byte {
	out := make([]byte, 0, SnapshotSize)
	for _, ch := range b.ch {
		var buf [channelSnapshotSize]byte
		binary.LittleEndian.PutUint16(buf[0:2], ch.counter)
		binary.LittleEndian.PutUint16(buf[2:4], ch.reload)
		buf[4] = ch.control
		binary.LittleEndian.PutUint32(buf[5:9], ch.accum)
		if ch.overflowed {
			buf[9] = 1
		}
		out = append(out, buf[:]...)
	}
	return out
}

// Restore replaces the bank's channel state from a record produced by
// Snapshot, rejecting records of the wrong length.
func (b *Bank) Restore(data []byte) error {
	if len(data) != SnapshotSize {
		return curated.Errorf("timer: snapshot record is %d bytes, want %d", len(data), SnapshotSize)
	}
	for i := range b.ch {
		buf := data[i*channelSnapshotSize : (i+1)*channelSnapshotSize]
		b.ch[i].counter = binary.LittleEndian.Uint16(buf[0:2])
		b.ch[i].reload = binary.LittleEndian.Uint16(buf[2:4])
		b.ch[i].control = buf[4]
		b.ch[i].accum = binary.LittleEndian.Uint32(buf[5:9])
		b.ch[i].overflowed = buf[9] != 0
	}
	return nil
}
