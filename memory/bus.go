package memory

import (
	"github.com/jetsetilly/agb/interrupt"
	"github.com/jetsetilly/agb/keypad"
	"github.com/jetsetilly/agb/lcd"
	"github.com/jetsetilly/agb/logger"
	"github.com/jetsetilly/agb/timer"
)

// Width selects the access size of a memory operation.
type Width int

// The three widths the ARM7TDMI bus supports.
const (
	Byte Width = 1
	Half Width = 2
	Word Width = 4
)

const (
	biosSize    = 0x4000
	ewramSize   = 0x40000
	ewramMask   = ewramSize - 1
	iwramSize   = 0x8000
	iwramMask   = iwramSize - 1
	paletteSize = 0x400
	vramSize    = 0x18000
	oamSize     = 0x400
	romWindow   = 0x2000000
	romWindowMask = romWindow - 1
	sramSize    = 0x10000
)

// Bus is the GBA address space: fixed-size backing stores for each region,
// plus the peripherals that own the I/O register window.
type Bus struct {
	BIOS    []byte
	EWRAM   []byte
	IWRAM   []byte
	Palette []byte
	VRAM    []byte
	OAM     []byte
	ROM     []byte
	SRAM    []byte

	LCD       *lcd.Controller
	Timers    *timer.Bank
	Interrupt *interrupt.Controller
	Keypad    *keypad.Device

	// sound, dma and serial register ranges are inert: reads return what
	// was last written, per SPEC_FULL.md 4.12's serial/sound/DMA stubs.
	sound  [0x50]byte
	dma    [0x50]byte
	serial [0x10]byte

	biosLatch uint32
	execPC    uint32

	Log *logger.Logger
}

// NewBus allocates a Bus with zeroed backing stores of the correct size for
// every region except BIOS and ROM, which are supplied by the caller.
func NewBus(bios, rom []byte, lcd *lcd.Controller, timers *timer.Bank, ic *interrupt.Controller, kp *keypad.Device, log *logger.Logger) *Bus {
	return &Bus{
		BIOS:      bios,
		EWRAM:     make([]byte, ewramSize),
		IWRAM:     make([]byte, iwramSize),
		Palette:   lcd.Palette,
		VRAM:      lcd.VRAM,
		OAM:       lcd.OAM,
		ROM:       rom,
		SRAM:      make([]byte, sramSize),
		LCD:       lcd,
		Timers:    timers,
		Interrupt: ic,
		Keypad:    kp,
		Log:       log,
	}
}

// SetExecPC records the address the CPU is currently fetching from. It
// gates the BIOS read-protection latch: reads of BIOS memory while the PC
// is outside the BIOS region return the last value legitimately fetched,
// rather than exposing arbitrary BIOS bytes to code that has left it.
func (b *Bus) SetExecPC(pc uint32) {
	b.execPC = pc
}

func alignAddr(addr uint32, w Width) uint32 {
	switch w {
	case Half:
		return addr &^ 1
	case Word:
		return addr &^ 3
	}
	return addr
}

// ReadByte performs a single-byte bus read.
func (b *Bus) ReadByte(addr uint32) uint8 {
	return byte(b.access(addr, Byte, 0, false))
}

// WriteByte performs a single-byte bus write.
func (b *Bus) WriteByte(addr uint32, v uint8) {
	b.access(addr, Byte, uint32(v), true)
}

// ReadHalf performs a halfword bus read, forcibly aligning the address.
func (b *Bus) ReadHalf(addr uint32) uint16 {
	return uint16(b.access(alignAddr(addr, Half), Half, 0, false))
}

// WriteHalf performs a halfword bus write, forcibly aligning the address.
func (b *Bus) WriteHalf(addr uint32, v uint16) {
	b.access(alignAddr(addr, Half), Half, uint32(v), true)
}

// ReadWord performs a word bus read, forcibly aligning the address. Note
// that misaligned-load rotation (an ARM LDR behaviour, not a bus one) is
// the caller's responsibility.
func (b *Bus) ReadWord(addr uint32) uint32 {
	return b.access(alignAddr(addr, Word), Word, 0, false)
}

// WriteWord performs a word bus write, forcibly aligning the address.
func (b *Bus) WriteWord(addr uint32, v uint32) {
	b.access(alignAddr(addr, Word), Word, v, true)
}

// access is the single entry point for every bus transaction: it decodes
// the region from the address's top byte and routes to backing storage or
// a peripheral, handling multi-byte reads/writes by composing byte lanes
// in little-endian order.
func (b *Bus) access(addr uint32, w Width, value uint32, write bool) uint32 {
	region := addr >> 24

	switch {
	case region == 0x00:
		return b.accessBIOS(addr, w, value, write)
	case region == 0x02:
		return accessSlice(b.EWRAM, addr&ewramMask, w, value, write)
	case region == 0x03:
		return accessSlice(b.IWRAM, addr&iwramMask, w, value, write)
	case region == 0x04:
		return b.accessIO(addr&0xFFFFFF, w, value, write)
	case region == 0x05:
		return accessSlice(b.Palette, addr%paletteSize, w, value, write)
	case region == 0x06:
		return accessSlice(b.VRAM, vramOffset(addr), w, value, write)
	case region == 0x07:
		return accessSlice(b.OAM, addr%oamSize, w, value, write)
	case region >= 0x08 && region <= 0x0d:
		return b.accessROM(addr&romWindowMask, w, value, write)
	case region == 0x0e || region == 0x0f:
		return b.accessSRAM(addr%sramSize, w, value, write)
	}

	if write {
		return 0
	}
	return 0
}

// bytePeripheral is satisfied by every device that owns a sub-range of the
// I/O register window: LCD, timers, interrupt controller and keypad all
// expose byte-level register access this way.
type bytePeripheral interface {
	ReadByte(offset uint32) uint8
	WriteByte(offset uint32, v uint8)
}

// accessIO shatters a byte/halfword/word I/O access into byte lanes and
// routes each to the owning device by offset range, per the dispatch table
// in spec §4.5. Addresses that fall outside every named sub-range are
// inert: reads return 0, writes are discarded.
func (b *Bus) accessIO(offset uint32, w Width, value uint32, write bool) uint32 {
	n := int(w)
	var result uint32
	for i := 0; i < n; i++ {
		off := offset + uint32(i)
		lane := byte(value >> (8 * i))
		v, mapped := b.ioByte(off, lane, write)
		if !mapped {
			if !write {
				b.logUnmapped(off)
			}
			continue
		}
		if !write {
			result |= uint32(v) << (8 * i)
		}
	}
	return result
}

func (b *Bus) logUnmapped(off uint32) {
	if b.Log != nil {
		b.Log.Logf(logger.Allow, "memory", "unmapped I/O read at offset %#x", off)
	}
}

// ioByte routes one byte lane of an I/O access to its owning device. The
// sound/DMA/serial ranges are inert registers (spec §4.12): they store
// whatever was last written and otherwise do nothing, standing in for
// audio mixing, the DMA transfer engine and link-cable behaviour, all
// explicit Non-goals.
func (b *Bus) ioByte(off uint32, lane byte, write bool) (uint8, bool) {
	switch {
	case off < 0x060:
		return bytePeripheralAccess(b.LCD, off, lane, write), true
	case off >= 0x060 && off < 0x0b0:
		return inertByte(b.sound[:], off-0x060, lane, write), true
	case off >= 0x0b0 && off < 0x100:
		return inertByte(b.dma[:], off-0x0b0, lane, write), true
	case off >= 0x100 && off < 0x110:
		return bytePeripheralAccess(b.Timers, off-0x100, lane, write), true
	case off >= 0x120 && off < 0x130:
		return inertByte(b.serial[:], off-0x120, lane, write), true
	case off >= 0x130 && off < 0x134:
		return bytePeripheralAccess(b.Keypad, off-0x130, lane, write), true
	case off >= 0x200 && off < 0x20c:
		return bytePeripheralAccess(b.Interrupt, off-0x200, lane, write), true
	}
	return 0, false
}

func bytePeripheralAccess(dev bytePeripheral, rel uint32, lane byte, write bool) uint8 {
	if write {
		dev.WriteByte(rel, lane)
		return 0
	}
	return dev.ReadByte(rel)
}

func inertByte(store []byte, rel uint32, lane byte, write bool) uint8 {
	if int(rel) >= len(store) {
		return 0
	}
	if write {
		store[rel] = lane
		return 0
	}
	return store[rel]
}

// vramOffset folds VRAM mirror addressing: the upper 32KiB bank (object
// tile data in bitmap modes) repeats every 128KiB above the real 96KiB.
func vramOffset(addr uint32) uint32 {
	off := addr & 0x1FFFF
	if off >= vramSize {
		off -= 0x8000
	}
	return off
}

func (b *Bus) accessBIOS(addr uint32, w Width, value uint32, write bool) uint32 {
	if write {
		// BIOS is writable only from core init, which uses a direct slice
		// copy rather than the bus; guest writes are discarded.
		return 0
	}
	if addr < biosSize && b.execPC < biosSize {
		v := accessSlice(b.BIOS, addr, w, 0, false)
		b.biosLatch = v
		return v
	}
	return b.biosLatch
}

func (b *Bus) accessROM(addr uint32, w Width, value uint32, write bool) uint32 {
	if write {
		return 0
	}
	if int(addr)+int(w) <= len(b.ROM) {
		return accessSlice(b.ROM, addr, w, 0, false)
	}
	return openBus(addr, w)
}

// openBus implements the cartridge past-ROM-end read: the address divided
// by two, taken modulo 65536, supplies the low or high byte of each
// halfword lane depending on the address's own low bit.
func openBus(addr uint32, w Width) uint32 {
	half := func(a uint32) uint16 {
		return uint16((a >> 1) & 0xffff)
	}
	switch w {
	case Byte:
		h := half(addr)
		if addr&1 == 0 {
			return uint32(byte(h))
		}
		return uint32(byte(h >> 8))
	case Half:
		return uint32(half(addr))
	default:
		lo := uint32(half(addr))
		hi := uint32(half(addr + 2))
		return lo | hi<<16
	}
}

func (b *Bus) accessSRAM(addr uint32, w Width, value uint32, write bool) uint32 {
	if int(addr) >= len(b.SRAM) {
		if write {
			return 0
		}
		return 0xffffffff
	}
	if write {
		b.SRAM[addr] = byte(value)
		return 0
	}
	// SRAM is an 8-bit bus: every lane of a wider read returns the same byte.
	v := uint32(b.SRAM[addr])
	switch w {
	case Half:
		return v | v<<8
	case Word:
		return v | v<<8 | v<<16 | v<<24
	}
	return v
}

// accessSlice performs a little-endian byte-lane read or write against a
// plain backing store, given an already-aligned, already-region-relative
// offset.
func accessSlice(s []byte, offset uint32, w Width, value uint32, write bool) uint32 {
	n := int(w)
	if int(offset)+n > len(s) {
		return 0
	}
	if write {
		for i := 0; i < n; i++ {
			s[int(offset)+i] = byte(value >> (8 * i))
		}
		return 0
	}
	var v uint32
	for i := 0; i < n; i++ {
		v |= uint32(s[int(offset)+i]) << (8 * i)
	}
	return v
}
