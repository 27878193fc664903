package registers

import (
	"encoding/binary"

	"github.com/jetsetilly/agb/curated"
)

// SnapshotSize is the fixed length of the byte record Snapshot produces:
// 16 general registers + CPSR + the FIQ/non-FIQ R8-R12 bank + the six
// R13/R14 banks + the five SPSR banks, all as 4-byte words.
const SnapshotSize = (16 + 1 + 2*5 + int(numBanks)*2 + int(numBanks)) * 4

// NoSPSR is reported when CurrentSPSR/SetCurrentSPSR is called while the
// CPSR is in User or System mode, neither of which owns an SPSR bank.
const NoSPSR = "registers: mode %s has no SPSR"

// File is the ARM7TDMI register file: R0-R15, the CPSR, and the banked
// storage that backs R8-R14 and the five SPSRs across mode changes.
//
// r holds the sixteen registers as currently visible to the executing
// mode. The banked-out values of every other mode live in r8to12 (FIQ vs
// everyone else) and r13r14/spsr (indexed by bank). SetMode swaps the
// relevant slices in and out; Read/Write never need to know the current
// mode.
type File struct {
	r [16]uint32

	r8to12 [2][5]uint32   // index 0: shared (non-FIQ); index 1: FIQ
	r13r14 [numBanks][2]uint32
	spsr   [numBanks]PSR

	cpsr PSR
}

// NewFile returns a register file reset to ARM7TDMI power-on state: CPSR in
// Supervisor mode with IRQ and FIQ disabled, PC at zero.
func NewFile() *File {
	f := &File{}
	f.cpsr = PSR{Mode: Supervisor, IRQDisable: true, FIQDisable: true}
	return f
}

func fiqIndex(m Mode) int {
	if m == FIQ {
		return 1
	}
	return 0
}

// Read returns the raw value of Rn. For n==15 this is the raw stored
// program counter; any pipeline-offset adjustment for an operand read is
// the caller's responsibility, since only the executor knows whether it is
// mid-ARM-fetch or mid-Thumb-fetch.
func (f *File) Read(n int) uint32 {
	return f.r[n]
}

// Write stores v into Rn. Writing R15 does not itself flush the pipeline;
// the executor must detect writes to the program counter and trigger a
// refill.
func (f *File) Write(n int, v uint32) {
	f.r[n] = v
}

// CPSR returns the current program status register.
func (f *File) CPSR() PSR {
	return f.cpsr
}

// SetCPSR replaces the current program status register wholesale,
// including a mode change and its associated bank swap if the mode field
// differs from the current one. Panics if the new mode field is illegal.
func (f *File) SetCPSR(p PSR) {
	p.CheckMode()
	if p.Mode != f.cpsr.Mode {
		f.switchBanks(f.cpsr.Mode, p.Mode)
	}
	f.cpsr = p
}

// SetMode changes only the mode field of the CPSR, performing the bank
// swap described in the package doc. The flag bits and Thumb state are
// left untouched.
func (f *File) SetMode(m Mode) {
	checkMode(m)
	if m == f.cpsr.Mode {
		return
	}
	f.switchBanks(f.cpsr.Mode, m)
	f.cpsr.Mode = m
}

// switchBanks saves the outgoing mode's banked registers and loads the
// incoming mode's, without touching f.cpsr.Mode itself.
func (f *File) switchBanks(from, to Mode) {
	oldFiq := fiqIndex(from)
	newFiq := fiqIndex(to)
	if oldFiq != newFiq {
		copy(f.r8to12[oldFiq][:], f.r[8:13])
		copy(f.r[8:13], f.r8to12[newFiq][:])
	}

	oldBank := bankOf(from)
	newBank := bankOf(to)
	if oldBank != newBank {
		f.r13r14[oldBank][0] = f.r[13]
		f.r13r14[oldBank][1] = f.r[14]
		f.r[13] = f.r13r14[newBank][0]
		f.r[14] = f.r13r14[newBank][1]
	}
}

// CurrentSPSR returns the SPSR belonging to the current mode. Panics if
// the current mode is User or System.
func (f *File) CurrentSPSR() PSR {
	if !hasSPSR(f.cpsr.Mode) {
		panic(curated.Errorf(NoSPSR, f.cpsr.Mode))
	}
	return f.spsr[bankOf(f.cpsr.Mode)]
}

// SetCurrentSPSR replaces the SPSR belonging to the current mode. Panics
// if the current mode is User or System.
func (f *File) SetCurrentSPSR(p PSR) {
	if !hasSPSR(f.cpsr.Mode) {
		panic(curated.Errorf(NoSPSR, f.cpsr.Mode))
	}
	f.spsr[bankOf(f.cpsr.Mode)] = p
}

// EnterException moves the CPU into the given mode, stashes the current
// CPSR into the new mode's SPSR, sets the interrupt disable bits the
// exception type requires, and clears Thumb. It returns the outgoing
// CPSR so the caller can compute the correct link-register value.
func (f *File) EnterException(dest Mode, disableIRQ, disableFIQ bool) PSR {
	old := f.cpsr
	f.SetMode(dest)
	f.spsr[bankOf(dest)] = old
	f.cpsr.Thumb = false
	if disableIRQ {
		f.cpsr.IRQDisable = true
	}
	if disableFIQ {
		f.cpsr.FIQDisable = true
	}
	return old
}

// Snapshot encodes the complete register file - the visible registers, the
// CPSR and every banked-out value - as a flat little-endian byte record,
// for the core's persisted-state layout.
func (f *File) Snapshot() []byte {
	out := make([]byte, 0, SnapshotSize)
	put := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		out = append(out, b[:]...)
	}

	for _, v := range f.r {
		put(v)
	}
	put(f.cpsr.Encode())
	for _, bank := range f.r8to12 {
		for _, v := range bank {
			put(v)
		}
	}
	for _, bank := range f.r13r14 {
		put(bank[0])
		put(bank[1])
	}
	for _, p := range f.spsr {
		put(p.Encode())
	}
	return out
}

// Restore replaces the register file's state with a record previously
// produced by Snapshot. It rejects records of the wrong length rather
// than partially applying them.
func (f *File) Restore(data []byte) error {
	if len(data) != SnapshotSize {
		return curated.Errorf("registers: snapshot record is %d bytes, want %d", len(data), SnapshotSize)
	}
	get := func() uint32 {
		v := binary.LittleEndian.Uint32(data[:4])
		data = data[4:]
		return v
	}

	var n File
	for i := range n.r {
		n.r[i] = get()
	}
	n.cpsr = DecodePSR(get())
	for i := range n.r8to12 {
		for j := range n.r8to12[i] {
			n.r8to12[i][j] = get()
		}
	}
	for i := range n.r13r14 {
		n.r13r14[i][0] = get()
		n.r13r14[i][1] = get()
	}
	for i := range n.spsr {
		n.spsr[i] = DecodePSR(get())
	}
	*f = n
	return nil
}
