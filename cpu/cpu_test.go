package cpu_test

import (
	"testing"

	"github.com/jetsetilly/agb/cpu"
	"github.com/jetsetilly/agb/cpu/registers"
	"github.com/jetsetilly/agb/interrupt"
	"github.com/jetsetilly/agb/keypad"
	"github.com/jetsetilly/agb/lcd"
	"github.com/jetsetilly/agb/logger"
	"github.com/jetsetilly/agb/memory"
	"github.com/jetsetilly/agb/timer"
)

const loadAddr = 0x02000000 // EWRAM, freely writable and executable from the bus's perspective

func newHarness() (*cpu.CPU, *registers.File, *memory.Bus) {
	bios := make([]byte, 0x4000)
	rom := make([]byte, 0x1000)
	ic := interrupt.NewController()
	lcdCtl := lcd.NewController(ic)
	timers := timer.NewBank(ic)
	kp := keypad.NewDevice()
	log := logger.NewLogger(64)
	bus := memory.NewBus(bios, rom, lcdCtl, timers, ic, kp, log)
	regs := registers.NewFile()
	regs.SetMode(registers.User)
	regs.Write(15, loadAddr)
	c := cpu.New(regs, bus, ic)
	return c, regs, bus
}

// TestARMBranch exercises a forward B instruction and confirms PC lands at
// the target with the pipeline correctly refilled (no double-advance).
func TestARMBranch(t *testing.T) {
	c, regs, bus := newHarness()
	// B +8 (word-aligned): cond=AL, 101, L=0, offset=2 (in words, +8 pipeline bias already folded in by hardware encoding: target = PC+8+offset<<2)
	bus.WriteWord(loadAddr, 0xea000000|2)
	c.Step()
	want := uint32(loadAddr) + 8 + 2*4
	if got := regs.Read(15); got != want {
		t.Fatalf("PC after branch = %#08x, want %#08x", got, want)
	}
}

// TestARMMovImmediateSetsFlags exercises MOVS Rd, #0 and confirms the Z
// flag is set from the moved value, per spec's data-processing flag rules.
func TestARMMovImmediateSetsFlags(t *testing.T) {
	c, regs, bus := newHarness()
	// MOVS R0, #0: cond=AL, 00, I=1, opcode=1101 (MOV), S=1, Rn=0000, Rd=0000, rot=0000, imm=0x00
	bus.WriteWord(loadAddr, 0xe3b00000)
	c.Step()
	if got := regs.Read(0); got != 0 {
		t.Fatalf("R0 = %#x, want 0", got)
	}
	if !regs.CPSR().Zero {
		t.Fatal("Z flag should be set after MOVS R0, #0")
	}
}

// TestARMByteLoadWithPCBase exercises LDRB Rd, [PC, #imm] and confirms the
// PC-relative base uses the PC+8 operand value per spec §4.3.
func TestARMByteLoadWithPCBase(t *testing.T) {
	c, regs, bus := newHarness()
	// LDRB R0, [PC, #4]: cond=AL, 01, I=0, P=1, U=1, B=1, W=0, L=1, Rn=15, Rd=0, imm12=4
	bus.WriteWord(loadAddr, 0xe5df0004)
	bus.WriteByte(loadAddr+8+4, 0x7a)
	c.Step()
	if got := regs.Read(0); got != 0x7a {
		t.Fatalf("R0 = %#x, want 0x7a", got)
	}
}

// TestARMWordStoreWithPCBase exercises STR Rd, [PC, #imm] and confirms the
// stored value lands at the PC+8-relative address.
func TestARMWordStoreWithPCBase(t *testing.T) {
	c, regs, bus := newHarness()
	regs.Write(0, 0xcafebabe)
	// STR R0, [PC, #16]: cond=AL, 01, I=0, P=1, U=1, B=0, W=0, L=0, Rn=15, Rd=0, imm12=16
	bus.WriteWord(loadAddr, 0xe58f0010)
	c.Step()
	if got := bus.ReadWord(loadAddr + 8 + 16); got != 0xcafebabe {
		t.Fatalf("stored word = %#08x, want 0xcafebabe", got)
	}
}

// TestModeSwitchRoundTrip enters IRQ mode through the register file's
// EnterException and returns by restoring the saved CPSR, confirming that
// a value written to the IRQ-banked R13 does not leak into User mode's R13.
func TestModeSwitchRoundTrip(t *testing.T) {
	_, regs, bus := newHarness()
	regs.SetMode(registers.User)
	regs.Write(15, loadAddr)
	regs.SetCPSR(registers.PSR{Mode: registers.User, Zero: true})

	// A NOP-ish MOV R1,R1 is placed at loadAddr, but Step is not called;
	// only a direct mode excursion and return is checked to preserve
	// User-mode register state.
	bus.WriteWord(loadAddr, 0xe1a01001) // MOV R1, R1
	before := regs.Read(13)
	old := regs.EnterException(registers.IRQ, true, false)
	regs.Write(13, 0xdeadbeef)
	regs.SetCPSR(old)
	if got := regs.Read(13); got != before {
		t.Fatalf("R13 after returning to User = %#x, want %#x (IRQ banked R13 must not leak)", got, before)
	}
}

// TestARMAdcCarryInRegardlessOfOp1 exercises ADCS where the carry-in alone
// pushes the true sum past 2^32, even though op1==0 would never carry out
// of a plain two-operand addition. This is the exact scenario the flag
// computation previously got wrong.
func TestARMAdcCarryInRegardlessOfOp1(t *testing.T) {
	c, regs, bus := newHarness()
	regs.Write(1, 0)
	regs.Write(2, 0xffffffff)
	cpsr := regs.CPSR()
	cpsr.Carry = true
	regs.SetCPSR(cpsr)
	// ADCS R0, R1, R2
	bus.WriteWord(loadAddr, 0xe0b10002)
	c.Step()
	if got := regs.Read(0); got != 0 {
		t.Fatalf("R0 = %#x, want 0", got)
	}
	if !regs.CPSR().Carry {
		t.Fatal("ADCS 0+0xffffffff+1 must set Carry even though op1==0")
	}
	if regs.CPSR().Overflow {
		t.Fatal("this ADCS should not set Overflow")
	}
}

// TestARMSbcBorrowInClearsCarryEvenWhenOperandsEqual exercises SBCS where a
// borrow-in (Carry clear before the instruction) makes a==b still borrow,
// even though a plain two-operand subtraction of equal operands never
// would.
func TestARMSbcBorrowInClearsCarryEvenWhenOperandsEqual(t *testing.T) {
	c, regs, bus := newHarness()
	regs.Write(1, 5)
	regs.Write(2, 5)
	cpsr := regs.CPSR()
	cpsr.Carry = false
	regs.SetCPSR(cpsr)
	// SBCS R0, R1, R2
	bus.WriteWord(loadAddr, 0xe0d10002)
	c.Step()
	if got := regs.Read(0); got != 0xffffffff {
		t.Fatalf("R0 = %#x, want 0xffffffff", got)
	}
	if regs.CPSR().Carry {
		t.Fatal("SBCS 5-5-1(borrow-in) must clear Carry")
	}
}

// TestARMRscBorrowIn exercises RSCS (reverse subtract with carry), swapping
// the same borrow-in scenario onto operand2-op1 to confirm the flag fix
// also covers RSC's reversed operand order.
func TestARMRscBorrowIn(t *testing.T) {
	c, regs, bus := newHarness()
	regs.Write(1, 5)
	regs.Write(2, 5)
	cpsr := regs.CPSR()
	cpsr.Carry = false
	regs.SetCPSR(cpsr)
	// RSCS R0, R1, R2: Rd = R2 - R1 - borrow
	bus.WriteWord(loadAddr, 0xe0f10002)
	c.Step()
	if got := regs.Read(0); got != 0xffffffff {
		t.Fatalf("R0 = %#x, want 0xffffffff", got)
	}
	if regs.CPSR().Carry {
		t.Fatal("RSCS 5-5-1(borrow-in) must clear Carry")
	}
}

// TestThumbAdcCarryInRegardlessOfOp1 exercises Thumb Format 4 ADC, the
// same carry-in scenario as the ARM test above, confirming the Thumb
// execution path shares the fixed flag computation rather than its own
// copy of the old bug.
func TestThumbAdcCarryInRegardlessOfOp1(t *testing.T) {
	c, regs, bus := newHarness()
	regs.SetCPSR(registers.PSR{Mode: registers.User, Thumb: true, Carry: true})
	regs.Write(15, loadAddr)
	regs.Write(0, 0)
	regs.Write(1, 0xffffffff)
	// ADC R0, R1: 010000 0101 001 000
	bus.WriteHalf(loadAddr, 0x4148)
	c.Step()
	if got := regs.Read(0); got != 0 {
		t.Fatalf("R0 = %#x, want 0", got)
	}
	if !regs.CPSR().Carry {
		t.Fatal("Thumb ADC 0+0xffffffff+1 must set Carry even though R0==0")
	}
}

// TestThumbSbcBorrowInClearsCarryEvenWhenOperandsEqual exercises Thumb
// Format 4 SBC's borrow-in scenario, mirroring the ARM SBCS test.
func TestThumbSbcBorrowInClearsCarryEvenWhenOperandsEqual(t *testing.T) {
	c, regs, bus := newHarness()
	regs.SetCPSR(registers.PSR{Mode: registers.User, Thumb: true, Carry: false})
	regs.Write(15, loadAddr)
	regs.Write(0, 5)
	regs.Write(1, 5)
	// SBC R0, R1: 010000 0110 001 000
	bus.WriteHalf(loadAddr, 0x4188)
	c.Step()
	if got := regs.Read(0); got != 0xffffffff {
		t.Fatalf("R0 = %#x, want 0xffffffff", got)
	}
	if regs.CPSR().Carry {
		t.Fatal("Thumb SBC 5-5-1(borrow-in) must clear Carry")
	}
}

// TestThumbMovImmediateSetsFlags exercises the Thumb Format 3 MOV
// immediate and confirms it behaves like its ARM counterpart.
func TestThumbMovImmediateSetsFlags(t *testing.T) {
	c, regs, bus := newHarness()
	regs.SetCPSR(registers.PSR{Mode: registers.User, Thumb: true})
	regs.Write(15, loadAddr)
	// MOV R0, #0: 001 00 000 00000000
	bus.WriteHalf(loadAddr, 0x2000)
	c.Step()
	if got := regs.Read(0); got != 0 {
		t.Fatalf("R0 = %#x, want 0", got)
	}
	if !regs.CPSR().Zero {
		t.Fatal("Z flag should be set after Thumb MOV R0, #0")
	}
	if got := regs.Read(15); got != loadAddr+2 {
		t.Fatalf("PC after Thumb MOV = %#08x, want %#08x", got, loadAddr+2)
	}
}

// TestThumbUnconditionalBranch exercises Format 18's signed 11-bit branch
// offset, confirming the target is PC+4+offset<<1 in Thumb state.
func TestThumbUnconditionalBranch(t *testing.T) {
	c, regs, bus := newHarness()
	regs.SetCPSR(registers.PSR{Mode: registers.User, Thumb: true})
	regs.Write(15, loadAddr)
	// B #4 (in halfwords: offset11=2): 11100 00000000010
	bus.WriteHalf(loadAddr, 0xe002)
	c.Step()
	want := uint32(loadAddr) + 4 + 2*2
	if got := regs.Read(15); got != want {
		t.Fatalf("PC after Thumb B = %#08x, want %#08x", got, want)
	}
}

// TestThumbLongBranchLink exercises the two-halfword BL sequence and
// confirms LR ends up pointing at the halfword after the second half.
func TestThumbLongBranchLink(t *testing.T) {
	c, regs, bus := newHarness()
	regs.SetCPSR(registers.PSR{Mode: registers.User, Thumb: true})
	regs.Write(15, loadAddr)
	// BL target = loadAddr+4+0x100 (arbitrary forward offset).
	offset := int32(0x100)
	hi := uint16(0xf000) | uint16((offset>>12)&0x7ff)
	lo := uint16(0xf800) | uint16((offset>>1)&0x7ff)
	bus.WriteHalf(loadAddr, hi)
	bus.WriteHalf(loadAddr+2, lo)

	c.Step() // first half: stashes partial LR
	c.Step() // second half: computes target, sets LR

	wantPC := uint32(loadAddr) + 4 + uint32(offset)
	if got := regs.Read(15); got != wantPC {
		t.Fatalf("PC after BL = %#08x, want %#08x", got, wantPC)
	}
	wantLR := uint32(loadAddr+2+2) | 1
	if got := regs.Read(14); got != wantLR {
		t.Fatalf("LR after BL = %#08x, want %#08x", got, wantLR)
	}
}
