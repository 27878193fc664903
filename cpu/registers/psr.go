package registers

import "github.com/jetsetilly/agb/bits"

// PSR is a Program Status Register: the four condition flags, the two
// interrupt-disable bits, the Thumb-state bit and the mode field. Both the
// CPSR and each of the five SPSR banks are represented by this type.
type PSR struct {
	Negative bool
	Zero     bool
	Carry    bool
	Overflow bool

	IRQDisable bool
	FIQDisable bool
	Thumb      bool

	Mode Mode
}

// bit positions within the 32-bit encoding, matching the real ARM7TDMI CPSR
// layout.
const (
	bitN = 31
	bitZ = 30
	bitC = 29
	bitV = 28
	bitI = 7
	bitF = 6
	bitT = 5
)

// Encode packs the PSR into its 32-bit hardware representation.
func (p PSR) Encode() uint32 {
	v := uint32(p.Mode) & 0x1f
	v = bits.Put32(v, bitN, p.Negative)
	v = bits.Put32(v, bitZ, p.Zero)
	v = bits.Put32(v, bitC, p.Carry)
	v = bits.Put32(v, bitV, p.Overflow)
	v = bits.Put32(v, bitI, p.IRQDisable)
	v = bits.Put32(v, bitF, p.FIQDisable)
	v = bits.Put32(v, bitT, p.Thumb)
	return v
}

// DecodePSR unpacks a 32-bit hardware PSR value. It does not validate the
// mode field; callers that require a legal mode call CheckMode separately,
// since MRS/transfer instructions are allowed to round-trip an as-yet
// untested value through memory without tripping over it.
func DecodePSR(v uint32) PSR {
	return PSR{
		Negative:   bits.Test32(v, bitN),
		Zero:       bits.Test32(v, bitZ),
		Carry:      bits.Test32(v, bitC),
		Overflow:   bits.Test32(v, bitV),
		IRQDisable: bits.Test32(v, bitI),
		FIQDisable: bits.Test32(v, bitF),
		Thumb:      bits.Test32(v, bitT),
		Mode:       Mode(v & 0x1f),
	}
}

// CheckMode panics (a programming error per spec) if p's mode field is not
// one of the seven legal encodings. Called at the point a PSR write would
// actually take effect (MSR to CPSR, mode-changing exception entry, etc).
func (p PSR) CheckMode() {
	checkMode(p.Mode)
}

// condition codes, in their 4-bit encoded order.
const (
	condEQ = 0x0
	condNE = 0x1
	condCS = 0x2
	condCC = 0x3
	condMI = 0x4
	condPL = 0x5
	condVS = 0x6
	condVC = 0x7
	condHI = 0x8
	condLS = 0x9
	condGE = 0xa
	condLT = 0xb
	condGT = 0xc
	condLE = 0xd
	condAL = 0xe
	condNV = 0xf
)

// Condition evaluates one of the sixteen ARM condition codes against the
// flags currently held by p. Grounded on the condition() switch in the
// teacher's ARM status-register implementation.
func (p PSR) Condition(cond uint8) bool {
	switch cond {
	case condEQ:
		return p.Zero
	case condNE:
		return !p.Zero
	case condCS:
		return p.Carry
	case condCC:
		return !p.Carry
	case condMI:
		return p.Negative
	case condPL:
		return !p.Negative
	case condVS:
		return p.Overflow
	case condVC:
		return !p.Overflow
	case condHI:
		return p.Carry && !p.Zero
	case condLS:
		return !p.Carry || p.Zero
	case condGE:
		return p.Negative == p.Overflow
	case condLT:
		return p.Negative != p.Overflow
	case condGT:
		return !p.Zero && p.Negative == p.Overflow
	case condLE:
		return p.Zero || p.Negative != p.Overflow
	case condAL:
		return true
	case condNV:
		return false
	}
	return false
}

// SetNZ sets the Negative and Zero flags from the result of a data
// processing operation.
func (p *PSR) SetNZ(result uint32) {
	p.Negative = bits.Test32(result, 31)
	p.Zero = result == 0
}

// SetAddCarryOverflow sets Carry and Overflow for a plain two-operand
// addition a+b == result, using the same bit-trick derivations as the
// teacher's status register. Not valid for ADC: a carry-in can make the
// true sum exceed 2^32 even when result >= a, which this formula can't see.
func (p *PSR) SetAddCarryOverflow(a, b, result uint32) {
	p.Carry = result < a
	p.Overflow = (a^result)&(b^result)>>31 == 1
}

// SetSubCarryOverflow sets Carry and Overflow for a plain two-operand
// subtraction a-b == result. On ARM, Carry for subtraction is the logical
// NOT of a borrow. Not valid for SBC/RSC: a borrow-in can make the true
// difference negative even when a >= b, which this formula can't see.
func (p *PSR) SetSubCarryOverflow(a, b, result uint32) {
	p.Carry = a >= b
	p.Overflow = (a^b)&(a^result)>>31 == 1
}

// SetAdcCarryOverflow sets Carry and Overflow for ADC's three-operand
// addition a+b+carryIn == result. Overflow only depends on the operands and
// the final result, so the plain-addition formula still applies; Carry
// needs the wider sum to see a carry-in pushing the total past 2^32 (e.g.
// a==0, b==0xffffffff, carryIn==true must set Carry regardless of a).
func (p *PSR) SetAdcCarryOverflow(a, b uint32, carryIn bool, result uint32) {
	var cin uint64
	if carryIn {
		cin = 1
	}
	p.Carry = uint64(a)+uint64(b)+cin > 0xffffffff
	p.Overflow = (a^result)&(b^result)>>31 == 1
}

// SetSbcCarryOverflow sets Carry and Overflow for SBC/RSC's three-operand
// subtraction a-b-borrowIn == result, where borrowIn is the logical NOT of
// the incoming Carry flag. Overflow only depends on the operands and the
// final result, so the plain-subtraction formula still applies; Carry
// needs the wider difference to see a borrow-in pushing the total negative
// even when a >= b (e.g. a==b, carryIn==false must clear Carry).
func (p *PSR) SetSbcCarryOverflow(a, b uint32, carryIn bool, result uint32) {
	var bin int64
	if !carryIn {
		bin = 1
	}
	p.Carry = int64(a)-int64(b)-bin >= 0
	p.Overflow = (a^b)&(a^result)>>31 == 1
}
