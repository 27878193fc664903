package cpu

// shiftKind identifies one of the four barrel shifter operations.
type shiftKind uint8

const (
	shiftLSL shiftKind = iota
	shiftLSR
	shiftASR
	shiftROR
)

// shift runs the barrel shifter: value shifted by kind/amount, with
// carryIn supplying the rotate-through-carry input for RRX and the
// unchanged-carry cases. fromRegister distinguishes an immediate shift
// amount (which encodes #32 as 0 for LSR/ASR, and ROR #0 as RRX) from a
// register-supplied shift amount (which has none of those special
// encodings - a literal 0 truly means "no shift").
//
// Every edge case here is named explicitly in spec §4.3's barrel shifter
// table.
func shift(kind shiftKind, value uint32, amount uint32, carryIn bool, fromRegister bool) (result uint32, carryOut bool) {
	if fromRegister {
		return shiftRegisterAmount(kind, value, amount, carryIn)
	}
	return shiftImmediateAmount(kind, value, amount, carryIn)
}

func shiftImmediateAmount(kind shiftKind, value uint32, amount uint32, carryIn bool) (uint32, bool) {
	switch kind {
	case shiftLSL:
		switch {
		case amount == 0:
			return value, carryIn
		case amount < 32:
			return value << amount, (value>>(32-amount))&1 == 1
		default:
			return 0, false
		}
	case shiftLSR:
		// immediate form encodes a literal 0 as "shift by 32".
		if amount == 0 {
			amount = 32
		}
		switch {
		case amount == 32:
			return 0, value>>31 == 1
		case amount < 32:
			return value >> amount, (value>>(amount-1))&1 == 1
		default:
			return 0, false
		}
	case shiftASR:
		if amount == 0 {
			amount = 32
		}
		signed := int32(value)
		switch {
		case amount >= 32:
			if signed < 0 {
				return 0xffffffff, true
			}
			return 0, false
		default:
			return uint32(signed >> amount), (value>>(amount-1))&1 == 1
		}
	case shiftROR:
		if amount == 0 {
			// ROR #0 in the immediate encoding means RRX: a 33-bit
			// rotate right through the carry flag.
			var c uint32
			if carryIn {
				c = 1
			}
			return (c << 31) | (value >> 1), value&1 == 1
		}
		amount %= 32
		if amount == 0 {
			return value, value>>31 == 1
		}
		return rotateRight(value, amount), (value>>(amount-1))&1 == 1
	}
	return value, carryIn
}

func shiftRegisterAmount(kind shiftKind, value uint32, amount uint32, carryIn bool) (uint32, bool) {
	if amount == 0 {
		// a register-supplied shift amount of literal zero leaves both
		// the operand and the carry flag untouched.
		return value, carryIn
	}
	switch kind {
	case shiftLSL:
		switch {
		case amount < 32:
			return value << amount, (value>>(32-amount))&1 == 1
		case amount == 32:
			return 0, value&1 == 1
		default:
			return 0, false
		}
	case shiftLSR:
		switch {
		case amount < 32:
			return value >> amount, (value>>(amount-1))&1 == 1
		case amount == 32:
			return 0, value>>31 == 1
		default:
			return 0, false
		}
	case shiftASR:
		signed := int32(value)
		if amount >= 32 {
			if signed < 0 {
				return 0xffffffff, true
			}
			return 0, false
		}
		return uint32(signed >> amount), (value>>(amount-1))&1 == 1
	case shiftROR:
		amount %= 32
		if amount == 0 {
			return value, value>>31 == 1
		}
		return rotateRight(value, amount), (value>>(amount-1))&1 == 1
	}
	return value, carryIn
}

func rotateRight(v uint32, n uint32) uint32 {
	n %= 32
	if n == 0 {
		return v
	}
	return (v >> n) | (v << (32 - n))
}
