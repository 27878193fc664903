package cpu

import "github.com/jetsetilly/agb/cpu/registers"

// executeARM executes one already-condition-passed ARM opcode and returns
// the cycles it consumed.
func (c *CPU) executeARM(op uint32) int {
	switch classifyARM(op) {
	case classBranchExchange:
		return c.armBX(op)
	case classMultiply:
		return c.armMultiply(op)
	case classMultiplyLong:
		return c.armMultiplyLong(op)
	case classSwap:
		return c.armSwap(op)
	case classHalfwordTransfer:
		return c.armHalfwordTransfer(op)
	case classPSRTransferMRS:
		return c.armMRS(op)
	case classPSRTransferMSRReg, classPSRTransferMSRImm:
		return c.armMSR(op)
	case classDataProcessing:
		return c.armDataProcessing(op)
	case classSingleDataTransfer:
		return c.armSingleDataTransfer(op)
	case classBlockDataTransfer:
		return c.armBlockDataTransfer(op)
	case classBranch:
		return c.armBranch(op)
	case classSWI:
		c.raiseSWI()
		return 3
	case classCoprocessor:
		c.raiseUndefined()
		return 3
	default:
		c.raiseUndefined()
		return 3
	}
}

func (c *CPU) armBX(op uint32) int {
	rm := op & 0xf
	target := c.regOperand(int(rm))
	thumb := target&1 != 0
	cpsr := c.Regs.CPSR()
	cpsr.Thumb = thumb
	c.Regs.SetCPSR(cpsr)
	c.writePC(target &^ 1)
	return 2
}

// regOperand reads register n the way an ARM operand read would, applying
// the PC pipeline offset when n==15.
func (c *CPU) regOperand(n int) uint32 {
	if n == 15 {
		return c.pcOperand()
	}
	return c.Regs.Read(n)
}

func (c *CPU) armMultiply(op uint32) int {
	s := op&(1<<20) != 0
	accumulate := op&(1<<21) != 0
	rd := int(op >> 16 & 0xf)
	rn := int(op >> 12 & 0xf)
	rs := int(op >> 8 & 0xf)
	rm := int(op & 0xf)

	result := c.Regs.Read(rm) * c.Regs.Read(rs)
	if accumulate {
		result += c.Regs.Read(rn)
	}
	c.Regs.Write(rd, result)

	if s {
		cpsr := c.Regs.CPSR()
		cpsr.SetNZ(result)
		c.Regs.SetCPSR(cpsr)
	}
	return 2
}

func (c *CPU) armMultiplyLong(op uint32) int {
	signed := op&(1<<22) != 0
	accumulate := op&(1<<21) != 0
	s := op&(1<<20) != 0
	rdHi := int(op >> 16 & 0xf)
	rdLo := int(op >> 12 & 0xf)
	rs := int(op >> 8 & 0xf)
	rm := int(op & 0xf)

	var result uint64
	if signed {
		result = uint64(int64(int32(c.Regs.Read(rm))) * int64(int32(c.Regs.Read(rs))))
	} else {
		result = uint64(c.Regs.Read(rm)) * uint64(c.Regs.Read(rs))
	}
	if accumulate {
		result += uint64(c.Regs.Read(rdHi))<<32 | uint64(c.Regs.Read(rdLo))
	}
	c.Regs.Write(rdLo, uint32(result))
	c.Regs.Write(rdHi, uint32(result>>32))

	if s {
		cpsr := c.Regs.CPSR()
		cpsr.Negative = result>>63 == 1
		cpsr.Zero = result == 0
		c.Regs.SetCPSR(cpsr)
	}
	return 3
}

func (c *CPU) armSwap(op uint32) int {
	byteSwap := op&(1<<22) != 0
	rn := int(op >> 16 & 0xf)
	rd := int(op >> 12 & 0xf)
	rm := int(op & 0xf)

	addr := c.Regs.Read(rn)
	if byteSwap {
		old := c.Bus.ReadByte(addr)
		c.Bus.WriteByte(addr, byte(c.Regs.Read(rm)))
		c.Regs.Write(rd, uint32(old))
	} else {
		old := c.Bus.ReadWord(addr)
		old = rotateRight(old, 8*(addr%4))
		c.Bus.WriteWord(addr, c.Regs.Read(rm))
		c.Regs.Write(rd, old)
	}
	return 4
}

func (c *CPU) armMRS(op uint32) int {
	useSPSR := op&(1<<22) != 0
	rd := int(op >> 12 & 0xf)
	var v uint32
	if useSPSR {
		v = c.Regs.CurrentSPSR().Encode()
	} else {
		v = c.Regs.CPSR().Encode()
	}
	c.Regs.Write(rd, v)
	return 1
}

func (c *CPU) armMSR(op uint32) int {
	useSPSR := op&(1<<22) != 0
	flagsOnly := op&(1<<16) == 0

	var v uint32
	if op&0x02000000 != 0 {
		// immediate operand: 8-bit value rotated right by 2*rotate.
		imm := op & 0xff
		rotate := (op >> 8 & 0xf) * 2
		v = rotateRight(imm, rotate)
	} else {
		rm := int(op & 0xf)
		v = c.Regs.Read(rm)
	}

	if useSPSR {
		cur := c.Regs.CurrentSPSR()
		if flagsOnly {
			cur = registers.DecodePSR(cur.Encode()&0x0fffffff | v&0xf0000000)
		} else {
			cur = registers.DecodePSR(v)
		}
		c.Regs.SetCurrentSPSR(cur)
		return 1
	}

	cur := c.Regs.CPSR()
	if flagsOnly {
		cur = registers.DecodePSR(cur.Encode()&0x0fffffff | v&0xf0000000)
		c.Regs.SetCPSR(cur)
	} else {
		c.Regs.SetCPSR(registers.DecodePSR(v))
	}
	return 1
}

// dpOp identifies one of the sixteen ARM data-processing opcodes.
const (
	dpAND = 0x0
	dpEOR = 0x1
	dpSUB = 0x2
	dpRSB = 0x3
	dpADD = 0x4
	dpADC = 0x5
	dpSBC = 0x6
	dpRSC = 0x7
	dpTST = 0x8
	dpTEQ = 0x9
	dpCMP = 0xa
	dpCMN = 0xb
	dpORR = 0xc
	dpMOV = 0xd
	dpBIC = 0xe
	dpMVN = 0xf
)

func (c *CPU) armDataProcessing(op uint32) int {
	immediate := op&(1<<25) != 0
	opcode := op >> 21 & 0xf
	s := op&(1<<20) != 0
	rn := int(op >> 16 & 0xf)
	rd := int(op >> 12 & 0xf)

	cpsr := c.Regs.CPSR()
	carryIn := cpsr.Carry

	var operand2 uint32
	var shiftCarry bool
	regShift := false

	if immediate {
		imm := op & 0xff
		rotate := (op >> 8 & 0xf) * 2
		operand2 = rotateRight(imm, rotate)
		if rotate == 0 {
			shiftCarry = carryIn
		} else {
			shiftCarry = operand2>>31 == 1
		}
	} else {
		rm := int(op & 0xf)
		kind := shiftKind(op >> 5 & 0x3)
		var amount uint32
		if op&(1<<4) != 0 {
			regShift = true
			rs := int(op >> 8 & 0xf)
			amount = c.Regs.Read(rs) & 0xff
		} else {
			amount = op >> 7 & 0x1f
		}
		value := c.regOperand(rm)
		if regShift && rm == 15 {
			value = c.Regs.Read(15) + 8 // register-shift PC read quirk, still +8 in ARM state
		}
		operand2, shiftCarry = shift(kind, value, amount, carryIn, regShift)
	}

	op1 := c.regOperand(rn)

	var result uint32
	var writesResult = true
	var logical bool

	switch opcode {
	case dpAND:
		result = op1 & operand2
		logical = true
	case dpEOR:
		result = op1 ^ operand2
		logical = true
	case dpSUB:
		result = op1 - operand2
	case dpRSB:
		result = operand2 - op1
	case dpADD:
		result = op1 + operand2
	case dpADC:
		var cin uint32
		if carryIn {
			cin = 1
		}
		result = op1 + operand2 + cin
	case dpSBC:
		var bin uint32
		if !carryIn {
			bin = 1
		}
		result = op1 - operand2 - bin
	case dpRSC:
		var bin uint32
		if !carryIn {
			bin = 1
		}
		result = operand2 - op1 - bin
	case dpTST:
		result = op1 & operand2
		logical = true
		writesResult = false
	case dpTEQ:
		result = op1 ^ operand2
		logical = true
		writesResult = false
	case dpCMP:
		result = op1 - operand2
		writesResult = false
	case dpCMN:
		result = op1 + operand2
		writesResult = false
	case dpORR:
		result = op1 | operand2
		logical = true
	case dpMOV:
		result = operand2
		logical = true
	case dpBIC:
		result = op1 &^ operand2
		logical = true
	case dpMVN:
		result = ^operand2
		logical = true
	}

	if s && rd == 15 && writesResult {
		// restoring CPSR from SPSR is only meaningful for the instructions
		// that actually write Rd; CMP/TST-family never reach here since
		// they don't target Rd.
		c.Regs.SetCPSR(c.Regs.CurrentSPSR())
	} else if s {
		cpsr := c.Regs.CPSR()
		cpsr.SetNZ(result)
		if logical {
			cpsr.Carry = shiftCarry
		} else {
			switch opcode {
			case dpSUB, dpCMP:
				cpsr.SetSubCarryOverflow(op1, operand2, result)
			case dpRSB:
				cpsr.SetSubCarryOverflow(operand2, op1, result)
			case dpADD, dpCMN:
				cpsr.SetAddCarryOverflow(op1, operand2, result)
			case dpADC:
				cpsr.SetAdcCarryOverflow(op1, operand2, carryIn, result)
			case dpSBC:
				cpsr.SetSbcCarryOverflow(op1, operand2, carryIn, result)
			case dpRSC:
				cpsr.SetSbcCarryOverflow(operand2, op1, carryIn, result)
			}
		}
		c.Regs.SetCPSR(cpsr)
	}

	if writesResult {
		if rd == 15 {
			c.writePC(result)
		} else {
			c.Regs.Write(rd, result)
		}
	}

	if regShift {
		return 2
	}
	return 1
}
