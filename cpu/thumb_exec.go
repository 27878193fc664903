package cpu

// executeThumb executes one Thumb opcode and returns the cycles it
// consumed. Thumb instructions are unconditional except format 16
// (conditional branch); condition checking for that format happens inside
// thumbConditionalBranch itself.
func (c *CPU) executeThumb(op uint16) int {
	switch classifyThumb(op) {
	case thumbMoveShiftedRegister:
		return c.thumbMoveShiftedRegister(op)
	case thumbAddSubtract:
		return c.thumbAddSubtract(op)
	case thumbMovCmpAddSubImm:
		return c.thumbMovCmpAddSubImm(op)
	case thumbALUOperations:
		return c.thumbALUOperations(op)
	case thumbHiRegisterOps:
		return c.thumbHiRegisterOps(op)
	case thumbPCRelativeLoad:
		return c.thumbPCRelativeLoad(op)
	case thumbLoadStoreRegisterOffset:
		return c.thumbLoadStoreRegisterOffset(op)
	case thumbLoadStoreSignExtended:
		return c.thumbLoadStoreSignExtended(op)
	case thumbLoadStoreImmediateOffset:
		return c.thumbLoadStoreImmediateOffset(op)
	case thumbLoadStoreHalfword:
		return c.thumbLoadStoreHalfword(op)
	case thumbSPRelativeLoadStore:
		return c.thumbSPRelativeLoadStore(op)
	case thumbLoadAddress:
		return c.thumbLoadAddress(op)
	case thumbAddOffsetToSP:
		return c.thumbAddOffsetToSP(op)
	case thumbPushPopRegisters:
		return c.thumbPushPopRegisters(op)
	case thumbMultipleLoadStore:
		return c.thumbMultipleLoadStore(op)
	case thumbConditionalBranch:
		return c.thumbConditionalBranch(op)
	case thumbSWI:
		c.raiseSWI()
		return 3
	case thumbUnconditionalBranch:
		return c.thumbUnconditionalBranch(op)
	case thumbLongBranchLink:
		return c.thumbLongBranchLink(op)
	}
	c.raiseUndefined()
	return 3
}

func lowReg(op uint16, shift uint) int {
	return int(op >> shift & 0x7)
}

// thumbMoveShiftedRegister implements format 1: LSL/LSR/ASR Rd, Rs, #offset5.
func (c *CPU) thumbMoveShiftedRegister(op uint16) int {
	kind := shiftKind(op >> 11 & 0x3)
	amount := uint32(op >> 6 & 0x1f)
	rs := lowReg(op, 3)
	rd := lowReg(op, 0)

	cpsr := c.Regs.CPSR()
	result, carry := shiftImmediateAmount(kind, c.Regs.Read(rs), amount, cpsr.Carry)
	c.Regs.Write(rd, result)
	cpsr.SetNZ(result)
	cpsr.Carry = carry
	c.Regs.SetCPSR(cpsr)
	return 1
}

// thumbAddSubtract implements format 2: ADD/SUB Rd, Rs, Rn|#imm3.
func (c *CPU) thumbAddSubtract(op uint16) int {
	imm := op&(1<<10) != 0
	sub := op&(1<<9) != 0
	rs := lowReg(op, 3)
	rd := lowReg(op, 0)

	var operand uint32
	if imm {
		operand = uint32(op >> 6 & 0x7)
	} else {
		operand = c.Regs.Read(lowReg(op, 6))
	}

	op1 := c.Regs.Read(rs)
	cpsr := c.Regs.CPSR()
	var result uint32
	if sub {
		result = op1 - operand
		cpsr.SetSubCarryOverflow(op1, operand, result)
	} else {
		result = op1 + operand
		cpsr.SetAddCarryOverflow(op1, operand, result)
	}
	cpsr.SetNZ(result)
	c.Regs.Write(rd, result)
	c.Regs.SetCPSR(cpsr)
	return 1
}

// thumbMovCmpAddSubImm implements format 3: MOV/CMP/ADD/SUB Rd, #offset8.
func (c *CPU) thumbMovCmpAddSubImm(op uint16) int {
	kind := op >> 11 & 0x3
	rd := lowReg(op, 8)
	imm := uint32(op & 0xff)

	cpsr := c.Regs.CPSR()
	op1 := c.Regs.Read(rd)

	switch kind {
	case 0x0: // MOV
		cpsr.SetNZ(imm)
		c.Regs.Write(rd, imm)
	case 0x1: // CMP
		result := op1 - imm
		cpsr.SetNZ(result)
		cpsr.SetSubCarryOverflow(op1, imm, result)
	case 0x2: // ADD
		result := op1 + imm
		cpsr.SetNZ(result)
		cpsr.SetAddCarryOverflow(op1, imm, result)
		c.Regs.Write(rd, result)
	case 0x3: // SUB
		result := op1 - imm
		cpsr.SetNZ(result)
		cpsr.SetSubCarryOverflow(op1, imm, result)
		c.Regs.Write(rd, result)
	}
	c.Regs.SetCPSR(cpsr)
	return 1
}

// thumbALUOperations implements format 4's sixteen two-operand ALU ops on
// low registers, always updating flags.
func (c *CPU) thumbALUOperations(op uint16) int {
	kind := op >> 6 & 0xf
	rs := lowReg(op, 3)
	rd := lowReg(op, 0)

	cpsr := c.Regs.CPSR()
	op1 := c.Regs.Read(rd)
	op2 := c.Regs.Read(rs)

	var result uint32
	writesResult := true
	cycles := 1

	switch kind {
	case 0x0: // AND
		result = op1 & op2
		cpsr.SetNZ(result)
	case 0x1: // EOR
		result = op1 ^ op2
		cpsr.SetNZ(result)
	case 0x2: // LSL
		result, cpsr.Carry = shiftRegisterAmount(shiftLSL, op1, op2&0xff, cpsr.Carry)
		cpsr.SetNZ(result)
		cycles = 2
	case 0x3: // LSR
		result, cpsr.Carry = shiftRegisterAmount(shiftLSR, op1, op2&0xff, cpsr.Carry)
		cpsr.SetNZ(result)
		cycles = 2
	case 0x4: // ASR
		result, cpsr.Carry = shiftRegisterAmount(shiftASR, op1, op2&0xff, cpsr.Carry)
		cpsr.SetNZ(result)
		cycles = 2
	case 0x5: // ADC
		carryIn := cpsr.Carry
		var cin uint32
		if carryIn {
			cin = 1
		}
		result = op1 + op2 + cin
		cpsr.SetNZ(result)
		cpsr.SetAdcCarryOverflow(op1, op2, carryIn, result)
	case 0x6: // SBC
		carryIn := cpsr.Carry
		var bin uint32
		if !carryIn {
			bin = 1
		}
		result = op1 - op2 - bin
		cpsr.SetNZ(result)
		cpsr.SetSbcCarryOverflow(op1, op2, carryIn, result)
	case 0x7: // ROR
		result, cpsr.Carry = shiftRegisterAmount(shiftROR, op1, op2&0xff, cpsr.Carry)
		cpsr.SetNZ(result)
		cycles = 2
	case 0x8: // TST
		result = op1 & op2
		cpsr.SetNZ(result)
		writesResult = false
	case 0x9: // NEG
		result = 0 - op2
		cpsr.SetNZ(result)
		cpsr.SetSubCarryOverflow(0, op2, result)
	case 0xa: // CMP
		result = op1 - op2
		cpsr.SetNZ(result)
		cpsr.SetSubCarryOverflow(op1, op2, result)
		writesResult = false
	case 0xb: // CMN
		result = op1 + op2
		cpsr.SetNZ(result)
		cpsr.SetAddCarryOverflow(op1, op2, result)
		writesResult = false
	case 0xc: // ORR
		result = op1 | op2
		cpsr.SetNZ(result)
	case 0xd: // MUL
		result = op1 * op2
		cpsr.SetNZ(result)
		cycles = 4
	case 0xe: // BIC
		result = op1 &^ op2
		cpsr.SetNZ(result)
	case 0xf: // MVN
		result = ^op2
		cpsr.SetNZ(result)
	}

	if writesResult {
		c.Regs.Write(rd, result)
	}
	c.Regs.SetCPSR(cpsr)
	return cycles
}

// thumbHiRegisterOps implements format 5: the only Thumb format that can
// touch R8-R15. ADD/MOV never update flags; CMP always does; BX switches
// instruction state from the target address's bit 0.
func (c *CPU) thumbHiRegisterOps(op uint16) int {
	kind := op >> 8 & 0x3
	h1 := op&(1<<7) != 0
	h2 := op&(1<<6) != 0
	rs := lowReg(op, 3)
	rd := lowReg(op, 0)
	if h2 {
		rs += 8
	}
	if h1 {
		rd += 8
	}

	switch kind {
	case 0x0: // ADD
		result := c.regOperand(rd) + c.regOperand(rs)
		if rd == 15 {
			c.writePC(result &^ 1)
		} else {
			c.Regs.Write(rd, result)
		}
	case 0x1: // CMP
		op1 := c.regOperand(rd)
		op2 := c.regOperand(rs)
		result := op1 - op2
		cpsr := c.Regs.CPSR()
		cpsr.SetNZ(result)
		cpsr.SetSubCarryOverflow(op1, op2, result)
		c.Regs.SetCPSR(cpsr)
	case 0x2: // MOV
		value := c.regOperand(rs)
		if rd == 15 {
			c.writePC(value &^ 1)
		} else {
			c.Regs.Write(rd, value)
		}
	case 0x3: // BX
		target := c.regOperand(rs)
		thumb := target&1 != 0
		cpsr := c.Regs.CPSR()
		cpsr.Thumb = thumb
		c.Regs.SetCPSR(cpsr)
		c.writePC(target &^ 1)
	}
	return 2
}

// thumbPCRelativeLoad implements format 6: LDR Rd, [PC, #word8].
func (c *CPU) thumbPCRelativeLoad(op uint16) int {
	rd := lowReg(op, 8)
	word8 := uint32(op & 0xff)
	base := (c.Regs.Read(15) + 4) &^ 3
	value := c.Bus.ReadWord(base + word8*4)
	c.Regs.Write(rd, value)
	return 3
}

// thumbLoadStoreRegisterOffset implements format 7: LDR/STR{B} Rd, [Rb, Ro].
func (c *CPU) thumbLoadStoreRegisterOffset(op uint16) int {
	load := op&(1<<11) != 0
	byteAccess := op&(1<<10) != 0
	ro := lowReg(op, 6)
	rb := lowReg(op, 3)
	rd := lowReg(op, 0)

	addr := c.Regs.Read(rb) + c.Regs.Read(ro)
	if load {
		if byteAccess {
			c.Regs.Write(rd, uint32(c.Bus.ReadByte(addr)))
		} else {
			raw := c.Bus.ReadWord(addr)
			c.Regs.Write(rd, rotateRight(raw, 8*(addr%4)))
		}
	} else {
		if byteAccess {
			c.Bus.WriteByte(addr, byte(c.Regs.Read(rd)))
		} else {
			c.Bus.WriteWord(addr, c.Regs.Read(rd))
		}
	}
	return 3
}

// thumbLoadStoreSignExtended implements format 8: STRH/LDRH/LDSB/LDSH.
func (c *CPU) thumbLoadStoreSignExtended(op uint16) int {
	h := op&(1<<11) != 0
	s := op&(1<<10) != 0
	ro := lowReg(op, 6)
	rb := lowReg(op, 3)
	rd := lowReg(op, 0)

	addr := c.Regs.Read(rb) + c.Regs.Read(ro)
	switch {
	case !s && !h: // STRH
		c.Bus.WriteHalf(addr, uint16(c.Regs.Read(rd)))
	case !s && h: // LDRH
		c.Regs.Write(rd, uint32(c.Bus.ReadHalf(addr)))
	case s && !h: // LDSB
		c.Regs.Write(rd, signExtend(uint32(c.Bus.ReadByte(addr)), 7))
	case s && h: // LDSH
		c.Regs.Write(rd, signExtend(uint32(c.Bus.ReadHalf(addr)), 15))
	}
	return 3
}

// thumbLoadStoreImmediateOffset implements format 9: LDR/STR{B} Rd, [Rb, #imm].
func (c *CPU) thumbLoadStoreImmediateOffset(op uint16) int {
	byteAccess := op&(1<<12) != 0
	load := op&(1<<11) != 0
	offset5 := uint32(op >> 6 & 0x1f)
	rb := lowReg(op, 3)
	rd := lowReg(op, 0)

	var addr uint32
	if byteAccess {
		addr = c.Regs.Read(rb) + offset5
	} else {
		addr = c.Regs.Read(rb) + offset5*4
	}

	if load {
		if byteAccess {
			c.Regs.Write(rd, uint32(c.Bus.ReadByte(addr)))
		} else {
			raw := c.Bus.ReadWord(addr)
			c.Regs.Write(rd, rotateRight(raw, 8*(addr%4)))
		}
	} else {
		if byteAccess {
			c.Bus.WriteByte(addr, byte(c.Regs.Read(rd)))
		} else {
			c.Bus.WriteWord(addr, c.Regs.Read(rd))
		}
	}
	return 3
}

// thumbLoadStoreHalfword implements format 10: LDRH/STRH Rd, [Rb, #imm5*2].
func (c *CPU) thumbLoadStoreHalfword(op uint16) int {
	load := op&(1<<11) != 0
	offset5 := uint32(op >> 6 & 0x1f)
	rb := lowReg(op, 3)
	rd := lowReg(op, 0)

	addr := c.Regs.Read(rb) + offset5*2
	if load {
		c.Regs.Write(rd, uint32(c.Bus.ReadHalf(addr)))
	} else {
		c.Bus.WriteHalf(addr, uint16(c.Regs.Read(rd)))
	}
	return 3
}

// thumbSPRelativeLoadStore implements format 11: LDR/STR Rd, [SP, #word8].
func (c *CPU) thumbSPRelativeLoadStore(op uint16) int {
	load := op&(1<<11) != 0
	rd := lowReg(op, 8)
	word8 := uint32(op & 0xff)

	addr := c.Regs.Read(13) + word8*4
	if load {
		raw := c.Bus.ReadWord(addr)
		c.Regs.Write(rd, rotateRight(raw, 8*(addr%4)))
	} else {
		c.Bus.WriteWord(addr, c.Regs.Read(rd))
	}
	return 3
}

// thumbLoadAddress implements format 12: ADD Rd, PC|SP, #word8.
func (c *CPU) thumbLoadAddress(op uint16) int {
	usesSP := op&(1<<11) != 0
	rd := lowReg(op, 8)
	word8 := uint32(op & 0xff)

	var base uint32
	if usesSP {
		base = c.Regs.Read(13)
	} else {
		base = (c.Regs.Read(15) + 4) &^ 3
	}
	c.Regs.Write(rd, base+word8*4)
	return 1
}

// thumbAddOffsetToSP implements format 13: ADD SP, #+/-SWord7*4.
func (c *CPU) thumbAddOffsetToSP(op uint16) int {
	negative := op&(1<<7) != 0
	offset := uint32(op&0x7f) * 4
	sp := c.Regs.Read(13)
	if negative {
		c.Regs.Write(13, sp-offset)
	} else {
		c.Regs.Write(13, sp+offset)
	}
	return 1
}

// thumbPushPopRegisters implements format 14: PUSH/POP {Rlist, LR/PC}.
func (c *CPU) thumbPushPopRegisters(op uint16) int {
	pop := op&(1<<11) != 0
	includeExtra := op&(1<<8) != 0
	rlist := uint8(op & 0xff)

	count := 0
	for i := 0; i < 8; i++ {
		if rlist&(1<<i) != 0 {
			count++
		}
	}
	if includeExtra {
		count++
	}

	sp := c.Regs.Read(13)
	if pop {
		addr := sp
		for i := 0; i < 8; i++ {
			if rlist&(1<<i) != 0 {
				c.Regs.Write(i, c.Bus.ReadWord(addr))
				addr += 4
			}
		}
		if includeExtra {
			c.writePC(c.Bus.ReadWord(addr) &^ 1)
			addr += 4
		}
		c.Regs.Write(13, addr)
	} else {
		addr := sp - uint32(count)*4
		c.Regs.Write(13, addr)
		for i := 0; i < 8; i++ {
			if rlist&(1<<i) != 0 {
				c.Bus.WriteWord(addr, c.Regs.Read(i))
				addr += 4
			}
		}
		if includeExtra {
			c.Bus.WriteWord(addr, c.Regs.Read(14))
		}
	}
	return 2 + count
}

// thumbMultipleLoadStore implements format 15: LDMIA/STMIA Rb!, {Rlist}.
func (c *CPU) thumbMultipleLoadStore(op uint16) int {
	load := op&(1<<11) != 0
	rb := lowReg(op, 8)
	rlist := uint8(op & 0xff)

	count := 0
	for i := 0; i < 8; i++ {
		if rlist&(1<<i) != 0 {
			count++
		}
	}

	addr := c.Regs.Read(rb)
	for i := 0; i < 8; i++ {
		if rlist&(1<<i) == 0 {
			continue
		}
		if load {
			c.Regs.Write(i, c.Bus.ReadWord(addr))
		} else {
			c.Bus.WriteWord(addr, c.Regs.Read(i))
		}
		addr += 4
	}
	c.Regs.Write(rb, addr)
	return 2 + count
}

// thumbConditionalBranch implements format 16: Bcond label. Condition code
// 0xf (already carved out as SWI) cannot reach here; 0xe is undefined.
func (c *CPU) thumbConditionalBranch(op uint16) int {
	cond := uint8(op >> 8 & 0xf)
	if cond == 0xe {
		c.raiseUndefined()
		return 3
	}
	if !c.Regs.CPSR().Condition(cond) {
		return 1
	}
	offset := signExtend(uint32(op&0xff), 7) << 1
	c.writePC(c.Regs.Read(15) + 4 + offset)
	return 3
}

// thumbUnconditionalBranch implements format 18: B label.
func (c *CPU) thumbUnconditionalBranch(op uint16) int {
	offset := signExtend(uint32(op&0x7ff), 10) << 1
	c.writePC(c.Regs.Read(15) + 4 + offset)
	return 3
}

// thumbLongBranchLink implements format 19's two-halfword BL sequence. The
// first halfword (H=0) stashes PC+4+(offsetHigh<<12) into LR; the second
// (H=1) computes the branch target from LR and writes the return address,
// with bit 0 set, back into LR.
func (c *CPU) thumbLongBranchLink(op uint16) int {
	high := op&(1<<11) != 0
	offset := uint32(op & 0x7ff)

	if !high {
		ext := signExtend(offset, 10) << 12
		c.Regs.Write(14, c.Regs.Read(15)+4+ext)
		return 1
	}

	next := c.instrPC + 2
	target := c.Regs.Read(14) + offset<<1
	c.Regs.Write(14, next|1)
	c.writePC(target)
	return 3
}
