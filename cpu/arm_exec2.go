package cpu

import "github.com/jetsetilly/agb/cpu/registers"

func signExtend(v uint32, bit int) uint32 {
	m := uint32(1) << bit
	return (v ^ m) - m
}

func (c *CPU) armBranch(op uint32) int {
	link := op&(1<<24) != 0
	offset := signExtend(op&0xffffff, 23) << 2
	base := c.Regs.Read(15) + 8
	target := base + offset
	if link {
		c.Regs.Write(14, c.instrPC+4)
	}
	c.writePC(target)
	return 3
}

// transferAddress computes the effective address and any base writeback
// for a single data / halfword transfer instruction, per the four
// addressing-mode combinations (pre/post indexing, up/down).
func (c *CPU) transferAddress(op uint32, rn int, offset uint32) (addr uint32, writeback func()) {
	pre := op&(1<<24) != 0
	up := op&(1<<23) != 0
	writebackBit := op&(1<<21) != 0

	base := c.Regs.Read(rn)
	if rn == 15 {
		base = c.Regs.Read(15) + 8
	}

	var effective uint32
	if up {
		effective = base + offset
	} else {
		effective = base - offset
	}

	if pre {
		addr = effective
		writeback = func() {
			if writebackBit && rn != 15 {
				c.Regs.Write(rn, effective)
			}
		}
	} else {
		addr = base
		writeback = func() {
			if rn != 15 {
				c.Regs.Write(rn, effective)
			}
		}
	}
	return addr, writeback
}

func (c *CPU) armSingleDataTransfer(op uint32) int {
	immediate := op&(1<<25) == 0
	byteAccess := op&(1<<22) != 0
	load := op&(1<<20) != 0
	rn := int(op >> 16 & 0xf)
	rd := int(op >> 12 & 0xf)

	var offset uint32
	if immediate {
		offset = op & 0xfff
	} else {
		rm := int(op & 0xf)
		kind := shiftKind(op >> 5 & 0x3)
		amount := op >> 7 & 0x1f
		offset, _ = shift(kind, c.Regs.Read(rm), amount, c.Regs.CPSR().Carry, false)
	}

	addr, writeback := c.transferAddress(op, rn, offset)

	if load {
		var value uint32
		if byteAccess {
			value = uint32(c.Bus.ReadByte(addr))
		} else {
			raw := c.Bus.ReadWord(addr)
			value = rotateRight(raw, 8*(addr%4))
		}
		writeback()
		if rd == 15 {
			c.writePC(value &^ 3)
		} else {
			c.Regs.Write(rd, value)
		}
	} else {
		var value uint32
		if rd == 15 {
			value = c.instrPC + 12
		} else {
			value = c.Regs.Read(rd)
		}
		if byteAccess {
			c.Bus.WriteByte(addr, byte(value))
		} else {
			c.Bus.WriteWord(addr, value)
		}
		writeback()
	}
	return 3
}

func (c *CPU) armHalfwordTransfer(op uint32) int {
	immediate := op&(1<<22) != 0
	load := op&(1<<20) != 0
	sh := op >> 5 & 0x3
	rn := int(op >> 16 & 0xf)
	rd := int(op >> 12 & 0xf)

	var offset uint32
	if immediate {
		offset = (op>>8&0xf)<<4 | op&0xf
	} else {
		rm := int(op & 0xf)
		offset = c.Regs.Read(rm)
	}

	addr, writeback := c.transferAddress(op, rn, offset)

	if load {
		var value uint32
		switch sh {
		case 0x1: // unsigned halfword
			value = uint32(c.Bus.ReadHalf(addr))
		case 0x2: // signed byte
			value = signExtend(uint32(c.Bus.ReadByte(addr)), 7)
		case 0x3: // signed halfword
			value = signExtend(uint32(c.Bus.ReadHalf(addr)), 15)
		}
		writeback()
		if rd == 15 {
			c.writePC(value)
		} else {
			c.Regs.Write(rd, value)
		}
	} else {
		value := c.Regs.Read(rd)
		if rd == 15 {
			value = c.instrPC + 12
		}
		c.Bus.WriteHalf(addr, uint16(value))
		writeback()
	}
	return 3
}

func (c *CPU) armBlockDataTransfer(op uint32) int {
	pre := op&(1<<24) != 0
	up := op&(1<<23) != 0
	sBit := op&(1<<22) != 0
	writebackBit := op&(1<<21) != 0
	load := op&(1<<20) != 0
	rn := int(op >> 16 & 0xf)
	list := uint16(op & 0xffff)

	count := 0
	for i := 0; i < 16; i++ {
		if list&(1<<i) != 0 {
			count++
		}
	}

	// Registers are always processed in ascending order at ascending
	// addresses (spec §4.3); the four addressing modes only change where
	// that ascending run of addresses starts.
	base := c.Regs.Read(rn)
	var addr uint32
	switch {
	case up && pre: // IB
		addr = base + 4
	case up && !pre: // IA
		addr = base
	case !up && pre: // DB
		addr = base - uint32(count)*4
	default: // DA
		addr = base - uint32(count)*4 + 4
	}

	userBankTransfer := sBit && !(load && list&(1<<15) != 0)

	for i := 0; i < 16; i++ {
		if list&(1<<i) == 0 {
			continue
		}
		if load {
			v := c.Bus.ReadWord(addr)
			if i == 15 {
				if sBit {
					c.Regs.SetCPSR(c.Regs.CurrentSPSR())
				}
				c.writePC(v &^ 3)
			} else if userBankTransfer {
				c.writeUserReg(i, v)
			} else {
				c.Regs.Write(i, v)
			}
		} else {
			var v uint32
			if i == 15 {
				v = c.instrPC + 12
			} else if userBankTransfer {
				v = c.readUserReg(i)
			} else {
				v = c.Regs.Read(i)
			}
			c.Bus.WriteWord(addr, v)
		}
		addr += 4
	}

	if writebackBit {
		var newBase uint32
		if up {
			newBase = base + uint32(count)*4
		} else {
			newBase = base - uint32(count)*4
		}
		c.Regs.Write(rn, newBase)
	}

	return 2 + count
}

// readUserReg/writeUserReg access R8-R14 of the User/System bank even
// when executing from a privileged mode with S-bit LDM/STM, per spec
// §4.3's "user-mode bank access from privileged mode" note.
func (c *CPU) readUserReg(n int) uint32 {
	if n < 8 || n == 15 {
		return c.Regs.Read(n)
	}
	cur := c.Regs.CPSR().Mode
	if cur == registers.User || cur == registers.System {
		return c.Regs.Read(n)
	}
	c.Regs.SetMode(registers.User)
	v := c.Regs.Read(n)
	c.Regs.SetMode(cur)
	return v
}

func (c *CPU) writeUserReg(n int, v uint32) {
	if n < 8 || n == 15 {
		c.Regs.Write(n, v)
		return
	}
	cur := c.Regs.CPSR().Mode
	if cur == registers.User || cur == registers.System {
		c.Regs.Write(n, v)
		return
	}
	c.Regs.SetMode(registers.User)
	c.Regs.Write(n, v)
	c.Regs.SetMode(cur)
}
