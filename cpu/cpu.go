package cpu

import (
	"github.com/jetsetilly/agb/cpu/registers"
	"github.com/jetsetilly/agb/interrupt"
	"github.com/jetsetilly/agb/logger"
	"github.com/jetsetilly/agb/memory"
)

const (
	vectorUndefined = 0x00000004
	vectorSWI       = 0x00000008
	vectorIRQ       = 0x00000018

	irqEntryCycles = 3
)

// CPU is the ARM7TDMI decode/execute engine: register file, bus, the
// attached interrupt controller it samples between instructions, and an
// optional disassembly sidecar.
type CPU struct {
	Regs      *registers.File
	Bus       *memory.Bus
	Interrupt *interrupt.Controller
	Disasm    Disassembler

	// branched is set by any operation that writes R15; Step consults it to
	// know whether to auto-advance the program counter by the instruction
	// width, matching the "writes to R15 flush" pipeline semantics of
	// spec §4.3.
	branched bool

	// instrPC is the address of the instruction currently being executed,
	// distinct from the operand-read PC (which carries the pipeline
	// offset). Exception entry link values are computed from this.
	instrPC uint32
}

// New returns a CPU wired to the given register file, bus and interrupt
// controller.
func New(regs *registers.File, bus *memory.Bus, ic *interrupt.Controller) *CPU {
	return &CPU{Regs: regs, Bus: bus, Interrupt: ic}
}

// thumb reports whether the CPU is currently in Thumb state.
func (c *CPU) thumb() bool {
	return c.Regs.CPSR().Thumb
}

// pcOperand is the value an instruction sees when it reads R15 as an
// operand: PC+8 in ARM state, PC+4 in Thumb state, per spec §4.3.
func (c *CPU) pcOperand() uint32 {
	if c.thumb() {
		return c.Regs.Read(15) + 4
	}
	return c.Regs.Read(15) + 8
}

// writePC stores v into R15 and marks the pipeline as flushed.
func (c *CPU) writePC(v uint32) {
	if c.thumb() {
		v &^= 1
	} else {
		v &^= 3
	}
	c.Regs.Write(15, v)
	c.branched = true
}

// Step executes exactly one instruction (or takes a pending IRQ) and
// returns the number of cycles consumed.
func (c *CPU) Step() int {
	if c.Interrupt.Pending() && !c.Regs.CPSR().IRQDisable {
		return c.enterIRQ()
	}

	c.branched = false
	pc := c.Regs.Read(15)
	c.instrPC = pc
	c.Bus.SetExecPC(pc)

	if c.thumb() {
		opcode := c.Bus.ReadHalf(pc)
		cycles := c.executeThumb(opcode)
		if !c.branched {
			c.Regs.Write(15, pc+2)
		}
		return cycles
	}

	opcode := c.Bus.ReadWord(pc)
	cond := uint8(opcode >> 28)
	if !c.Regs.CPSR().Condition(cond) {
		c.Regs.Write(15, pc+4)
		return 1
	}
	cycles := c.executeARM(opcode)
	if !c.branched {
		c.Regs.Write(15, pc+4)
	}
	return cycles
}

// enterIRQ performs IRQ exception entry per spec §4.7: the link value is
// the not-yet-incremented PC plus 4, regardless of CPU state.
func (c *CPU) enterIRQ() int {
	pc := c.Regs.Read(15)
	c.Regs.EnterException(registers.IRQ, true, false)
	c.Regs.Write(14, pc+4)
	c.writePC(vectorIRQ)
	return irqEntryCycles
}

// raiseSWI performs SWI exception entry: Supervisor mode, SPSR_svc <-
// outgoing CPSR, R14_svc <- return address, T cleared, I set, PC <-
// 0x00000008.
func (c *CPU) raiseSWI() {
	ret := c.instrPC + c.trapReturnOffset()
	c.Regs.EnterException(registers.Supervisor, true, false)
	c.Regs.Write(14, ret)
	c.writePC(vectorSWI)
}

// raiseUndefined performs Undefined-instruction exception entry,
// analogous to SWI but targeting Undefined mode and vector 0x00000004.
func (c *CPU) raiseUndefined() {
	if c.Bus.Log != nil {
		c.Bus.Log.Logf(logger.Allow, "cpu", "undefined instruction at %#08x", c.instrPC)
	}
	ret := c.instrPC + c.trapReturnOffset()
	c.Regs.EnterException(registers.Undefined, true, false)
	c.Regs.Write(14, ret)
	c.writePC(vectorUndefined)
}

func (c *CPU) trapReturnOffset() uint32 {
	if c.thumb() {
		return 2
	}
	return 4
}

func (c *CPU) disasm(e DisasmEntry) {
	if c.Disasm != nil {
		c.Disasm.Instruction(e)
	}
}
