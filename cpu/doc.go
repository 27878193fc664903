// Package cpu implements the ARM7TDMI instruction decoder and executor:
// both the 32-bit ARM and 16-bit Thumb instruction sets, the barrel
// shifter, exception entry (SWI, undefined instruction, IRQ), and the
// disassembly-lite hook used for diagnostics.
//
// Grounded on the teacher's ARM coprocessor emulation
// (hardware/memory/cartridge/arm7tdmi and hardware/memory/cartridge/arm)
// for its overall shape: a decode step that classifies an opcode and
// returns a small decoded-instruction value, an execute step consuming
// it, and a disassembly hook alongside both, generalised from the
// teacher's Thumb-only / Thumb-2-capable coprocessor core to the full
// ARM7TDMI ARM+Thumb instruction set this spec requires.
package cpu
