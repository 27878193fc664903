package cpu

// DisasmEntry is an address/mnemonic/operand triple describing one
// instruction. Grounded on the teacher's disassembly_entry.go DisasmEntry
// type, narrowed to these three fields (a debugger UI is an explicit
// Non-goal).
type DisasmEntry struct {
	Address  uint32
	Mnemonic string
	Operands string
}

// Disassembler is the interface of the CPU's Disasm field. CPU.Step does
// not produce DisasmEntry values, so an attached Disassembler receives no
// calls. It is a pure sidecar: nothing in the executor consults it.
type Disassembler interface {
	Instruction(e DisasmEntry)
}
