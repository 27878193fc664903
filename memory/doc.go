// Package memory implements the GBA address space: region decoding,
// mirroring, byte/halfword/word access with forced alignment, and the I/O
// register dispatch table that routes 0x04000000-0x040003FE accesses to
// the LCD, timer, interrupt, keypad and stub sound/DMA/serial devices.
//
// Grounded on the teacher's region-dispatch shape (hardware/memory/bus and
// cartridge packages route an address to a []byte + origin pair before
// touching it) generalised from the Atari 2600's handful of chip-select
// lines to the GBA's nine-way region decode.
package memory
