// Package bits provides branchless bit, field and byte access on 16- and
// 32-bit words. It underlies the register file, the PSR, the barrel
// shifter and the memory subsystem, all of which need the same small set
// of operations: test/set/clear/toggle a single bit, extract or replace a
// contiguous field, and pick apart a word into its constituent bytes.
package bits
