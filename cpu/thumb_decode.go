package cpu

// thumbFormat identifies one of the nineteen Thumb instruction formats of
// spec §4.4. Mask values are grounded directly on the teacher's
// decodeThumb dispatch chain (hardware/memory/cartridge/arm/thumb.go),
// which works backwards up the ARM7TDMI Data Sheet's instruction format
// figure.
type thumbFormat int

const (
	thumbMoveShiftedRegister thumbFormat = iota
	thumbAddSubtract
	thumbMovCmpAddSubImm
	thumbALUOperations
	thumbHiRegisterOps
	thumbPCRelativeLoad
	thumbLoadStoreRegisterOffset
	thumbLoadStoreSignExtended
	thumbLoadStoreImmediateOffset
	thumbLoadStoreHalfword
	thumbSPRelativeLoadStore
	thumbLoadAddress
	thumbAddOffsetToSP
	thumbPushPopRegisters
	thumbMultipleLoadStore
	thumbConditionalBranch
	thumbSWI
	thumbUnconditionalBranch
	thumbLongBranchLink
)

func classifyThumb(op uint16) thumbFormat {
	switch {
	case op&0xf000 == 0xf000:
		return thumbLongBranchLink
	case op&0xf000 == 0xe000:
		return thumbUnconditionalBranch
	case op&0xff00 == 0xdf00:
		return thumbSWI
	case op&0xf000 == 0xd000:
		return thumbConditionalBranch
	case op&0xf000 == 0xc000:
		return thumbMultipleLoadStore
	case op&0xf600 == 0xb400:
		return thumbPushPopRegisters
	case op&0xff00 == 0xb000:
		return thumbAddOffsetToSP
	case op&0xf000 == 0xa000:
		return thumbLoadAddress
	case op&0xf000 == 0x9000:
		return thumbSPRelativeLoadStore
	case op&0xf000 == 0x8000:
		return thumbLoadStoreHalfword
	case op&0xe000 == 0x6000:
		return thumbLoadStoreImmediateOffset
	case op&0xf200 == 0x5200:
		return thumbLoadStoreSignExtended
	case op&0xf200 == 0x5000:
		return thumbLoadStoreRegisterOffset
	case op&0xf800 == 0x4800:
		return thumbPCRelativeLoad
	case op&0xfc00 == 0x4400:
		return thumbHiRegisterOps
	case op&0xfc00 == 0x4000:
		return thumbALUOperations
	case op&0xe000 == 0x2000:
		return thumbMovCmpAddSubImm
	case op&0xf800 == 0x1800:
		return thumbAddSubtract
	default:
		return thumbMoveShiftedRegister
	}
}
