// Package lcd implements the GBA LCD controller: the per-dot scanline
// state machine, VBlank/HBlank/VCount IRQ requests, and the five-layer
// (BG0-BG3 + OBJ) composition pipeline.
//
// Grounded on original_source/emu/src/cpu/hardware/lcd/layers/*.rs for the
// "one file per layer, closed variant set" shape the Design Notes call
// for: layer_text.go, layer_affine.go, layer_bitmap.go and obj.go each
// implement one rendering recipe, dispatched by an explicit switch in
// Controller.renderPixel rather than an interface hierarchy.
package lcd

import (
	"encoding/binary"

	"github.com/jetsetilly/agb/curated"
	"github.com/jetsetilly/agb/interrupt"
)

const (
	dotsPerScanline = 308
	drawDots        = 240
	visibleLines    = 160
	totalLines      = 228

	// ScreenWidth and ScreenHeight are the visible framebuffer dimensions.
	ScreenWidth  = 240
	ScreenHeight = 160
)

// registers bit layout, relative to the I/O window base 0x04000000.
const (
	regDISPCNT = 0x000
	regDISPSTAT = 0x004
	regVCOUNT  = 0x006
	regBG0CNT  = 0x008
	regBG1CNT  = 0x00a
	regBG2CNT  = 0x00c
	regBG3CNT  = 0x00e
	regBG0HOFS = 0x010
	regBG0VOFS = 0x012
	regBG1HOFS = 0x014
	regBG1VOFS = 0x016
	regBG2HOFS = 0x018
	regBG2VOFS = 0x01a
	regBG3HOFS = 0x01c
	regBG3VOFS = 0x01e
	regBG2PA   = 0x020
	regBG2PB   = 0x022
	regBG2PC   = 0x024
	regBG2PD   = 0x026
	regBG2X    = 0x028
	regBG2Y    = 0x02c
	regBG3PA   = 0x030
	regBG3PB   = 0x032
	regBG3PC   = 0x034
	regBG3PD   = 0x036
	regBG3X    = 0x038
	regBG3Y    = 0x03c
)

// DISPSTAT bit positions.
const (
	statVBlank       = 1 << 0
	statHBlank       = 1 << 1
	statVCounter     = 1 << 2
	statVBlankIRQEn  = 1 << 3
	statHBlankIRQEn  = 1 << 4
	statVCounterIRQEn = 1 << 5
)

// bgControl mirrors one BGxCNT register's decoded fields.
type bgControl struct {
	priority     uint16
	charBase     uint32 // in 16KiB units
	mosaic       bool
	colorMode8bpp bool
	screenBase   uint32 // in 2KiB units
	wrap         bool   // affine display area overflow behaviour
	screenSize   uint16
}

func decodeBGCNT(v uint16) bgControl {
	return bgControl{
		priority:      v & 0x3,
		charBase:      uint32((v >> 2) & 0x3),
		mosaic:        v&(1<<6) != 0,
		colorMode8bpp: v&(1<<7) != 0,
		screenBase:    uint32((v >> 8) & 0x1f),
		wrap:          v&(1<<13) != 0,
		screenSize:    (v >> 14) & 0x3,
	}
}

// affineParams mirrors one BGxX/Y + PA..PD register group.
type affineParams struct {
	pa, pb, pc, pd int32 // 8.8 fixed point
	x, y           int32 // 19.8 fixed point reference point
}

// Controller owns video memory and the scanline state machine.
type Controller struct {
	VRAM    []byte
	OAM     []byte
	Palette []byte

	Interrupt *interrupt.Controller

	dispcnt uint16
	dispstat uint16
	lyc     uint16 // unused; the VCount-match setting is read from dispstat bits 8-15

	bgcnt [4]uint16
	hofs  [4]uint16
	vofs  [4]uint16
	affine [2]affineParams // indices 0,1 correspond to BG2,BG3

	pixelIndex int
	vcount     int

	framebuffer [ScreenHeight][ScreenWidth]uint16

	// oamSnapshot is taken at the start of each visible scanline per the
	// spec's "snapshot OAM for this scanline" transition, so sprite
	// rendering for a line is stable even if the guest writes OAM mid-line.
	oamSnapshot [1024]byte
}

// NewController allocates a Controller with its own VRAM/OAM/Palette
// backing stores, shared by reference with the memory bus.
func NewController(ic *interrupt.Controller) *Controller {
	return &Controller{
		VRAM:      make([]byte, 0x18000),
		OAM:       make([]byte, 0x400),
		Palette:   make([]byte, 0x400),
		Interrupt: ic,
	}
}

// Framebuffer returns the current frame's pixel buffer, RGB555-encoded.
func (c *Controller) Framebuffer() *[ScreenHeight][ScreenWidth]uint16 {
	return &c.framebuffer
}

// VCount returns the current scanline number.
func (c *Controller) VCount() int { return c.vcount }

// Step advances the LCD state machine by exactly one dot cycle, per
// spec §4.8.
func (c *Controller) Step() {
	switch {
	case c.vcount < visibleLines && c.pixelIndex == 0:
		c.dispstat &^= statHBlank | statVBlank
	case c.vcount < visibleLines && c.pixelIndex == drawDots:
		c.dispstat |= statHBlank
		if c.dispstat&statHBlankIRQEn != 0 {
			c.Interrupt.Raise(interrupt.HBlank)
		}
	case c.vcount == visibleLines && c.pixelIndex == 0:
		c.dispstat |= statVBlank
		if c.dispstat&statVBlankIRQEn != 0 {
			c.Interrupt.Raise(interrupt.VBlank)
		}
	}

	if c.vcount < visibleLines && c.pixelIndex == 0 {
		copy(c.oamSnapshot[:], c.OAM)
	}

	if c.vcount < visibleLines && c.pixelIndex < drawDots {
		c.renderPixel(c.pixelIndex, c.vcount)
	}

	c.pixelIndex++
	if c.pixelIndex == dotsPerScanline {
		c.pixelIndex = 0
		c.vcount++
		if c.vcount == totalLines {
			c.vcount = 0
		}

		lycMatch := uint16(c.vcount) == (c.dispstat>>8)&0xff
		if lycMatch {
			c.dispstat |= statVCounter
			if c.dispstat&statVCounterIRQEn != 0 {
				c.Interrupt.Raise(interrupt.VCount)
			}
		} else {
			c.dispstat &^= statVCounter
		}
	}
}

// pixel is one candidate for composition: a colour plus the priority and
// layer-number tie-break used to pick the winner.
type pixel struct {
	color    uint16
	priority int
	layer    int
	opaque   bool
}

func (c *Controller) renderPixel(x, y int) {
	mode := c.dispcnt & 0x7
	best := pixel{}
	have := false

	tryLayer := func(p pixel) {
		if !p.opaque {
			return
		}
		if !have || p.priority < best.priority || (p.priority == best.priority && p.layer < best.layer) {
			best = p
			have = true
		}
	}

	bgEnabled := func(n int) bool { return c.dispcnt&(1<<(8+n)) != 0 }

	switch mode {
	case 0:
		for n := 0; n < 4; n++ {
			if bgEnabled(n) {
				tryLayer(c.renderText(n, x, y))
			}
		}
	case 1:
		if bgEnabled(0) {
			tryLayer(c.renderText(0, x, y))
		}
		if bgEnabled(1) {
			tryLayer(c.renderText(1, x, y))
		}
		if bgEnabled(2) {
			tryLayer(c.renderAffine(2, x, y))
		}
	case 2:
		if bgEnabled(2) {
			tryLayer(c.renderAffine(2, x, y))
		}
		if bgEnabled(3) {
			tryLayer(c.renderAffine(3, x, y))
		}
	case 3, 4, 5:
		if bgEnabled(2) {
			tryLayer(c.renderBitmap(int(mode), x, y))
		}
	}

	if c.dispcnt&(1<<12) != 0 {
		tryLayer(c.renderOBJ(x, y))
	}

	if have {
		c.framebuffer[y][x] = best.color
	} else {
		c.framebuffer[y][x] = c.backdrop()
	}
}

func (c *Controller) backdrop() uint16 {
	return uint16(c.Palette[0]) | uint16(c.Palette[1])<<8
}

func (c *Controller) paletteColor(base int) uint16 {
	if base*2+1 >= len(c.Palette) {
		return 0
	}
	return uint16(c.Palette[base*2]) | uint16(c.Palette[base*2+1])<<8
}

const (
	offDISPCNT = 0x00
)

// ReadByte reads one byte of the 0x000-0x05F LCD register window.
func (c *Controller) ReadByte(offset uint32) uint8 {
	switch {
	case offset == regDISPCNT:
		return byte(c.dispcnt)
	case offset == regDISPCNT+1:
		return byte(c.dispcnt >> 8)
	case offset == regDISPSTAT:
		return byte(c.dispstat)
	case offset == regDISPSTAT+1:
		return byte(c.dispstat >> 8)
	case offset == regVCOUNT:
		return byte(c.vcount)
	case offset == regVCOUNT+1:
		return 0
	case offset >= regBG0CNT && offset < regBG0CNT+8:
		return readReg16(c.bgcnt[:], offset-regBG0CNT)
	case offset >= regBG0HOFS && offset < regBG0HOFS+16:
		return c.readScrollByte(offset)
	case offset >= regBG2PA && offset < regBG2PA+16:
		return c.readAffineByte(0, offset-regBG2PA)
	case offset >= regBG3PA && offset < regBG3PA+16:
		return c.readAffineByte(1, offset-regBG3PA)
	}
	return 0
}

// WriteByte writes one byte of the 0x000-0x05F LCD register window.
func (c *Controller) WriteByte(offset uint32, v uint8) {
	switch {
	case offset == regDISPCNT:
		c.dispcnt = c.dispcnt&0xff00 | uint16(v)
	case offset == regDISPCNT+1:
		c.dispcnt = c.dispcnt&0x00ff | uint16(v)<<8
	case offset == regDISPSTAT:
		// bits 0-2 are read-only status; only bits 3-7 (including the
		// IRQ enable bits 3-5) are writable here. The LYC setting is the
		// high byte, written below.
		c.dispstat = c.dispstat&0xfff8 | uint16(v)&0xf8
	case offset == regDISPSTAT+1:
		c.dispstat = c.dispstat&0x00ff | uint16(v)<<8
	case offset >= regBG0CNT && offset < regBG0CNT+8:
		writeReg16(c.bgcnt[:], offset-regBG0CNT, v)
	case offset >= regBG0HOFS && offset < regBG0HOFS+16:
		c.writeScrollByte(offset, v)
	case offset >= regBG2PA && offset < regBG2PA+16:
		c.writeAffineByte(0, offset-regBG2PA, v)
	case offset >= regBG3PA && offset < regBG3PA+16:
		c.writeAffineByte(1, offset-regBG3PA, v)
	}
}

func readReg16(regs []uint16, rel uint32) uint8 {
	idx := rel / 2
	if int(idx) >= len(regs) {
		return 0
	}
	if rel%2 == 0 {
		return byte(regs[idx])
	}
	return byte(regs[idx] >> 8)
}

func writeReg16(regs []uint16, rel uint32, v uint8) {
	idx := rel / 2
	if int(idx) >= len(regs) {
		return
	}
	if rel%2 == 0 {
		regs[idx] = regs[idx]&0xff00 | uint16(v)
	} else {
		regs[idx] = regs[idx]&0x00ff | uint16(v)<<8
	}
}

func (c *Controller) readScrollByte(offset uint32) uint8 {
	rel := offset - regBG0HOFS
	n := rel / 4
	if rel%4 < 2 {
		return readReg16(c.hofs[:], n*2+rel%2)
	}
	return readReg16(c.vofs[:], n*2+(rel-2)%2)
}

func (c *Controller) writeScrollByte(offset uint32, v uint8) {
	rel := offset - regBG0HOFS
	n := rel / 4
	if rel%4 < 2 {
		writeReg16(c.hofs[:], n*2+rel%2, v)
	} else {
		writeReg16(c.vofs[:], n*2+(rel-2)%2, v)
	}
}

func (c *Controller) readAffineByte(idx int, rel uint32) uint8 {
	a := &c.affine[idx]
	switch {
	case rel < 2:
		return byte(int16(a.pa) >> (8 * rel))
	case rel < 4:
		return byte(int16(a.pb) >> (8 * (rel - 2)))
	case rel < 6:
		return byte(int16(a.pc) >> (8 * (rel - 4)))
	case rel < 8:
		return byte(int16(a.pd) >> (8 * (rel - 6)))
	case rel < 12:
		return byte(a.x >> (8 * (rel - 8)))
	default:
		return byte(a.y >> (8 * (rel - 12)))
	}
}

func (c *Controller) writeAffineByte(idx int, rel uint32, v uint8) {
	a := &c.affine[idx]
	set16 := func(cur int32, rel uint32, v uint8) int32 {
		u := uint16(cur)
		if rel == 0 {
			u = u&0xff00 | uint16(v)
		} else {
			u = u&0x00ff | uint16(v)<<8
		}
		return int32(int16(u))
	}
	set32 := func(cur int32, rel uint32, v uint8) int32 {
		u := uint32(cur)
		shift := 8 * rel
		u = u&^(0xff << shift) | uint32(v)<<shift
		// sign-extend from bit 27 (19.8 fixed point reference value is 28 bits)
		if u&(1<<27) != 0 {
			return int32(u | 0xf0000000)
		}
		return int32(u &^ 0xf0000000)
	}
	switch {
	case rel < 2:
		a.pa = set16(a.pa, rel, v)
	case rel < 4:
		a.pb = set16(a.pb, rel-2, v)
	case rel < 6:
		a.pc = set16(a.pc, rel-4, v)
	case rel < 8:
		a.pd = set16(a.pd, rel-6, v)
	case rel < 12:
		a.x = set32(a.x, rel-8, v)
	default:
		a.y = set32(a.y, rel-12, v)
	}
}

// registerSnapshotSize is the byte count of the register/counter portion
// of a Controller snapshot, ahead of the raw VRAM/OAM/Palette dumps.
const registerSnapshotSize = 2 + 2 + 4*2 + 4*2 + 4*2 + 2*(4*4+2*4) + 4 + 4

// Snapshot encodes the controller's registers, scanline counters and the
// video memory it owns (VRAM, OAM, palette RAM) as a flat byte record.
func (c *Controller) Snapshot() []byte {
	out := make([]byte, 0, registerSnapshotSize+len(c.VRAM)+len(c.OAM)+len(c.Palette))
	put16 := func(v uint16) {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], v)
		out = append(out, b[:]...)
	}
	put32 := func(v int32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		out = append(out, b[:]...)
	}

	put16(c.dispcnt)
	put16(c.dispstat)
	for _, v := range c.bgcnt {
		put16(v)
	}
	for _, v := range c.hofs {
		put16(v)
	}
	for _, v := range c.vofs {
		put16(v)
	}
	for _, a := range c.affine {
		put32(a.pa)
		put32(a.pb)
		put32(a.pc)
		put32(a.pd)
		put32(a.x)
		put32(a.y)
	}
	put32(int32(c.pixelIndex))
	put32(int32(c.vcount))

	out = append(out, c.VRAM...)
	out = append(out, c.OAM...)
	out = append(out, c.Palette...)
	return out
}

// Restore replaces the controller's registers, counters and video memory
// contents from a record produced by Snapshot, rejecting records whose
// length does not match this controller's VRAM/OAM/Palette sizes.
func (c *Controller) Restore(data []byte) error {
	want := registerSnapshotSize + len(c.VRAM) + len(c.OAM) + len(c.Palette)
	if len(data) != want {
		return curated.Errorf("lcd: snapshot record is %d bytes, want %d", len(data), want)
	}

	get16 := func() uint16 {
		v := binary.LittleEndian.Uint16(data[:2])
		data = data[2:]
		return v
	}
	get32 := func() int32 {
		v := int32(binary.LittleEndian.Uint32(data[:4]))
		data = data[4:]
		return v
	}

	c.dispcnt = get16()
	c.dispstat = get16()
	for i := range c.bgcnt {
		c.bgcnt[i] = get16()
	}
	for i := range c.hofs {
		c.hofs[i] = get16()
	}
	for i := range c.vofs {
		c.vofs[i] = get16()
	}
	for i := range c.affine {
		c.affine[i].pa = get32()
		c.affine[i].pb = get32()
		c.affine[i].pc = get32()
		c.affine[i].pd = get32()
		c.affine[i].x = get32()
		c.affine[i].y = get32()
	}
	c.pixelIndex = int(get32())
	c.vcount = int(get32())

	copy(c.VRAM, data[:len(c.VRAM)])
	data = data[len(c.VRAM):]
	copy(c.OAM, data[:len(c.OAM)])
	data = data[len(c.OAM):]
	copy(c.Palette, data[:len(c.Palette)])
	return nil
}
