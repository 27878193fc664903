package lcd

// renderBitmap implements the direct bitmap video modes 3, 4 and 5, all
// presented on BG2.
func (c *Controller) renderBitmap(mode, x, y int) pixel {
	switch mode {
	case 3:
		addr := (y*ScreenWidth + x) * 2
		if addr+1 >= len(c.VRAM) {
			return pixel{}
		}
		color := uint16(c.VRAM[addr]) | uint16(c.VRAM[addr+1])<<8
		return pixel{color: color, priority: int(c.bgcnt[2] & 0x3), layer: 2, opaque: true}

	case 4:
		page := 0
		if c.dispcnt&(1<<4) != 0 {
			page = 0xa000
		}
		addr := page + y*ScreenWidth + x
		if addr >= len(c.VRAM) {
			return pixel{}
		}
		index := int(c.VRAM[addr])
		if index == 0 {
			return pixel{}
		}
		return pixel{color: c.paletteColor(index), priority: int(c.bgcnt[2] & 0x3), layer: 2, opaque: true}

	case 5:
		const w, h = 160, 128
		if x >= w || y >= h {
			return pixel{}
		}
		page := 0
		if c.dispcnt&(1<<4) != 0 {
			page = 0xa000
		}
		addr := page + (y*w+x)*2
		if addr+1 >= len(c.VRAM) {
			return pixel{}
		}
		color := uint16(c.VRAM[addr]) | uint16(c.VRAM[addr+1])<<8
		return pixel{color: color, priority: int(c.bgcnt[2] & 0x3), layer: 2, opaque: true}
	}
	return pixel{}
}
