package lcd

// renderText implements the text-mode tiled background rendering recipe of
// spec §4.8 step-by-step, for background layer n (0-3).
func (c *Controller) renderText(n int, x, y int) pixel {
	ctrl := decodeBGCNT(c.bgcnt[n])

	sx := (x + int(c.hofs[n])) % 256
	sy := (y + int(c.vofs[n])) % 256
	if sx < 0 {
		sx += 256
	}
	if sy < 0 {
		sy += 256
	}

	tx := sx / 8
	ty := sy / 8
	px := sx % 8
	py := sy % 8

	screenBase := ctrl.screenBase * 0x800
	mapBlock := uint32(0)
	// Screen sizes >0 add extra 32x32 tile screen blocks; 256x256 uses one.
	switch ctrl.screenSize {
	case 1: // 512x256: two screen blocks side by side
		if tx >= 32 {
			mapBlock = 1
			tx -= 32
		}
	case 2: // 256x512: two screen blocks stacked
		if ty >= 32 {
			mapBlock = 1
			ty -= 32
		}
	case 3: // 512x512: four screen blocks
		if tx >= 32 {
			mapBlock += 1
			tx -= 32
		}
		if ty >= 32 {
			mapBlock += 2
			ty -= 32
		}
	}
	mapAddr := screenBase + mapBlock*0x800 + uint32(ty*32+tx)*2
	if int(mapAddr)+1 >= len(c.VRAM) {
		return pixel{}
	}
	entry := uint16(c.VRAM[mapAddr]) | uint16(c.VRAM[mapAddr+1])<<8

	tile := uint32(entry & 0x3ff)
	hflip := entry&(1<<10) != 0
	vflip := entry&(1<<11) != 0
	palBank := uint32((entry >> 12) & 0xf)

	if hflip {
		px = 7 - px
	}
	if vflip {
		py = 7 - py
	}

	charBase := ctrl.charBase * 0x4000

	var index int
	if ctrl.colorMode8bpp {
		addr := charBase + tile*64 + uint32(py*8+px)
		if int(addr) >= len(c.VRAM) {
			return pixel{}
		}
		index = int(c.VRAM[addr])
	} else {
		addr := charBase + tile*32 + uint32(py*4+px/2)
		if int(addr) >= len(c.VRAM) {
			return pixel{}
		}
		b := c.VRAM[addr]
		if px%2 == 0 {
			index = int(b & 0xf)
		} else {
			index = int(b >> 4)
		}
		if index != 0 {
			index += int(palBank) * 16
		}
	}

	if index == 0 {
		return pixel{}
	}

	return pixel{
		color:    c.paletteColor(index),
		priority: int(ctrl.priority),
		layer:    n,
		opaque:   true,
	}
}
