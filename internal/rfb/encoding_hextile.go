package rfb

const (
	hextileRaw             = 1 << 0
	hextileBGSpecified     = 1 << 1
	hextileFGSpecified     = 1 << 2
	hextileAnySubrects     = 1 << 3
	hextileSubrectsColored = 1 << 4
)

// decodeHextile reads a grid of 16x16 (edge-clipped) tiles, per RFC 6143
// §7.7.5. Background and foreground colors carry forward from tile to
// tile within this one rectangle only; they reset at the top of every
// call, which §4.C scopes to "within one rectangle".
func decodeHextile(ctx *decodeCtx, rect Rectangle) error {
	ctx.hextileBG = [3]uint8{}
	ctx.hextileFG = [3]uint8{}

	bpp := ctx.pf.BytesPerPixel()

	for ty := 0; ty < int(rect.H); ty += 16 {
		th := 16
		if ty+th > int(rect.H) {
			th = int(rect.H) - ty
		}
		for tx := 0; tx < int(rect.W); tx += 16 {
			tw := 16
			if tx+tw > int(rect.W) {
				tw = int(rect.W) - tx
			}

			maskB, err := ctx.framer.ReadByte()
			if err != nil {
				return err
			}
			mask := int(maskB)

			originX := int(rect.X) + tx
			originY := int(rect.Y) + ty

			if mask&hextileRaw != 0 {
				if err := decodeHextileRawTile(ctx, originX, originY, tw, th, bpp); err != nil {
					return err
				}
				continue
			}

			if mask&hextileBGSpecified != 0 {
				px, err := ctx.framer.ReadN(bpp)
				if err != nil {
					return err
				}
				r, g, b := decodePixel(ctx.pf, px)
				ctx.hextileBG = [3]uint8{r, g, b}
			}
			ctx.fb.Fill(originX, originY, tw, th, ctx.hextileBG[0], ctx.hextileBG[1], ctx.hextileBG[2])

			if mask&hextileFGSpecified != 0 {
				px, err := ctx.framer.ReadN(bpp)
				if err != nil {
					return err
				}
				r, g, b := decodePixel(ctx.pf, px)
				ctx.hextileFG = [3]uint8{r, g, b}
			}

			if mask&hextileAnySubrects != 0 {
				countB, err := ctx.framer.ReadByte()
				if err != nil {
					return err
				}
				colored := mask&hextileSubrectsColored != 0

				for i := 0; i < int(countB); i++ {
					r, g, b := ctx.hextileFG[0], ctx.hextileFG[1], ctx.hextileFG[2]
					if colored {
						px, err := ctx.framer.ReadN(bpp)
						if err != nil {
							return err
						}
						r, g, b = decodePixel(ctx.pf, px)
					}
					xy, err := ctx.framer.ReadByte()
					if err != nil {
						return err
					}
					wh, err := ctx.framer.ReadByte()
					if err != nil {
						return err
					}
					sx := int(xy >> 4)
					sy := int(xy & 0x0f)
					sw := int(wh>>4) + 1
					sh := int(wh&0x0f) + 1
					ctx.fb.Fill(originX+sx, originY+sy, sw, sh, r, g, b)
				}
			}
		}
	}
	return nil
}

func decodeHextileRawTile(ctx *decodeCtx, originX, originY, tw, th, bpp int) error {
	rowBytes := tw * bpp
	for row := 0; row < th; row++ {
		data, err := ctx.framer.ReadN(rowBytes)
		if err != nil {
			return err
		}
		for col := 0; col < tw; col++ {
			px := data[col*bpp : col*bpp+bpp]
			r, g, b := decodePixel(ctx.pf, px)
			ctx.fb.SetPixel(originX+col, originY+row, r, g, b)
		}
	}
	return nil
}
