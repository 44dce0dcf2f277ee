package rfb

// decodePseudoCursor reads a hotspot-tagged cursor bitmap: the rectangle
// header's (x, y) is the hotspot and (w, h) is the cursor's own size.
// Body is w*h pixels in the negotiated pixel format followed by a
// row-padded 1-bpp opacity mask, per the "rich-cursor" pseudo-encoding.
func decodePseudoCursor(ctx *decodeCtx, rect Rectangle) error {
	w, h := int(rect.W), int(rect.H)
	cur := &Cursor{Width: w, Height: h, HotX: int(rect.X), HotY: int(rect.Y)}
	if w == 0 || h == 0 {
		if ctx.setCursor != nil {
			ctx.setCursor(cur)
		}
		return nil
	}

	bpp := ctx.pf.BytesPerPixel()
	pixels := make([]byte, w*h*3)
	rowBytes := w * bpp
	for y := 0; y < h; y++ {
		data, err := ctx.framer.ReadN(rowBytes)
		if err != nil {
			return err
		}
		for x := 0; x < w; x++ {
			r, g, b := decodePixel(ctx.pf, data[x*bpp:x*bpp+bpp])
			i := (y*w + x) * 3
			pixels[i], pixels[i+1], pixels[i+2] = r, g, b
		}
	}

	maskRowBytes := (w + 7) / 8
	mask := make([]byte, w*h)
	for y := 0; y < h; y++ {
		row, err := ctx.framer.ReadN(maskRowBytes)
		if err != nil {
			return err
		}
		for x := 0; x < w; x++ {
			bit := row[x/8] & (0x80 >> uint(x%8))
			if bit != 0 {
				mask[y*w+x] = 1
			}
		}
	}

	cur.pixels = pixels
	cur.mask = mask
	if ctx.setCursor != nil {
		ctx.setCursor(cur)
	}
	return nil
}

// decodePseudoDesktopSize has no body; the rectangle's (w, h) is the new
// desktop size and the framebuffer is resized to match (§3: explicit
// resize only, no implicit shrink-on-smaller-rectangle).
func decodePseudoDesktopSize(ctx *decodeCtx, rect Rectangle) error {
	if ctx.resizeFB != nil {
		ctx.resizeFB(int(rect.W), int(rect.H))
	}
	return nil
}

// decodePseudoLastRect has no body; it signals that no further
// rectangles belong to this update even if the server's rectangle count
// claimed otherwise (servers that stream updates of unknown length send
// 0xFFFF rectangles and terminate with this marker).
func decodePseudoLastRect(ctx *decodeCtx, rect Rectangle) error {
	ctx.lastRectSeen = true
	return nil
}

// decodePseudoQEMUExtendedKey has no body; it advertises that the server
// accepts QEMU's extended KeyEvent variant carrying raw keycodes.
func decodePseudoQEMUExtendedKey(ctx *decodeCtx, rect Rectangle) error {
	return nil
}
