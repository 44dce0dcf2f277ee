package rfb

// decodeRRE reads a background pixel fill followed by a list of
// sub-rectangles, each carrying its own pixel value and 16-bit
// x/y/w/h, per RFC 6143 §7.7.3.
func decodeRRE(ctx *decodeCtx, rect Rectangle) error {
	return decodeRRELike(ctx, rect, 2)
}

// decodeCoRRE is RRE with sub-rectangle geometry packed into single
// bytes (max 255x255 per sub-rectangle) instead of uint16s, per RFC 6143
// §7.7.4. The original reference client has a known format-string bug
// in its CoRRE path; it is intentionally not reproduced here.
func decodeCoRRE(ctx *decodeCtx, rect Rectangle) error {
	return decodeRRELike(ctx, rect, 1)
}

// geomWidth is 2 for RRE (uint16 fields) or 1 for CoRRE (byte fields).
func decodeRRELike(ctx *decodeCtx, rect Rectangle, geomWidth int) error {
	bpp := ctx.pf.BytesPerPixel()

	hdr, err := ctx.framer.ReadN(4)
	if err != nil {
		return err
	}
	numSub := int(uint32(hdr[0])<<24 | uint32(hdr[1])<<16 | uint32(hdr[2])<<8 | uint32(hdr[3]))

	bgPx, err := ctx.framer.ReadN(bpp)
	if err != nil {
		return err
	}
	br, bg, bb := decodePixel(ctx.pf, bgPx)
	ctx.fb.Fill(int(rect.X), int(rect.Y), int(rect.W), int(rect.H), br, bg, bb)

	geomBytes := 4 * geomWidth
	for i := 0; i < numSub; i++ {
		px, err := ctx.framer.ReadN(bpp)
		if err != nil {
			return err
		}
		r, g, b := decodePixel(ctx.pf, px)

		geom, err := ctx.framer.ReadN(geomBytes)
		if err != nil {
			return err
		}
		var x, y, w, h int
		if geomWidth == 2 {
			x = int(uint16(geom[0])<<8 | uint16(geom[1]))
			y = int(uint16(geom[2])<<8 | uint16(geom[3]))
			w = int(uint16(geom[4])<<8 | uint16(geom[5]))
			h = int(uint16(geom[6])<<8 | uint16(geom[7]))
		} else {
			x = int(geom[0])
			y = int(geom[1])
			w = int(geom[2])
			h = int(geom[3])
		}
		ctx.fb.Fill(int(rect.X)+x, int(rect.Y)+y, w, h, r, g, b)
	}
	return nil
}
