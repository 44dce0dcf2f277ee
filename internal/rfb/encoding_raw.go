package rfb

// decodeRaw reads w*h pixels in row-major order, each BytesPerPixel wide,
// per RFC 6143 §7.7.1.
func decodeRaw(ctx *decodeCtx, rect Rectangle) error {
	bpp := ctx.pf.BytesPerPixel()
	rowBytes := int(rect.W) * bpp
	for row := 0; row < int(rect.H); row++ {
		data, err := ctx.framer.ReadN(rowBytes)
		if err != nil {
			return err
		}
		y := int(rect.Y) + row
		for col := 0; col < int(rect.W); col++ {
			px := data[col*bpp : col*bpp+bpp]
			r, g, b := decodePixel(ctx.pf, px)
			ctx.fb.SetPixel(int(rect.X)+col, y, r, g, b)
		}
	}
	return nil
}
