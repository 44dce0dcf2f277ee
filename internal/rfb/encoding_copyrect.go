package rfb

// decodeCopyRect reads a source (srcX, srcY) pair and blits the already
// on-screen rectangle from there to the destination, per RFC 6143
// §7.7.2. It never touches the wire pixel format.
func decodeCopyRect(ctx *decodeCtx, rect Rectangle) error {
	data, err := ctx.framer.ReadN(4)
	if err != nil {
		return err
	}
	srcX := int(uint16(data[0])<<8 | uint16(data[1]))
	srcY := int(uint16(data[2])<<8 | uint16(data[3]))
	ctx.fb.CopyRectFrom(srcX, srcY, int(rect.X), int(rect.Y), int(rect.W), int(rect.H))
	return nil
}
