package rfb

import "compress/zlib"

const zrleTile = 64

// cpixelFormat returns the format CPIXEL values are packed in: when the
// wire format is 32bpp with depth <= 24, the unused high byte is dropped
// and only 3 bytes travel per pixel (RFC 6143 §7.7.6). The canonical
// rgbx32/bgrx32 shuffles this client negotiates both keep their color
// shifts within the low 24 bits, so a 24-bit view of the same format
// decodes CPIXEL bytes correctly.
func cpixelFormat(pf PixelFormat) PixelFormat {
	if pf.BPP == 32 && pf.Depth <= 24 {
		cp := pf
		cp.BPP = 24
		return cp
	}
	return pf
}

// decodeZRLE reads a length-prefixed chunk of zlib-compressed tile data.
// The zlib stream is shared across the whole session (§5: "must never
// reset mid-session"), so ctx.zrle.reader is created once and fed new
// compressed bytes via ctx.zrle.chunk before every rectangle.
func decodeZRLE(ctx *decodeCtx, rect Rectangle) error {
	lenBuf, err := ctx.framer.ReadN(4)
	if err != nil {
		return err
	}
	length := int(uint32(lenBuf[0])<<24 | uint32(lenBuf[1])<<16 | uint32(lenBuf[2])<<8 | uint32(lenBuf[3]))

	compressed, err := ctx.framer.ReadN(length)
	if err != nil {
		return err
	}

	if ctx.zrle == nil {
		ctx.zrle = newZRLEState()
	}
	ctx.zrle.chunk.buf = compressed
	if ctx.zrle.reader == nil {
		zr, err := zlib.NewReader(ctx.zrle.chunk)
		if err != nil {
			return protocolErrorf("zrle: zlib header: %v", err)
		}
		ctx.zrle.reader = zr
	}

	cpf := cpixelFormat(ctx.pf)
	cbpp := cpf.BytesPerPixel()

	for ty := 0; ty < int(rect.H); ty += zrleTile {
		th := zrleTile
		if ty+th > int(rect.H) {
			th = int(rect.H) - ty
		}
		for tx := 0; tx < int(rect.W); tx += zrleTile {
			tw := zrleTile
			if tx+tw > int(rect.W) {
				tw = int(rect.W) - tx
			}
			originX := int(rect.X) + tx
			originY := int(rect.Y) + ty
			if err := decodeZRLETile(ctx, cpf, cbpp, originX, originY, tw, th); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeZRLETile(ctx *decodeCtx, cpf PixelFormat, cbpp, originX, originY, tw, th int) error {
	sub, err := readByteFrom(ctx.zrle.reader)
	if err != nil {
		return protocolErrorf("zrle: tile subencoding: %v", err)
	}

	switch {
	case sub == 0: // Raw
		px := make([]byte, cbpp)
		for y := 0; y < th; y++ {
			for x := 0; x < tw; x++ {
				if err := readFullFrom(ctx.zrle.reader, px); err != nil {
					return protocolErrorf("zrle: raw pixel: %v", err)
				}
				r, g, b := decodePixel(cpf, px)
				ctx.fb.SetPixel(originX+x, originY+y, r, g, b)
			}
		}
		return nil

	case sub == 1: // Solid
		px := make([]byte, cbpp)
		if err := readFullFrom(ctx.zrle.reader, px); err != nil {
			return protocolErrorf("zrle: solid pixel: %v", err)
		}
		r, g, b := decodePixel(cpf, px)
		ctx.fb.Fill(originX, originY, tw, th, r, g, b)
		return nil

	case sub >= 2 && sub <= 16: // Packed palette
		palette, err := readPalette(ctx.zrle.reader, cpf, cbpp, int(sub))
		if err != nil {
			return err
		}
		bits := packedIndexBits(int(sub))
		rowBytes := (tw*bits + 7) / 8
		row := make([]byte, rowBytes)
		for y := 0; y < th; y++ {
			if err := readFullFrom(ctx.zrle.reader, row); err != nil {
				return protocolErrorf("zrle: packed palette row: %v", err)
			}
			for x := 0; x < tw; x++ {
				idx := unpackIndex(row, x, bits)
				c := palette[idx]
				ctx.fb.SetPixel(originX+x, originY+y, c[0], c[1], c[2])
			}
		}
		return nil

	case sub == 128: // Plain RLE
		return decodeZRLEPlainRLE(ctx, cpf, cbpp, originX, originY, tw, th)

	case sub >= 130: // Palette RLE
		paletteLen := int(sub) - 128
		palette, err := readPalette(ctx.zrle.reader, cpf, cbpp, paletteLen)
		if err != nil {
			return err
		}
		return decodeZRLEPaletteRLE(ctx, palette, originX, originY, tw, th)

	default:
		return protocolErrorf("zrle: unsupported tile subencoding %d", sub)
	}
}

func decodeZRLEPlainRLE(ctx *decodeCtx, cpf PixelFormat, cbpp, originX, originY, tw, th int) error {
	total := tw * th
	px := make([]byte, cbpp)
	x, y := 0, 0
	for total > 0 {
		if err := readFullFrom(ctx.zrle.reader, px); err != nil {
			return protocolErrorf("zrle: rle pixel: %v", err)
		}
		r, g, b := decodePixel(cpf, px)
		runLen, err := readRunLength(ctx.zrle.reader)
		if err != nil {
			return err
		}
		for i := 0; i < runLen; i++ {
			ctx.fb.SetPixel(originX+x, originY+y, r, g, b)
			x++
			if x == tw {
				x = 0
				y++
			}
		}
		total -= runLen
	}
	return nil
}

func decodeZRLEPaletteRLE(ctx *decodeCtx, palette [][3]uint8, originX, originY, tw, th int) error {
	total := tw * th
	x, y := 0, 0
	for total > 0 {
		idxByte, err := readByteFrom(ctx.zrle.reader)
		if err != nil {
			return protocolErrorf("zrle: palette rle index: %v", err)
		}
		runLen := 1
		idx := int(idxByte)
		if idxByte >= 128 {
			idx = int(idxByte) - 128
			runLen, err = readRunLength(ctx.zrle.reader)
			if err != nil {
				return err
			}
		}
		c := palette[idx]
		for i := 0; i < runLen; i++ {
			ctx.fb.SetPixel(originX+x, originY+y, c[0], c[1], c[2])
			x++
			if x == tw {
				x = 0
				y++
			}
		}
		total -= runLen
	}
	return nil
}

// readRunLength reads the continuation-coded run length used by both RLE
// variants: 255 means "add 255 and read another byte", any other value
// terminates with runLength = 1 + sum of all bytes read.
func readRunLength(r zlibReader) (int, error) {
	total := 1
	for {
		b, err := readByteFrom(r)
		if err != nil {
			return 0, protocolErrorf("zrle: run length: %v", err)
		}
		total += int(b)
		if b != 255 {
			break
		}
	}
	return total, nil
}

func readPalette(r zlibReader, cpf PixelFormat, cbpp, n int) ([][3]uint8, error) {
	palette := make([][3]uint8, n)
	px := make([]byte, cbpp)
	for i := 0; i < n; i++ {
		if err := readFullFrom(r, px); err != nil {
			return nil, protocolErrorf("zrle: palette entry: %v", err)
		}
		r8, g8, b8 := decodePixel(cpf, px)
		palette[i] = [3]uint8{r8, g8, b8}
	}
	return palette, nil
}

// packedIndexBits maps a packed-palette size to the bit width of each
// index: 1 bit for 2 colors, 2 bits for 3-4, 4 bits for 5-16.
func packedIndexBits(paletteSize int) int {
	switch {
	case paletteSize == 2:
		return 1
	case paletteSize <= 4:
		return 2
	default:
		return 4
	}
}

// unpackIndex extracts the bits-wide index for pixel x from a
// byte-padded-per-row packed bitstream, most significant bits first.
func unpackIndex(row []byte, x, bits int) int {
	bitPos := x * bits
	byteIdx := bitPos / 8
	shift := 8 - bits - (bitPos % 8)
	return int(row[byteIdx]>>uint(shift)) & ((1 << uint(bits)) - 1)
}

func readByteFrom(r zlibReader) (byte, error) {
	var b [1]byte
	if err := readFullFrom(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func readFullFrom(r zlibReader, buf []byte) error {
	n := 0
	for n < len(buf) {
		k, err := r.Read(buf[n:])
		n += k
		if err != nil && n < len(buf) {
			return err
		}
	}
	return nil
}
