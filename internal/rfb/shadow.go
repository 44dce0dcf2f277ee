package rfb

// ShadowDecoder exposes the rectangle decode table to a passive observer
// that never writes to the wire itself — the recording proxy's
// server→client half (§4.I), which taps an already-negotiated session
// instead of performing its own handshake.
type ShadowDecoder struct {
	ctx *decodeCtx
}

// NewShadowDecoder creates a decoder against fb using pf as the initial
// pixel format. The proxy updates the format via SetPixelFormat whenever
// it observes the real client renegotiate one.
func NewShadowDecoder(pf PixelFormat, fb *Framebuffer, onCursor func(*Cursor), onResize func(w, h int)) *ShadowDecoder {
	return &ShadowDecoder{ctx: &decodeCtx{
		pf:        pf,
		fb:        fb,
		setCursor: onCursor,
		resizeFB:  onResize,
	}}
}

// SetPixelFormat updates the format subsequent rectangles decode with.
func (d *ShadowDecoder) SetPixelFormat(pf PixelFormat) { d.ctx.pf = pf }

// BeginUpdate resets the per-update "last rect seen" flag; call once per
// FramebufferUpdate before decoding its rectangles.
func (d *ShadowDecoder) BeginUpdate() { d.ctx.lastRectSeen = false }

// LastRectSeen reports whether a PseudoLastRect terminator has been
// decoded for the update in progress.
func (d *ShadowDecoder) LastRectSeen() bool { return d.ctx.lastRectSeen }

// DecodeRect decodes one rectangle's body (the 12-byte header must
// already be consumed by the caller) against framer.
func (d *ShadowDecoder) DecodeRect(framer *Framer, rect Rectangle) error {
	d.ctx.framer = framer
	return decode(d.ctx, rect)
}

// ReadRectangleHeader reads the 12-byte rectangle header.
func ReadRectangleHeader(framer *Framer) (Rectangle, error) {
	buf, err := framer.ReadN(12)
	if err != nil {
		return Rectangle{}, err
	}
	return Rectangle{
		X:        uint16(buf[0])<<8 | uint16(buf[1]),
		Y:        uint16(buf[2])<<8 | uint16(buf[3]),
		W:        uint16(buf[4])<<8 | uint16(buf[5]),
		H:        uint16(buf[6])<<8 | uint16(buf[7]),
		Encoding: Encoding(int32(uint32(buf[8])<<24 | uint32(buf[9])<<16 | uint32(buf[10])<<8 | uint32(buf[11]))),
	}, nil
}
