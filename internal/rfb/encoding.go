package rfb

// decodeCtx bundles the state a rectangle decoder needs. One decodeCtx is
// kept per Session (and per ShadowDecoder) and reused for every
// FramebufferUpdate: the zlib state lives for the whole connection, while
// the hextile colors are reset at the start of each Hextile rectangle.
type decodeCtx struct {
	framer *Framer
	pf     PixelFormat
	fb     *Framebuffer

	// cursor/desktop-size pseudo-encodings mutate session-level state
	// rather than the framebuffer directly; the callbacks below let
	// encoding.go stay decoupled from Session.
	setCursor func(*Cursor)
	resizeFB  func(w, h int)

	lastRectSeen bool

	// hextileBG/hextileFG persist across tiles within one Hextile
	// rectangle (§4.C), reset at the start of decodeHextile.
	hextileBG, hextileFG [3]uint8

	zrle *zrleState
}

// zrleState holds the long-lived zlib.Reader required by ZRLE: the
// compressed stream spans the whole session and must never be reset
// (§5), so the Reader is created once (lazily, on first ZRLE rectangle)
// and reused for every subsequent rectangle.
type zrleState struct {
	chunk  *chunkReader
	reader zlibReader
}

type zlibReader interface {
	Read(p []byte) (int, error)
}

// chunkReader is the mutable indirection fed to zlib.NewReader: each ZRLE
// rectangle supplies exactly L compressed bytes (the server flushes with
// Z_SYNC_FLUSH at each rectangle boundary), so swapping the buffer before
// each rectangle's decode call is sufficient — the zlib reader never sees
// an EOF from a healthy stream because decode always stops once it has
// pulled the rectangle's known uncompressed byte count.
type chunkReader struct {
	buf []byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.buf) == 0 {
		return 0, errZRLEStarved
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}

var errZRLEStarved = protocolErrorf("zrle: compressed chunk exhausted before tile decode completed")

func newZRLEState() *zrleState {
	return &zrleState{chunk: &chunkReader{}}
}

// decoders maps each wire encoding to its rectangle-body decode function.
// Decoders read exactly the bytes their rectangle owns via ctx.framer and
// mutate ctx.fb/cursor/etc; none of them read the 12-byte rectangle
// header, which Session.readRectangleHeader consumes up front.
var decoders = map[Encoding]func(ctx *decodeCtx, rect Rectangle) error{
	EncodingRaw:               decodeRaw,
	EncodingCopyRect:          decodeCopyRect,
	EncodingRRE:               decodeRRE,
	EncodingCoRRE:             decodeCoRRE,
	EncodingHextile:           decodeHextile,
	EncodingZRLE:              decodeZRLE,
	EncodingPseudoCursor:      decodePseudoCursor,
	EncodingPseudoDesktopSize: decodePseudoDesktopSize,
	EncodingPseudoLastRect:    decodePseudoLastRect,
	EncodingPseudoQEMUExtKey:  decodePseudoQEMUExtendedKey,
}

func decode(ctx *decodeCtx, rect Rectangle) error {
	fn, ok := decoders[rect.Encoding]
	if !ok {
		return protocolErrorf("unsupported encoding %s", rect.Encoding)
	}
	return fn(ctx, rect)
}
