package rfb

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/sibson/vncdotool/internal/logging"
)

// Session owns the whole RFB connection: the framer, negotiated pixel
// format, framebuffer, cursor, pointer state, and auth context. Nothing
// else holds a writable reference to these; §3 shares the framebuffer
// out only via Framebuffer.Crop's value copy.
type Session struct {
	conn   net.Conn
	framer *Framer
	log    *slog.Logger

	state   SessionState
	version ProtocolVersion
	apple   bool

	pf            PixelFormat
	fb            *Framebuffer
	cursor        *Cursor
	pointer       PointerState
	serverName    string
	auth           AuthContext
	authPreference AuthType
	shared         bool
	encodings      []Encoding
	decodeScratch  *decodeCtx
}

// Options configures Dial.
type Options struct {
	Auth           AuthContext
	AuthPreference AuthType // AuthInvalid (the zero value) means no preference
	Shared         bool
	Encodings      []Encoding // nil uses DefaultEncodings
}

// Dial connects to addr, runs the handshake through ServerInit, and
// returns a Session in the Running state ready for FramebufferUpdate
// traffic and outbound messages.
func Dial(addr ServerAddress, opts Options) (*Session, error) {
	conn, err := net.DialTimeout(addr.Network(), addr.String(), 10*time.Second)
	if err != nil {
		return nil, &ConnectionError{Reason: "dial " + addr.String(), Err: err}
	}

	s := &Session{
		conn:           conn,
		framer:         NewFramer(conn),
		log:            logging.L("rfb"),
		state:          AwaitingVersion,
		auth:           opts.Auth,
		authPreference: opts.AuthPreference,
		shared:         opts.Shared,
		encodings:      opts.Encodings,
	}
	if s.encodings == nil {
		s.encodings = DefaultEncodings
	}

	if err := s.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// NewSessionForConn builds a Running-state Session around an
// already-connected conn, skipping version/security negotiation
// entirely. It exists for tests elsewhere in the module (vncclient,
// scriptrunner) that need to exercise message encoding against a real
// net.Conn without a live RFB server on the other end.
func NewSessionForConn(conn net.Conn) *Session {
	return &Session{
		conn:   conn,
		framer: NewFramer(conn),
		log:    logging.L("rfb"),
		state:  Running,
	}
}

// Close tears down the underlying connection. Safe to call once; further
// reads/writes will error.
func (s *Session) Close() error {
	s.state = Closed
	return s.conn.Close()
}

func (s *Session) State() SessionState      { return s.state }
func (s *Session) PixelFormat() PixelFormat { return s.pf }
func (s *Session) Framebuffer() *Framebuffer { return s.fb }
func (s *Session) Cursor() *Cursor          { return s.cursor }
func (s *Session) Pointer() PointerState    { return s.pointer }
func (s *Session) ServerName() string       { return s.serverName }

func (s *Session) write(b []byte) error {
	_, err := s.conn.Write(b)
	if err != nil {
		return &ConnectionError{Reason: "write", Err: err}
	}
	return nil
}

// handshake drives states 1 through 7 of §4.E, ending in Running.
func (s *Session) handshake() error {
	if err := s.negotiateVersion(); err != nil {
		return err
	}
	if err := s.negotiateSecurity(); err != nil {
		return err
	}
	if err := s.clientInit(); err != nil {
		return err
	}
	if err := s.serverInit(); err != nil {
		return err
	}
	s.state = Running
	s.log.Info("rfb session established", "server", s.serverName, "width", s.fb.Width(), "height", s.fb.Height())

	if err := s.SetPixelFormat(chosenSetPixelFormatFor(s.pf, s.apple)); err != nil {
		return err
	}
	return s.SetEncodings(s.encodings)
}

// negotiateVersion implements state 1: read "RFB xxx.yyy\n", clamp to
// our max (3.8), echo it back.
func (s *Session) negotiateVersion() error {
	line, err := s.framer.ReadN(12)
	if err != nil {
		return err
	}
	var major, minor int
	if _, err := fmt.Sscanf(string(line), "RFB %3d.%3d\n", &major, &minor); err != nil {
		return protocolErrorf("malformed version line %q", line)
	}
	server := ProtocolVersion{major, minor}

	s.apple = server == version389
	switch {
	case s.apple, server.atLeast38():
		s.version = version38
	case server.Major == 3 && server.Minor == 7:
		s.version = version37
	default:
		s.version = version33
	}

	if err := s.write([]byte(fmt.Sprintf("RFB %03d.%03d\n", s.version.Major, s.version.Minor))); err != nil {
		return err
	}

	if s.version == version33 {
		s.state = AwaitingChallenge
	} else {
		s.state = AwaitingSecurityList
	}
	return nil
}

// negotiateSecurity implements states 2-5: pick and perform a security
// handshake, landing on ClientInit (state 6) on success.
func (s *Session) negotiateSecurity() error {
	var chosen AuthType

	if s.version == version33 {
		word, err := s.framer.ReadUint32()
		if err != nil {
			return err
		}
		chosen = AuthType(word)
	} else {
		count, err := s.framer.ReadByte()
		if err != nil {
			return err
		}
		if count == 0 {
			reasonLen, err := s.framer.ReadUint32()
			if err != nil {
				return err
			}
			reason, err := s.framer.ReadN(int(reasonLen))
			if err != nil {
				return err
			}
			return &AuthenticationError{Reason: string(reason)}
		}
		offeredBytes, err := s.framer.ReadN(int(count))
		if err != nil {
			return err
		}
		offered := make([]AuthType, len(offeredBytes))
		for i, b := range offeredBytes {
			offered[i] = AuthType(b)
		}
		chosen, err = chooseAuthType(offered, s.authPreference)
		if err != nil {
			return err
		}
		if err := s.write([]byte{byte(chosen)}); err != nil {
			return err
		}
	}

	authFn, ok := authenticators[chosen]
	if !ok {
		return &AuthenticationError{Reason: fmt.Sprintf("unsupported security type %s", chosen)}
	}
	if err := authFn(s.framer, s.conn, s.auth); err != nil {
		return err
	}

	if chosen == AuthNone && s.version == version33 {
		return nil
	}
	return s.readAuthResult()
}

// readAuthResult implements state 5: a 4-byte result word, with a
// UTF-8 reason string on ≥3.8 failure.
func (s *Session) readAuthResult() error {
	result, err := s.framer.ReadUint32()
	if err != nil {
		return err
	}
	if result == 0 {
		return nil
	}

	reason := fmt.Sprintf("auth result %d", result)
	if s.version.atLeast38() {
		reasonLen, err := s.framer.ReadUint32()
		if err == nil {
			if reasonBytes, err2 := s.framer.ReadN(int(reasonLen)); err2 == nil {
				reason = string(reasonBytes)
			}
		}
	}
	return &AuthenticationError{Reason: reason}
}

// clientInit implements state 6: send the shared-flag byte.
func (s *Session) clientInit() error {
	s.state = AwaitingServerInit
	flag := byte(0)
	if s.shared {
		flag = 1
	}
	return s.write([]byte{flag})
}

// serverInit implements states 7-8: the 24-byte fixed header followed by
// the variable-length server name.
func (s *Session) serverInit() error {
	hdr, err := s.framer.ReadN(24)
	if err != nil {
		return err
	}
	width := int(uint16(hdr[0])<<8 | uint16(hdr[1]))
	height := int(uint16(hdr[2])<<8 | uint16(hdr[3]))

	pf := PixelFormat{
		BPP:        hdr[4],
		Depth:      hdr[5],
		BigEndian:  hdr[6] != 0,
		TrueColor:  hdr[7] != 0,
		RedMax:     uint16(hdr[8])<<8 | uint16(hdr[9]),
		GreenMax:   uint16(hdr[10])<<8 | uint16(hdr[11]),
		BlueMax:    uint16(hdr[12])<<8 | uint16(hdr[13]),
		RedShift:   hdr[14],
		GreenShift: hdr[15],
		BlueShift:  hdr[16],
	}
	if err := pf.validate(); err != nil {
		return protocolErrorf("server pixel format: %v", err)
	}

	nameLen := int(uint32(hdr[20])<<24 | uint32(hdr[21])<<16 | uint32(hdr[22])<<8 | uint32(hdr[23]))
	s.state = AwaitingServerName
	nameBytes, err := s.framer.ReadN(nameLen)
	if err != nil {
		return err
	}

	s.pf = pf
	s.fb = NewFramebuffer(width, height)
	s.serverName = string(nameBytes)
	return nil
}

func chosenSetPixelFormatFor(serverPF PixelFormat, apple bool) PixelFormat {
	if directlySupported(serverPF) {
		return serverPF
	}
	return chosenSetPixelFormat(apple)
}

// SetPixelFormat sends SetPixelFormat (message 0) and adopts pf as the
// format subsequent FramebufferUpdate rectangles are decoded in.
func (s *Session) SetPixelFormat(pf PixelFormat) error {
	buf := make([]byte, 20)
	buf[0] = 0
	buf[4] = pf.BPP
	buf[5] = pf.Depth
	if pf.BigEndian {
		buf[6] = 1
	}
	if pf.TrueColor {
		buf[7] = 1
	}
	buf[8], buf[9] = byte(pf.RedMax>>8), byte(pf.RedMax)
	buf[10], buf[11] = byte(pf.GreenMax>>8), byte(pf.GreenMax)
	buf[12], buf[13] = byte(pf.BlueMax>>8), byte(pf.BlueMax)
	buf[14], buf[15] = pf.RedShift, pf.GreenShift
	buf[16] = pf.BlueShift
	if err := s.write(buf); err != nil {
		return err
	}
	s.pf = pf
	return nil
}

// SetEncodings sends SetEncodings (message 2) with the given preference
// order.
func (s *Session) SetEncodings(encs []Encoding) error {
	buf := make([]byte, 4, 4+4*len(encs))
	buf[0] = 2
	buf[2] = byte(len(encs) >> 8)
	buf[3] = byte(len(encs))
	for _, e := range encs {
		v := uint32(int32(e))
		buf = append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	s.encodings = encs
	return s.write(buf)
}

// RequestFramebufferUpdate sends FramebufferUpdateRequest (message 3).
func (s *Session) RequestFramebufferUpdate(incremental bool, x, y, w, h int) error {
	buf := make([]byte, 10)
	buf[0] = 3
	if incremental {
		buf[1] = 1
	}
	buf[2], buf[3] = byte(x>>8), byte(x)
	buf[4], buf[5] = byte(y>>8), byte(y)
	buf[6], buf[7] = byte(w>>8), byte(w)
	buf[8], buf[9] = byte(h>>8), byte(h)
	return s.write(buf)
}

// KeyEvent sends KeyEvent (message 4) for the given X keysym.
func (s *Session) KeyEvent(keysym uint32, down bool) error {
	buf := make([]byte, 8)
	buf[0] = 4
	if down {
		buf[1] = 1
	}
	buf[4], buf[5], buf[6], buf[7] = byte(keysym>>24), byte(keysym>>16), byte(keysym>>8), byte(keysym)
	return s.write(buf)
}

// PointerEvent sends PointerEvent (message 5) and updates local pointer
// state to match.
func (s *Session) PointerEvent(p PointerState) error {
	buf := make([]byte, 6)
	buf[0] = 5
	buf[1] = p.ButtonMask
	buf[2], buf[3] = byte(p.X>>8), byte(p.X)
	buf[4], buf[5] = byte(p.Y>>8), byte(p.Y)
	if err := s.write(buf); err != nil {
		return err
	}
	s.pointer = p
	return nil
}

// ClientCutText sends ClientCutText (message 6) for Latin-1 text.
func (s *Session) ClientCutText(text string) error {
	payload := []byte(text)
	buf := make([]byte, 8, 8+len(payload))
	buf[0] = 6
	n := uint32(len(payload))
	buf[4], buf[5], buf[6], buf[7] = byte(n>>24), byte(n>>16), byte(n>>8), byte(n)
	buf = append(buf, payload...)
	return s.write(buf)
}

// server→client message ids, state 8.
const (
	msgFramebufferUpdate  = 0
	msgSetColourMapEntries = 1
	msgBell               = 2
	msgServerCutText      = 3
)

// CutTextHandler, BellHandler are invoked from ReadMessage for the
// corresponding inbound server message.
type CutTextHandler func(text string)
type BellHandler func()

// ReadMessage blocks for exactly one server→client message and applies
// it: FramebufferUpdate rectangles are decoded into the framebuffer and
// cursor, Bell/ServerCutText invoke the given callbacks (either may be
// nil), and SetColourMapEntries is read and discarded (palette devices
// are out of scope). Unknown ids are a fatal ProtocolError per §4.E.
func (s *Session) ReadMessage(onCutText CutTextHandler, onBell BellHandler) error {
	id, err := s.framer.ReadByte()
	if err != nil {
		return err
	}
	switch id {
	case msgFramebufferUpdate:
		return s.readFramebufferUpdate()
	case msgSetColourMapEntries:
		return s.skipColourMapEntries()
	case msgBell:
		if onBell != nil {
			onBell()
		}
		return nil
	case msgServerCutText:
		return s.readServerCutText(onCutText)
	default:
		return protocolErrorf("unknown server message id %d", id)
	}
}

// WaitForFramebufferUpdate blocks, dispatching server messages via
// ReadMessage, until exactly one FramebufferUpdate has been applied.
// Bell/ServerCutText messages seen along the way still invoke their
// callbacks. This is the "on commit" trigger capture/expect chain steps
// wait on (§4.G).
func (s *Session) WaitForFramebufferUpdate(onCutText CutTextHandler, onBell BellHandler) error {
	for {
		id, err := s.framer.ReadByte()
		if err != nil {
			return err
		}
		switch id {
		case msgFramebufferUpdate:
			return s.readFramebufferUpdate()
		case msgSetColourMapEntries:
			if err := s.skipColourMapEntries(); err != nil {
				return err
			}
		case msgBell:
			if onBell != nil {
				onBell()
			}
		case msgServerCutText:
			if err := s.readServerCutText(onCutText); err != nil {
				return err
			}
		default:
			return protocolErrorf("unknown server message id %d", id)
		}
	}
}

func (s *Session) readFramebufferUpdate() error {
	hdr, err := s.framer.ReadN(3)
	if err != nil {
		return err
	}
	numRects := int(uint16(hdr[1])<<8 | uint16(hdr[2]))

	if s.decodeScratch == nil {
		s.decodeScratch = &decodeCtx{
			setCursor: func(c *Cursor) { s.cursor = c },
			resizeFB:  func(w, h int) { s.fb.Resize(w, h) },
		}
	}
	ctx := s.decodeScratch
	ctx.framer = s.framer
	ctx.pf = s.pf
	ctx.fb = s.fb
	ctx.lastRectSeen = false

	for i := 0; i < numRects; i++ {
		rect, err := s.readRectangleHeader()
		if err != nil {
			return err
		}
		if err := decode(ctx, rect); err != nil {
			return err
		}
		if ctx.lastRectSeen {
			break
		}
	}
	return nil
}

func (s *Session) readRectangleHeader() (Rectangle, error) {
	return ReadRectangleHeader(s.framer)
}

func (s *Session) skipColourMapEntries() error {
	hdr, err := s.framer.ReadN(5)
	if err != nil {
		return err
	}
	count := int(uint16(hdr[3])<<8 | uint16(hdr[4]))
	_, err = s.framer.ReadN(count * 6)
	return err
}

func (s *Session) readServerCutText(onCutText CutTextHandler) error {
	hdr, err := s.framer.ReadN(7)
	if err != nil {
		return err
	}
	n := int(uint32(hdr[3])<<24 | uint32(hdr[4])<<16 | uint32(hdr[5])<<8 | uint32(hdr[6]))
	text, err := s.framer.ReadN(n)
	if err != nil {
		return err
	}
	if onCutText != nil {
		onCutText(string(text))
	}
	return nil
}

var _ io.Closer = (*Session)(nil)
