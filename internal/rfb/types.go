// Package rfb implements the client side of the Remote Framebuffer (RFB/VNC)
// protocol: version and security negotiation, pixel format negotiation,
// and incremental framebuffer update decoding for the standard and
// pseudo encodings described in RFC 6143.
package rfb

import "fmt"

// Encoding is the wire tag carried in SetEncodings and rectangle headers.
// Pseudo-encodings are negative per RFC 6143 §7.7.
type Encoding int32

const (
	EncodingRaw               Encoding = 0
	EncodingCopyRect          Encoding = 1
	EncodingRRE               Encoding = 2
	EncodingCoRRE             Encoding = 4
	EncodingHextile           Encoding = 5
	EncodingZRLE              Encoding = 16
	EncodingPseudoCursor      Encoding = -239
	EncodingPseudoDesktopSize Encoding = -223
	EncodingPseudoLastRect    Encoding = -224
	EncodingPseudoQEMUExtKey  Encoding = -258
)

func (e Encoding) String() string {
	switch e {
	case EncodingRaw:
		return "Raw"
	case EncodingCopyRect:
		return "CopyRect"
	case EncodingRRE:
		return "RRE"
	case EncodingCoRRE:
		return "CoRRE"
	case EncodingHextile:
		return "Hextile"
	case EncodingZRLE:
		return "ZRLE"
	case EncodingPseudoCursor:
		return "PseudoCursor"
	case EncodingPseudoDesktopSize:
		return "PseudoDesktopSize"
	case EncodingPseudoLastRect:
		return "PseudoLastRect"
	case EncodingPseudoQEMUExtKey:
		return "PseudoQEMUExtendedKey"
	default:
		return fmt.Sprintf("Encoding(%d)", int32(e))
	}
}

// DefaultEncodings is the set of encodings the client advertises via
// SetEncodings, most-preferred first.
var DefaultEncodings = []Encoding{
	EncodingPseudoLastRect,
	EncodingPseudoCursor,
	EncodingPseudoDesktopSize,
	EncodingPseudoQEMUExtKey,
	EncodingZRLE,
	EncodingHextile,
	EncodingCoRRE,
	EncodingRRE,
	EncodingCopyRect,
	EncodingRaw,
}

// AuthType is a security-type byte/word offered during negotiation.
type AuthType uint32

const (
	AuthInvalid AuthType = 0
	AuthNone    AuthType = 1
	AuthVNC     AuthType = 2
	AuthARD     AuthType = 30
)

func (a AuthType) String() string {
	switch a {
	case AuthNone:
		return "None"
	case AuthVNC:
		return "VNC-Auth"
	case AuthARD:
		return "ARD-DH"
	default:
		return fmt.Sprintf("AuthType(%d)", uint32(a))
	}
}

// supportedAuthTypes lists the security types this client can perform,
// most-preferred first — used when selecting among a server-offered list.
var supportedAuthTypes = []AuthType{AuthARD, AuthVNC, AuthNone}

// SessionState enumerates the handshake/run states of §4.E.
type SessionState int

const (
	AwaitingVersion SessionState = iota
	AwaitingSecurityList
	AwaitingSecurityResult
	AwaitingChallenge
	AwaitingAuthResult
	AwaitingServerInit
	AwaitingServerName
	Running
	Closed
)

func (s SessionState) String() string {
	switch s {
	case AwaitingVersion:
		return "AwaitingVersion"
	case AwaitingSecurityList:
		return "AwaitingSecurityList"
	case AwaitingSecurityResult:
		return "AwaitingSecurityResult"
	case AwaitingChallenge:
		return "AwaitingChallenge"
	case AwaitingAuthResult:
		return "AwaitingAuthResult"
	case AwaitingServerInit:
		return "AwaitingServerInit"
	case AwaitingServerName:
		return "AwaitingServerName"
	case Running:
		return "Running"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// ProtocolVersion is one of the three wire versions this client negotiates.
type ProtocolVersion struct {
	Major, Minor int
}

var (
	version33  = ProtocolVersion{3, 3}
	version37  = ProtocolVersion{3, 7}
	version38  = ProtocolVersion{3, 8}
	version389 = ProtocolVersion{3, 889} // Apple quirk variant, treated as 3.8
)

func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%03d", v.Major, v.Minor)
}

func (v ProtocolVersion) atLeast38() bool {
	return v.Major > 3 || (v.Major == 3 && v.Minor >= 8) || v == version389
}

// Rectangle is one update unit from a FramebufferUpdate message. Its
// lifetime is a single update cycle; it is never retained past decode.
type Rectangle struct {
	X, Y, W, H uint16
	Encoding   Encoding
}

// PointerState is the client's notion of the remote pointer, updated by
// every mouse operation and sent verbatim in PointerEvent messages.
type PointerState struct {
	X, Y       uint16
	ButtonMask uint8
}

// bit returns whether button n (1-indexed) is held.
func (p PointerState) bit(n int) bool {
	return p.ButtonMask&(1<<uint(n-1)) != 0
}

func (p *PointerState) setBit(n int, down bool) {
	mask := uint8(1 << uint(n-1))
	if down {
		p.ButtonMask |= mask
	} else {
		p.ButtonMask &^= mask
	}
}
