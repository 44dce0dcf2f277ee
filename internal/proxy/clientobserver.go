package proxy

import (
	"fmt"
	"io"

	"github.com/sibson/vncdotool/internal/keysym"
	"github.com/sibson/vncdotool/internal/rfb"
)

// clientFixedLengths maps a client->server message id to its total wire
// length (including the id byte) for the messages that have one; ids 2
// (SetEncodings) and 6 (ClientCutText) are header-then-variable and are
// handled separately.
var clientFixedLengths = map[byte]int{
	0: 20, // SetPixelFormat
	3: 10, // FramebufferUpdateRequest
	4: 8,  // KeyEvent
	5: 6,  // PointerEvent
}

// runClientObserver replays just enough of the handshake to find message
// framing, then decodes KeyEvent/PointerEvent traffic into script lines,
// per §4.I. It is a miniature RFB server: it never writes back, only
// reads what the real client sent on its way to the real server.
func runClientObserver(r io.Reader, rec Recorder, shared *sharedState) {
	framer := rfb.NewFramer(r)

	if _, err := framer.ReadN(12); err != nil { // version line
		return
	}
	secType, err := framer.ReadByte() // security selection
	if err != nil {
		return
	}
	shared.publishAuthType(rfb.AuthType(secType))
	if secType == 2 { // VNC-Auth: 16-byte challenge response follows
		if _, err := framer.ReadN(16); err != nil {
			return
		}
	}
	if _, err := framer.ReadByte(); err != nil { // ClientInit shared-flag
		return
	}

	for {
		id, err := framer.ReadByte()
		if err != nil {
			return
		}
		if err := dispatchClientMessage(framer, id, rec, shared); err != nil {
			return
		}
	}
}

func dispatchClientMessage(framer *rfb.Framer, id byte, rec Recorder, shared *sharedState) error {
	switch id {
	case 0: // SetPixelFormat
		body, err := framer.ReadN(19)
		if err != nil {
			return err
		}
		shared.setPixelFormat(parsePixelFormatBody(body[3:19]))
		return nil

	case 2: // SetEncodings
		hdr, err := framer.ReadN(3)
		if err != nil {
			return err
		}
		count := int(uint16(hdr[1])<<8 | uint16(hdr[2]))
		_, err = framer.ReadN(count * 4)
		return err

	case 3: // FramebufferUpdateRequest
		_, err := framer.ReadN(9)
		return err

	case 4: // KeyEvent
		body, err := framer.ReadN(7)
		if err != nil {
			return err
		}
		down := body[0] != 0
		sym := uint32(body[3])<<24 | uint32(body[4])<<16 | uint32(body[5])<<8 | uint32(body[6])
		verb := "keyup"
		if down {
			verb = "keydown"
		}
		return rec.WriteLine(fmt.Sprintf("pause %.3f %s %s", shared.elapsed(), verb, keysym.Name(sym)))

	case 5: // PointerEvent
		body, err := framer.ReadN(5)
		if err != nil {
			return err
		}
		mask := body[0]
		x := int(uint16(body[1])<<8 | uint16(body[2]))
		y := int(uint16(body[3])<<8 | uint16(body[4]))
		line := fmt.Sprintf("pause %.3f move %d %d", shared.elapsed(), x, y)
		for b := 1; b <= 8; b++ {
			if mask&(1<<uint(b-1)) != 0 {
				line += fmt.Sprintf(" click %d", b)
			}
		}
		return rec.WriteLine(line)

	case 6: // ClientCutText
		hdr, err := framer.ReadN(7)
		if err != nil {
			return err
		}
		n := int(uint32(hdr[3])<<24 | uint32(hdr[4])<<16 | uint32(hdr[5])<<8 | uint32(hdr[6]))
		_, err = framer.ReadN(n)
		return err

	default:
		if total, ok := clientFixedLengths[id]; ok {
			_, err := framer.ReadN(total - 1)
			return err
		}
		return fmt.Errorf("proxy: unknown client message id %d", id)
	}
}

func parsePixelFormatBody(b []byte) rfb.PixelFormat {
	return rfb.PixelFormat{
		BPP:        b[0],
		Depth:      b[1],
		BigEndian:  b[2] != 0,
		TrueColor:  b[3] != 0,
		RedMax:     uint16(b[4])<<8 | uint16(b[5]),
		GreenMax:   uint16(b[6])<<8 | uint16(b[7]),
		BlueMax:    uint16(b[8])<<8 | uint16(b[9]),
		RedShift:   b[10],
		GreenShift: b[11],
		BlueShift:  b[12],
	}
}
