package proxy

import (
	"fmt"
	"io"

	"github.com/sibson/vncdotool/internal/rfb"
)

// runServerObserver is the shadow RFB client of §4.I: it replays the
// server-side handshake far enough to learn the framebuffer geometry and
// initial pixel format, then fully decodes FramebufferUpdate traffic into
// a private canvas using the same decoders the real client uses
// (rfb.ShadowDecoder). Decoded rectangles never produce script lines
// themselves; only an externally triggered capture_file does, emitted as
// "expect <path>".
func runServerObserver(r io.Reader, rec Recorder, shared *sharedState) {
	framer := rfb.NewFramer(r)

	if _, err := framer.ReadN(12); err != nil { // version line
		return
	}

	count, err := framer.ReadByte()
	if err != nil {
		return
	}
	if count == 0 {
		framer.ReadN(4) // reason length; best-effort drain, connection is failing anyway
		return
	}
	if _, err := framer.ReadN(int(count)); err != nil { // offered security types
		return
	}

	authType := shared.waitAuthType()
	switch authType {
	case rfb.AuthVNC:
		if _, err := framer.ReadN(16); err != nil { // challenge
			return
		}
	case rfb.AuthARD:
		if err := skipARDParams(framer); err != nil {
			return
		}
	}

	result, err := framer.ReadUint32()
	if err != nil {
		return
	}
	shared.recordAuthResult(authType, result == 0)
	if result != 0 {
		return
	}

	hdr, err := framer.ReadN(24)
	if err != nil {
		return
	}
	width := int(uint16(hdr[0])<<8 | uint16(hdr[1]))
	height := int(uint16(hdr[2])<<8 | uint16(hdr[3]))
	pf := parsePixelFormatBody(hdr[4:20])
	shared.setPixelFormat(pf)

	nameLen := int(uint32(hdr[20])<<24 | uint32(hdr[21])<<16 | uint32(hdr[22])<<8 | uint32(hdr[23]))
	if _, err := framer.ReadN(nameLen); err != nil {
		return
	}

	fb := rfb.NewFramebuffer(width, height)
	decoder := rfb.NewShadowDecoder(pf, fb, nil, func(w, h int) { fb.Resize(w, h) })

	for {
		select {
		case path := <-shared.pendingExpect:
			rec.WriteLine(fmt.Sprintf("expect %s", path))
		default:
		}

		decoder.SetPixelFormat(shared.getPixelFormat())

		id, err := framer.ReadByte()
		if err != nil {
			return
		}
		switch id {
		case 0: // FramebufferUpdate
			if err := decodeShadowUpdate(framer, decoder); err != nil {
				return
			}
		case 1: // SetColourMapEntries
			if err := skipColourMap(framer); err != nil {
				return
			}
		case 2: // Bell
			continue
		case 3: // ServerCutText
			if err := skipServerCutText(framer); err != nil {
				return
			}
		default:
			return
		}
	}
}

func decodeShadowUpdate(framer *rfb.Framer, decoder *rfb.ShadowDecoder) error {
	hdr, err := framer.ReadN(3)
	if err != nil {
		return err
	}
	numRects := int(uint16(hdr[1])<<8 | uint16(hdr[2]))
	decoder.BeginUpdate()
	for i := 0; i < numRects; i++ {
		rect, err := rfb.ReadRectangleHeader(framer)
		if err != nil {
			return err
		}
		if err := decoder.DecodeRect(framer, rect); err != nil {
			return err
		}
		if decoder.LastRectSeen() {
			break
		}
	}
	return nil
}

func skipColourMap(framer *rfb.Framer) error {
	hdr, err := framer.ReadN(5)
	if err != nil {
		return err
	}
	count := int(uint16(hdr[3])<<8 | uint16(hdr[4]))
	_, err = framer.ReadN(count * 6)
	return err
}

func skipServerCutText(framer *rfb.Framer) error {
	hdr, err := framer.ReadN(7)
	if err != nil {
		return err
	}
	n := int(uint32(hdr[3])<<24 | uint32(hdr[4])<<16 | uint32(hdr[5])<<8 | uint32(hdr[6]))
	_, err = framer.ReadN(n)
	return err
}

func skipARDParams(framer *rfb.Framer) error {
	genLen, err := framer.ReadUint16()
	if err != nil {
		return err
	}
	if _, err := framer.ReadN(int(genLen)); err != nil {
		return err
	}
	keyLen, err := framer.ReadUint16()
	if err != nil {
		return err
	}
	if _, err := framer.ReadN(int(keyLen)); err != nil { // modulus
		return err
	}
	_, err = framer.ReadN(int(keyLen)) // server public key
	return err
}
