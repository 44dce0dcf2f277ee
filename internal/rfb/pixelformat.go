package rfb

import "fmt"

// PixelFormat describes the server's announced pixel layout (§3). It is
// immutable after negotiation until the client reissues SetPixelFormat.
type PixelFormat struct {
	BPP        uint8 // 8, 16, or 32
	Depth      uint8
	BigEndian  bool
	TrueColor  bool
	RedMax     uint16
	GreenMax   uint16
	BlueMax    uint16
	RedShift   uint8
	GreenShift uint8
	BlueShift  uint8
}

// BytesPerPixel is ⌈bpp/8⌉.
func (pf PixelFormat) BytesPerPixel() int {
	return (int(pf.BPP) + 7) / 8
}

// rgbx32 is the format the client requests via SetPixelFormat when the
// server's announced format isn't one of the directly-supported shuffles.
var rgbx32 = PixelFormat{
	BPP: 32, Depth: 24, BigEndian: false, TrueColor: true,
	RedMax: 255, GreenMax: 255, BlueMax: 255,
	RedShift: 0, GreenShift: 8, BlueShift: 16,
}

// bgr16 is requested instead of rgbx32 for the Apple 3.889 quirk variant.
var bgr16 = PixelFormat{
	BPP: 16, Depth: 16, BigEndian: false, TrueColor: true,
	RedMax: 31, GreenMax: 63, BlueMax: 31,
	RedShift: 11, GreenShift: 5, BlueShift: 0,
}

// directlySupported lists the shuffles the decoder can consume without a
// SetPixelFormat round-trip: RGB24, RGBX32, BGR24, BGRX32, BGR16.
func directlySupported(pf PixelFormat) bool {
	for _, shuffle := range []PixelFormat{
		{32, 24, false, true, 255, 255, 255, 16, 8, 0},  // BGRX32
		{32, 24, false, true, 255, 255, 255, 0, 8, 16},  // RGBX32
		{24, 24, false, true, 255, 255, 255, 16, 8, 0},  // BGR24
		{24, 24, false, true, 255, 255, 255, 0, 8, 16},  // RGB24
		bgr16,
	} {
		if pf == shuffle {
			return true
		}
	}
	return false
}

// chosenSetPixelFormat decides what the client should request via
// SetPixelFormat for a server-announced format that isn't directly
// supported, per §4.B (RGBX32, or BGR16 for the Apple 3.889 quirk).
func chosenSetPixelFormat(appleQuirk bool) PixelFormat {
	if appleQuirk {
		return bgr16
	}
	return rgbx32
}

// validate checks the invariants of §3: each max is 2^n-1, and
// shift+bitlen(max) <= bpp.
func (pf PixelFormat) validate() error {
	if pf.BPP != 8 && pf.BPP != 16 && pf.BPP != 32 {
		return fmt.Errorf("bpp %d not in {8,16,32}", pf.BPP)
	}
	if pf.Depth > pf.BPP {
		return fmt.Errorf("depth %d exceeds bpp %d", pf.Depth, pf.BPP)
	}
	for _, pair := range []struct {
		name  string
		max   uint16
		shift uint8
	}{
		{"red", pf.RedMax, pf.RedShift},
		{"green", pf.GreenMax, pf.GreenShift},
		{"blue", pf.BlueMax, pf.BlueShift},
	} {
		if pair.max == 0 {
			continue
		}
		if (uint32(pair.max) & (uint32(pair.max) + 1)) != 0 {
			return fmt.Errorf("%s max %d is not 2^n-1", pair.name, pair.max)
		}
		if uint32(pair.shift)+bitlen(pair.max) > uint32(pf.BPP) {
			return fmt.Errorf("%s shift+bitlen exceeds bpp", pair.name)
		}
	}
	return nil
}

func bitlen(v uint16) uint32 {
	n := uint32(0)
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// decodePixel converts one bpp-wide pixel (already read into buf, in the
// format's own byte order) into an (r, g, b) canonical 24-bit RGB triple,
// scaling any channel whose max isn't 255 by 255/max with rounding.
func decodePixel(pf PixelFormat, buf []byte) (r, g, b uint8) {
	v := readPixelValue(pf, buf)
	r = extractChannel(v, pf.RedShift, pf.RedMax)
	g = extractChannel(v, pf.GreenShift, pf.GreenMax)
	b = extractChannel(v, pf.BlueShift, pf.BlueMax)
	return
}

func readPixelValue(pf PixelFormat, buf []byte) uint32 {
	var v uint32
	n := pf.BytesPerPixel()
	if pf.BigEndian {
		for i := 0; i < n; i++ {
			v = v<<8 | uint32(buf[i])
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			v = v<<8 | uint32(buf[i])
		}
	}
	return v
}

func extractChannel(v uint32, shift uint8, max uint16) uint8 {
	if max == 0 {
		return 0
	}
	raw := (v >> shift) & uint32(max)
	if max == 255 {
		return uint8(raw)
	}
	return uint8((raw*255 + uint32(max)/2) / uint32(max))
}

// encodePixelValue packs an (r,g,b) canonical triple back into pf's wire
// representation. Nothing in the repository calls it; decoding never
// needs to re-encode.
func encodePixelValue(pf PixelFormat, r, g, b uint8) uint32 {
	red := scaleUp(r, pf.RedMax)
	green := scaleUp(g, pf.GreenMax)
	blue := scaleUp(b, pf.BlueMax)
	return red<<pf.RedShift | green<<pf.GreenShift | blue<<pf.BlueShift
}

func scaleUp(c uint8, max uint16) uint32 {
	if max == 0 {
		return 0
	}
	if max == 255 {
		return uint32(c)
	}
	return (uint32(c)*uint32(max) + 127) / 255
}
