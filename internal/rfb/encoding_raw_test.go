package rfb

import (
	"bytes"
	"testing"
)

func rgbx32Format() PixelFormat {
	return PixelFormat{
		BPP: 32, Depth: 24, BigEndian: false, TrueColor: true,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 0, GreenShift: 8, BlueShift: 16,
	}
}

func TestDecodeRawFillsFramebufferRowMajor(t *testing.T) {
	pf := rgbx32Format()
	fb := NewFramebuffer(4, 4)
	// Two 2x1 pixels: (red, shift 0), (green, shift 8), little-endian.
	buf := []byte{
		0xFF, 0x00, 0x00, 0x00, // red pixel
		0x00, 0xFF, 0x00, 0x00, // green pixel
	}
	ctx := &decodeCtx{framer: NewFramer(bytes.NewReader(buf)), pf: pf, fb: fb}

	rect := Rectangle{X: 1, Y: 2, W: 2, H: 1}
	if err := decodeRaw(ctx, rect); err != nil {
		t.Fatalf("decodeRaw: %v", err)
	}

	px := fb.Image().RGBAAt(1, 2)
	if px.R != 0xFF || px.G != 0 || px.B != 0 {
		t.Errorf("pixel (1,2) = %+v, want red", px)
	}
	px = fb.Image().RGBAAt(2, 2)
	if px.R != 0 || px.G != 0xFF || px.B != 0 {
		t.Errorf("pixel (2,2) = %+v, want green", px)
	}
}

func TestDecodeCopyRectBlitsExistingPixels(t *testing.T) {
	pf := rgbx32Format()
	fb := NewFramebuffer(4, 4)
	fb.SetPixel(0, 0, 10, 20, 30)

	// srcX=0, srcY=0 encoded as two big-endian uint16s.
	buf := []byte{0x00, 0x00, 0x00, 0x00}
	ctx := &decodeCtx{framer: NewFramer(bytes.NewReader(buf)), pf: pf, fb: fb}

	rect := Rectangle{X: 2, Y: 2, W: 1, H: 1}
	if err := decodeCopyRect(ctx, rect); err != nil {
		t.Fatalf("decodeCopyRect: %v", err)
	}

	px := fb.Image().RGBAAt(2, 2)
	if px.R != 10 || px.G != 20 || px.B != 30 {
		t.Errorf("copied pixel = %+v, want {10,20,30}", px)
	}
}
