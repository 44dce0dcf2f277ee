package rfb

import (
	"image"
	"image/color"
)

// Cursor is the locally-rendered pointer image delivered via the
// PseudoCursor encoding (§3): an RGB bitmap plus a bitmask of which
// pixels are opaque, and a hotspot offset.
type Cursor struct {
	Width, Height int
	HotX, HotY    int
	pixels        []byte // width*height RGB triples
	mask          []byte // width*height, 1 = visible
}

// At reports the cursor's own pixel at (x, y) within its own bounds, and
// whether that pixel is opaque.
func (c *Cursor) At(x, y int) (r, g, b uint8, visible bool) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return 0, 0, 0, false
	}
	i := y*c.Width + x
	if c.mask[i] == 0 {
		return 0, 0, 0, false
	}
	p := i * 3
	return c.pixels[p], c.pixels[p+1], c.pixels[p+2], true
}

// Composite overlays the cursor onto a copy of base at the given pointer
// position, offsetting by the hotspot per §3: "painted at
// (pointer_x - hot_x, pointer_y - hot_y)". The underlying framebuffer is
// never mutated; this always operates on a cropped value-copy.
func Composite(base *image.RGBA, cur *Cursor, pointerX, pointerY int) *image.RGBA {
	if cur == nil {
		return base
	}
	out := image.NewRGBA(base.Bounds())
	copyInto(out, base, 0, 0)

	originX := pointerX - cur.HotX
	originY := pointerY - cur.HotY
	b := out.Bounds()
	for cy := 0; cy < cur.Height; cy++ {
		y := originY + cy
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for cx := 0; cx < cur.Width; cx++ {
			x := originX + cx
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			if r, g, bch, ok := cur.At(cx, cy); ok {
				out.SetRGBA(x, y, color.RGBA{R: r, G: g, B: bch, A: 0xff})
			}
		}
	}
	return out
}
