package rfb

import (
	"image"
	"image/color"
	"io"
	"math"
)

// Framebuffer is a mutable RGB canvas reconstructed from streamed,
// partial, out-of-order rectangle updates (§3). It grows when an update
// rectangle extends past its current bounds and shrinks only via an
// explicit PseudoDesktopSize resize.
type Framebuffer struct {
	img *image.RGBA
}

// NewFramebuffer creates a black canvas of the given size.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (fb *Framebuffer) Width() int  { return fb.img.Rect.Dx() }
func (fb *Framebuffer) Height() int { return fb.img.Rect.Dy() }

// Image returns the live backing image. Callers that need a stable
// snapshot (capture/expect) must Crop first, which copies.
func (fb *Framebuffer) Image() *image.RGBA { return fb.img }

// ensureBounds grows the canvas so that (x+w, y+h) fits, per §3's growth
// policy: existing contents are preserved at the origin, new area is
// black-filled.
func (fb *Framebuffer) ensureBounds(x, y, w, h int) {
	needW := x + w
	needH := y + h
	if needW <= fb.Width() && needH <= fb.Height() {
		return
	}
	newW := maxInt(fb.Width(), needW)
	newH := maxInt(fb.Height(), needH)
	grown := image.NewRGBA(image.Rect(0, 0, newW, newH))
	copyInto(grown, fb.img, 0, 0)
	fb.img = grown
}

// Resize implements the explicit PseudoDesktopSize policy (§3): existing
// contents are pasted at the origin and cropped; growth black-fills.
func (fb *Framebuffer) Resize(width, height int) {
	resized := image.NewRGBA(image.Rect(0, 0, width, height))
	copyInto(resized, fb.img, 0, 0)
	fb.img = resized
}

// SetPixel writes one canonical RGB pixel, growing the canvas first if
// needed.
func (fb *Framebuffer) SetPixel(x, y int, r, g, b uint8) {
	fb.ensureBounds(x, y, 1, 1)
	fb.img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xff})
}

// Fill paints a solid rectangle, growing the canvas first if needed.
func (fb *Framebuffer) Fill(x, y, w, h int, r, g, b uint8) {
	fb.ensureBounds(x, y, w, h)
	c := color.RGBA{R: r, G: g, B: b, A: 0xff}
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			fb.img.SetRGBA(xx, yy, c)
		}
	}
}

// Paste copies src (a whole image) onto the canvas at (x, y), growing the
// canvas first if needed.
func (fb *Framebuffer) Paste(src image.Image, x, y int) {
	b := src.Bounds()
	fb.ensureBounds(x, y, b.Dx(), b.Dy())
	copyInto(fb.img, src, x, y)
}

// CopyRectFrom blits [srcX,srcY,srcX+w,srcY+h) to [x,y,...) in-place.
// Source and destination may overlap; the copy direction is chosen from
// the sign of y-srcY (and x-srcX) so overlapping regions are order-safe.
func (fb *Framebuffer) CopyRectFrom(srcX, srcY, x, y, w, h int) {
	fb.ensureBounds(x, y, w, h)
	fb.ensureBounds(srcX, srcY, w, h)

	rowStart, rowEnd, rowStep := 0, h, 1
	if y > srcY {
		rowStart, rowEnd, rowStep = h-1, -1, -1
	}
	colStart, colEnd, colStep := 0, w, 1
	if x > srcX {
		colStart, colEnd, colStep = w-1, -1, -1
	}

	for dy := rowStart; dy != rowEnd; dy += rowStep {
		for dx := colStart; dx != colEnd; dx += colStep {
			fb.img.Set(x+dx, y+dy, fb.img.At(srcX+dx, srcY+dy))
		}
	}
}

// Crop returns a value-copy of the given region, cropped/clamped to the
// current canvas bounds. This is the read-only view shared with
// capture/expect consumers (§3 ownership: "shared read-only ... via a
// value-copy crop").
func (fb *Framebuffer) Crop(x, y, w, h int) *image.RGBA {
	x = clampInt(x, 0, fb.Width())
	y = clampInt(y, 0, fb.Height())
	w = clampInt(w, 0, fb.Width()-x)
	h = clampInt(h, 0, fb.Height()-y)

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	copyInto(out, fb.img, -x, -y)
	return out
}

// Histogram computes 256 bins per channel (R, G, B) over img, per §4.F.
func Histogram(img image.Image) [3][256]int {
	var hist [3][256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bch, _ := img.At(x, y).RGBA()
			hist[0][r>>8]++
			hist[1][g>>8]++
			hist[2][bch>>8]++
		}
	}
	return hist
}

// RMS computes the root-mean-square distance between two histograms, per
// §4.G's expect metric: sqrt(sum((h_i-e_i)^2) / N). Histograms of
// mismatched channel counts (always 3 here) are never a match; that check
// belongs to the caller since it also compares bin counts.
func RMS(a, b [3][256]int) float64 {
	var sum float64
	n := 0
	for c := 0; c < 3; c++ {
		for i := 0; i < 256; i++ {
			d := float64(a[c][i] - b[c][i])
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// ImageSaver describes a writer that encodes img to w using the codec the
// extension maps to. Nothing in the repository implements it;
// internal/imagestore saves by file path instead (imagestore.Save).
type ImageSaver interface {
	Save(w io.Writer, ext string, img image.Image) error
}

func copyInto(dst draw_Image, src image.Image, ox, oy int) {
	sb := src.Bounds()
	db := dst.Bounds()
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		dy := y + oy
		if dy < db.Min.Y || dy >= db.Max.Y {
			continue
		}
		for x := sb.Min.X; x < sb.Max.X; x++ {
			dx := x + ox
			if dx < db.Min.X || dx >= db.Max.X {
				continue
			}
			dst.Set(dx, dy, src.At(x, y))
		}
	}
}

// draw_Image is the subset of draw.Image we need, named to avoid importing
// image/draw just for the interface.
type draw_Image interface {
	image.Image
	Set(x, y int, c color.Color)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
