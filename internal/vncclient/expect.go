package vncclient

import (
	"github.com/sibson/vncdotool/internal/imagestore"
	"github.com/sibson/vncdotool/internal/rfb"
)

// maxExpectAttempts bounds the expect retry loop: each attempt requests
// an incremental update and rechecks the RMS, so a server that never
// converges eventually surfaces a Timeout instead of hanging forever.
const maxExpectAttempts = 200

// ExpectScreen queues a histogram comparison against the reference image
// at path over the whole framebuffer.
func (c *Client) ExpectScreen(path string, maxrms float64) *Client {
	return c.queue(func(c *Client) error {
		fb := c.Session.Framebuffer()
		return c.expect(path, maxrms, 0, 0, fb.Width(), fb.Height())
	})
}

// ExpectRegion is ExpectScreen restricted to (x, y, w, h).
func (c *Client) ExpectRegion(path string, maxrms float64, x, y, w, h int) *Client {
	return c.queue(func(c *Client) error {
		return c.expect(path, maxrms, x, y, w, h)
	})
}

// ExpectRegionAt is ExpectRegion with the region's width and height taken
// from the reference image itself, for callers (the rexpect command) that
// only name a top-left corner.
func (c *Client) ExpectRegionAt(path string, maxrms float64, x, y int) *Client {
	return c.queue(func(c *Client) error {
		ref, err := imagestore.Load(path)
		if err != nil {
			return err
		}
		bounds := ref.Bounds()
		return c.expect(path, maxrms, x, y, bounds.Dx(), bounds.Dy())
	})
}

func (c *Client) expect(path string, maxrms float64, x, y, w, h int) error {
	ref, err := imagestore.Load(path)
	if err != nil {
		return err
	}
	refHist := rfb.Histogram(ref)

	if err := c.Session.RequestFramebufferUpdate(false, 0, 0,
		c.Session.Framebuffer().Width(), c.Session.Framebuffer().Height()); err != nil {
		return err
	}

	for attempt := 0; attempt < maxExpectAttempts; attempt++ {
		if err := c.Session.WaitForFramebufferUpdate(nil, nil); err != nil {
			return err
		}
		cropped := c.Session.Framebuffer().Crop(x, y, w, h)
		hist := rfb.Histogram(cropped)
		if rfb.RMS(hist, refHist) <= maxrms {
			return nil
		}
		if err := c.Session.RequestFramebufferUpdate(true, x, y, w, h); err != nil {
			return err
		}
	}
	return &rfb.TimeoutError{Reason: "expect: no matching framebuffer within attempt budget"}
}
