package vncclient

import (
	"github.com/sibson/vncdotool/internal/imagestore"
)

// CaptureScreen queues a full non-incremental update request and, once
// it commits, saves the whole framebuffer to path.
func (c *Client) CaptureScreen(path string) *Client {
	return c.queue(func(c *Client) error {
		return c.capture(path, 0, 0, c.Session.Framebuffer().Width(), c.Session.Framebuffer().Height())
	})
}

// CaptureRegion is CaptureScreen cropped to (x, y, w, h).
func (c *Client) CaptureRegion(path string, x, y, w, h int) *Client {
	return c.queue(func(c *Client) error {
		return c.capture(path, x, y, w, h)
	})
}

func (c *Client) capture(path string, x, y, w, h int) error {
	fb := c.Session.Framebuffer()
	if err := c.Session.RequestFramebufferUpdate(false, 0, 0, fb.Width(), fb.Height()); err != nil {
		return err
	}
	if err := c.Session.WaitForFramebufferUpdate(nil, nil); err != nil {
		return err
	}
	cropped := c.Session.Framebuffer().Crop(x, y, w, h)
	return imagestore.Save(path, cropped)
}
