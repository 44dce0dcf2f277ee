package vncclient

import "time"

// dragStepDelay is the small inter-step pause §4.G specifies for
// mouseDrag's interpolated motion.
const dragStepDelay = 10 * time.Millisecond

// MouseMove queues a pointer move to (x, y), preserving the current
// button mask.
func (c *Client) MouseMove(x, y int) *Client {
	return c.queue(func(c *Client) error {
		return c.moveTo(x, y)
	})
}

func (c *Client) moveTo(x, y int) error {
	p := c.Session.Pointer()
	p.X, p.Y = uint16(x), uint16(y)
	if err := c.Session.PointerEvent(p); err != nil {
		return err
	}
	c.pointer = p
	return nil
}

// MouseDown toggles button b (1-indexed) on in the button mask and sends
// a PointerEvent.
func (c *Client) MouseDown(b int) *Client {
	return c.queue(func(c *Client) error { return c.setButton(b, true) })
}

// MouseUp toggles button b off and sends a PointerEvent.
func (c *Client) MouseUp(b int) *Client {
	return c.queue(func(c *Client) error { return c.setButton(b, false) })
}

func (c *Client) setButton(b int, down bool) error {
	p := c.Session.Pointer()
	mask := uint8(1 << uint(b-1))
	if down {
		p.ButtonMask |= mask
	} else {
		p.ButtonMask &^= mask
	}
	if err := c.Session.PointerEvent(p); err != nil {
		return err
	}
	c.pointer = p
	return nil
}

// MousePress queues MouseDown then MouseUp of button b.
func (c *Client) MousePress(b int) *Client {
	return c.queue(func(c *Client) error {
		if err := c.setButton(b, true); err != nil {
			return err
		}
		return c.setButton(b, false)
	})
}

// MouseDrag queues interpolated PointerEvents stepping from the current
// position to (x, y) in axis-aligned increments of step, with a short
// delay between steps; the final event always lands exactly on target.
func (c *Client) MouseDrag(x, y, step int) *Client {
	return c.queue(func(c *Client) error {
		return c.dragTo(x, y, step)
	})
}

func (c *Client) dragTo(x, y, step int) error {
	if step <= 0 {
		step = 1
	}
	p := c.Session.Pointer()
	startX, startY := int(p.X), int(p.Y)

	dx := x - startX
	dy := y - startY
	steps := maxAbs(absInt(dx), absInt(dy)) / step
	if steps < 1 {
		steps = 1
	}

	for i := 1; i <= steps; i++ {
		cx := startX + dx*i/steps
		cy := startY + dy*i/steps
		if err := c.moveTo(cx, cy); err != nil {
			return err
		}
		time.Sleep(dragStepDelay)
	}
	return c.moveTo(x, y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxAbs(a, b int) int {
	if a > b {
		return a
	}
	return b
}
