package vncclient

import (
	"github.com/sibson/vncdotool/internal/keysym"
)

// KeyDown queues KeyEvent(down) for every segment of a possibly-chorded
// key expression ("a", "ctrl-alt-delete"), pressed left to right.
func (c *Client) KeyDown(key string) *Client {
	return c.queue(func(c *Client) error {
		return sendChord(c, key, true, forward)
	})
}

// KeyUp queues KeyEvent(up) for every segment, released in the same
// left-to-right order they were named.
func (c *Client) KeyUp(key string) *Client {
	return c.queue(func(c *Client) error {
		return sendChord(c, key, false, forward)
	})
}

// KeyPress queues a full press-then-release of a (possibly chorded) key:
// every segment goes down left to right, then up right to left (LIFO),
// so modifiers are released only after the key they modify — per §4.G.
func (c *Client) KeyPress(key string) *Client {
	return c.queue(func(c *Client) error {
		if err := sendChord(c, key, true, forward); err != nil {
			return err
		}
		return sendChord(c, key, false, reverse)
	})
}

type direction int

const (
	forward direction = iota
	reverse
)

func sendChord(c *Client, key string, down bool, dir direction) error {
	segments := keysym.SplitChord(key)
	if len(segments) == 1 && c.forceCaps {
		segments[0] = forceCapsIfSingleChar(segments[0])
		segments = keysym.SplitChord(segments[0])
	}

	order := segments
	if dir == reverse {
		order = make([]string, len(segments))
		for i, s := range segments {
			order[len(segments)-1-i] = s
		}
	}

	for _, seg := range order {
		sym, ok := keysym.Lookup(seg)
		if !ok {
			return chainErrorf("unknown key %q", seg)
		}
		if err := c.Session.KeyEvent(sym, down); err != nil {
			return err
		}
	}
	return nil
}

// forceCapsIfSingleChar promotes a single character requiring Shift on a
// US keyboard (uppercase letters, shifted punctuation) into an explicit
// shift-<char> chord.
func forceCapsIfSingleChar(key string) string {
	return keysym.ForceCaps(key)
}
