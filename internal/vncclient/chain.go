// Package vncclient implements the chainable command engine of §4.G: a
// fluent API over an *rfb.Session that queues keyboard, mouse, timing,
// capture, and clipboard operations and runs them in order.
package vncclient

import (
	"fmt"
	"time"

	"github.com/sibson/vncdotool/internal/rfb"
)

// step is one queued chain operation. It runs synchronously against the
// client and returns an error that aborts the remainder of the chain.
type step func(c *Client) error

// Client wraps a live session and accumulates a chain of steps. Each
// public method appends a step and returns the client itself, so calls
// compose: client.KeyPress("ctrl-alt-delete").Pause(1).CaptureScreen(path)
type Client struct {
	Session *rfb.Session
	steps   []step
	err     error

	pointer   rfb.PointerState
	forceCaps bool
}

// New wraps an established session.
func New(session *rfb.Session) *Client {
	return &Client{Session: session}
}

// SetForceCaps toggles the force_caps key-decoding option (§4.G): when
// enabled, a single uppercase letter or US-shifted punctuation character
// is promoted into an explicit shift-<char> chord instead of being sent
// as its own keysym.
func (c *Client) SetForceCaps(enabled bool) *Client {
	c.forceCaps = enabled
	return c
}

// Do runs every queued step in order, stopping at the first error.
// Running clears the queue so the Client can be reused for a new chain.
func (c *Client) Do() error {
	steps := c.steps
	c.steps = nil
	for _, s := range steps {
		if err := s(c); err != nil {
			return err
		}
	}
	return c.err
}

func (c *Client) queue(s step) *Client {
	c.steps = append(c.steps, s)
	return c
}

// Pause arms a delay of d before the next queued step runs.
func (c *Client) Pause(d time.Duration) *Client {
	return c.queue(func(c *Client) error {
		time.Sleep(d)
		return nil
	})
}

func chainErrorf(format string, args ...any) error {
	return fmt.Errorf("vncclient: "+format, args...)
}
