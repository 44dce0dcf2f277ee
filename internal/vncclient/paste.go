package vncclient

// Paste queues a ClientCutText of text (Latin-1 on the wire; callers are
// responsible for any necessary transliteration before calling this).
func (c *Client) Paste(text string) *Client {
	return c.queue(func(c *Client) error {
		return c.Session.ClientCutText(text)
	})
}
