package websocket

import "testing"

func TestBuildWSURLUpgradesScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://example.com:8765/tail", "ws://example.com:8765/tail"},
		{"https://example.com:8765/tail", "wss://example.com:8765/tail"},
		{"ws://example.com:8765/tail", "ws://example.com:8765/tail"},
	}
	for _, tt := range tests {
		c := &Client{config: &Config{ServerURL: tt.in}}
		got, err := c.buildWSURL()
		if err != nil {
			t.Fatalf("buildWSURL(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("buildWSURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c := New(&Config{ServerURL: "ws://example.com/tail"}, func(string) {})
	c.Stop()
	c.Stop()
}
