package wsbroadcast

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNilHubBroadcastIsNoOp(t *testing.T) {
	var h *Hub
	h.Broadcast("should not panic")
}

func TestHubBroadcastsToConnectedViewer(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the register channel a moment to process before broadcasting.
	time.Sleep(50 * time.Millisecond)
	hub.Broadcast("key a")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg) != "key a" {
		t.Errorf("got %q, want %q", msg, "key a")
	}
}

func TestHubDropsLineWithNoViewers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	hub.Broadcast("nobody listening")
}
