package vncclient

import (
	"net"
	"testing"
	"time"
)

type pointerEvent struct {
	mask uint8
	x, y uint16
}

func readPointerEvents(t *testing.T, conn net.Conn, n int) []pointerEvent {
	t.Helper()
	out := make([]pointerEvent, n)
	buf := make([]byte, 6)
	for i := 0; i < n; i++ {
		if _, err := readFull(conn, buf); err != nil {
			t.Fatalf("reading message %d: %v", i, err)
		}
		if buf[0] != 5 {
			t.Fatalf("message %d: type = %d, want 5 (PointerEvent)", i, buf[0])
		}
		out[i] = pointerEvent{
			mask: buf[1],
			x:    uint16(buf[2])<<8 | uint16(buf[3]),
			y:    uint16(buf[4])<<8 | uint16(buf[5]),
		}
	}
	return out
}

func TestMousePressSendsDownThenUpWithSameButtonMask(t *testing.T) {
	client, serverConn := newTestClient(t)
	client.MousePress(1)

	done := make(chan struct{})
	var events []pointerEvent
	go func() {
		events = readPointerEvents(t, serverConn, 2)
		close(done)
	}()

	if err := client.Do(); err != nil {
		t.Fatalf("Do: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for PointerEvents")
	}

	if events[0].mask != 1 {
		t.Errorf("down event mask = %d, want 1", events[0].mask)
	}
	if events[1].mask != 0 {
		t.Errorf("up event mask = %d, want 0", events[1].mask)
	}
}

func TestMouseMoveUpdatesPositionPreservingButtonMask(t *testing.T) {
	client, serverConn := newTestClient(t)
	client.MouseDown(1)
	client.MouseMove(10, 20)

	done := make(chan struct{})
	var events []pointerEvent
	go func() {
		events = readPointerEvents(t, serverConn, 2)
		close(done)
	}()

	if err := client.Do(); err != nil {
		t.Fatalf("Do: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for PointerEvents")
	}

	if events[1].x != 10 || events[1].y != 20 {
		t.Errorf("move event = %+v, want x=10,y=20", events[1])
	}
	if events[1].mask != 1 {
		t.Errorf("move event mask = %d, want button 1 still held", events[1].mask)
	}
}
