package vncclient

import (
	"net"
	"testing"
	"time"

	"github.com/sibson/vncdotool/internal/keysym"
	"github.com/sibson/vncdotool/internal/rfb"
)

// readKeyEvents drains n KeyEvent messages (8 bytes each: type=4, down,
// padding x2, keysym big-endian) off conn.
func readKeyEvents(t *testing.T, conn net.Conn, n int) []struct {
	down   bool
	keysym uint32
} {
	t.Helper()
	out := make([]struct {
		down   bool
		keysym uint32
	}, n)
	buf := make([]byte, 8)
	for i := 0; i < n; i++ {
		if _, err := readFull(conn, buf); err != nil {
			t.Fatalf("reading message %d: %v", i, err)
		}
		if buf[0] != 4 {
			t.Fatalf("message %d: type = %d, want 4 (KeyEvent)", i, buf[0])
		}
		out[i].down = buf[1] != 0
		out[i].keysym = uint32(buf[4])<<24 | uint32(buf[5])<<16 | uint32(buf[6])<<8 | uint32(buf[7])
	}
	return out
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func newTestClient(t *testing.T) (*Client, net.Conn) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close(); serverConn.Close() })
	session := rfb.NewSessionForConn(clientConn)
	return New(session), serverConn
}

func TestKeyPressSingleKeyDownThenUp(t *testing.T) {
	client, serverConn := newTestClient(t)
	client.KeyPress("a")

	done := make(chan struct{})
	var events []struct {
		down   bool
		keysym uint32
	}
	go func() {
		events = readKeyEvents(t, serverConn, 2)
		close(done)
	}()

	if err := client.Do(); err != nil {
		t.Fatalf("Do: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for KeyEvents")
	}

	if !events[0].down || events[1].down {
		t.Fatalf("expected down-then-up, got %+v", events)
	}
}

func TestKeyPressChordReleasesInReverseOrder(t *testing.T) {
	client, serverConn := newTestClient(t)
	client.KeyPress("ctrl-alt-delete")

	done := make(chan struct{})
	var events []struct {
		down   bool
		keysym uint32
	}
	go func() {
		events = readKeyEvents(t, serverConn, 6)
		close(done)
	}()

	if err := client.Do(); err != nil {
		t.Fatalf("Do: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for KeyEvents")
	}

	ctrl, _ := lookupKeysym(t, "ctrl")
	alt, _ := lookupKeysym(t, "alt")
	del, _ := lookupKeysym(t, "delete")

	downOrder := []uint32{events[0].keysym, events[1].keysym, events[2].keysym}
	if downOrder[0] != ctrl || downOrder[1] != alt || downOrder[2] != del {
		t.Fatalf("down order = %v, want ctrl,alt,delete", downOrder)
	}
	for i := 0; i < 3; i++ {
		if !events[i].down {
			t.Fatalf("event %d should be a key-down", i)
		}
	}

	upOrder := []uint32{events[3].keysym, events[4].keysym, events[5].keysym}
	if upOrder[0] != del || upOrder[1] != alt || upOrder[2] != ctrl {
		t.Fatalf("up order = %v, want delete,alt,ctrl (LIFO)", upOrder)
	}
	for i := 3; i < 6; i++ {
		if events[i].down {
			t.Fatalf("event %d should be a key-up", i)
		}
	}
}

func TestSetForceCapsPromotesUppercaseToShiftChord(t *testing.T) {
	client, serverConn := newTestClient(t)
	client.SetForceCaps(true)
	client.KeyPress("A")

	done := make(chan struct{})
	var events []struct {
		down   bool
		keysym uint32
	}
	go func() {
		events = readKeyEvents(t, serverConn, 4)
		close(done)
	}()

	if err := client.Do(); err != nil {
		t.Fatalf("Do: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for KeyEvents")
	}

	shift, _ := lookupKeysym(t, "shift")
	a, _ := lookupKeysym(t, "a")
	if events[0].keysym != shift || events[1].keysym != a {
		t.Fatalf("expected shift,a down order with force_caps, got %v", events[:2])
	}
}

func TestKeyPressWithoutForceCapsSendsBareKeysym(t *testing.T) {
	client, serverConn := newTestClient(t)
	client.KeyPress("A")

	done := make(chan struct{})
	var events []struct {
		down   bool
		keysym uint32
	}
	go func() {
		events = readKeyEvents(t, serverConn, 2)
		close(done)
	}()

	if err := client.Do(); err != nil {
		t.Fatalf("Do: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for KeyEvents")
	}
	if !events[0].down || events[1].down {
		t.Fatalf("expected a single down-then-up pair, got %v", events)
	}
}

func lookupKeysym(t *testing.T, name string) (uint32, bool) {
	t.Helper()
	sym, ok := keysym.Lookup(name)
	if !ok {
		t.Fatalf("unknown keysym %q in test table", name)
	}
	return sym, ok
}
