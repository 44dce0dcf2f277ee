package proxy

import (
	"bytes"
	"strings"
	"testing"
)

type fakeRecorder struct {
	lines []string
}

func (f *fakeRecorder) WriteLine(line string) error {
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeRecorder) Close() error { return nil }

func TestRunClientObserverDecodesKeyEvent(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RFB 003.008\n") // 12-byte version line
	buf.WriteByte(1)                 // security type: None
	buf.WriteByte(0)                 // ClientInit shared-flag

	// KeyEvent: id=4, down=1, padding(2), keysym=0x61 ('a')
	buf.Write([]byte{4, 1, 0, 0, 0, 0, 0, 0x61})

	rec := &fakeRecorder{}
	shared := newSharedState("test-conn", nil)

	runClientObserver(&buf, rec, shared)

	if len(rec.lines) != 1 {
		t.Fatalf("got %d lines, want 1: %v", len(rec.lines), rec.lines)
	}
	if !strings.Contains(rec.lines[0], "keydown a") {
		t.Errorf("line = %q, want it to contain %q", rec.lines[0], "keydown a")
	}
}

func TestRunClientObserverDecodesPointerEventWithButtons(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RFB 003.008\n")
	buf.WriteByte(1)
	buf.WriteByte(0)

	// PointerEvent: id=5, mask=1 (button 1), x=100, y=200
	buf.Write([]byte{5, 1, 0, 100, 0, 200})

	rec := &fakeRecorder{}
	shared := newSharedState("test-conn", nil)

	runClientObserver(&buf, rec, shared)

	if len(rec.lines) != 1 {
		t.Fatalf("got %d lines, want 1: %v", len(rec.lines), rec.lines)
	}
	if !strings.Contains(rec.lines[0], "move 100 200") || !strings.Contains(rec.lines[0], "click 1") {
		t.Errorf("line = %q, want move 100 200 and click 1", rec.lines[0])
	}
}
