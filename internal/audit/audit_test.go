package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l := &Logger{
		filePath:   filepath.Join(t.TempDir(), "audit.jsonl"),
		maxSize:    1 << 20,
		maxBackups: 3,
		prevHash:   "genesis",
	}
	if err := l.openFile(); err != nil {
		t.Fatalf("openFile: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal entry: %v", err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestLogChainsHashesInOrder(t *testing.T) {
	l := newTestLogger(t)
	l.Log(EventSessionAccepted, "conn-1", map[string]any{"remote": "127.0.0.1:1234"})
	l.Log(EventSessionClosed, "conn-1", nil)

	entries := readEntries(t, l.filePath)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].PrevHash != "genesis" {
		t.Errorf("first entry prevHash = %q, want genesis", entries[0].PrevHash)
	}
	if entries[1].PrevHash != entries[0].EntryHash {
		t.Errorf("second entry prevHash = %q, want %q (chained)", entries[1].PrevHash, entries[0].EntryHash)
	}
	if entries[0].ConnID != "conn-1" {
		t.Errorf("connId = %q, want conn-1", entries[0].ConnID)
	}
}

func TestNilLoggerLogAndCloseAreNoOps(t *testing.T) {
	var l *Logger
	l.Log(EventProxyStart, "", nil) // must not panic
	if err := l.Close(); err != nil {
		t.Errorf("Close on nil logger: %v", err)
	}
	if got := l.DroppedCount(); got != -1 {
		t.Errorf("DroppedCount on nil logger = %d, want -1", got)
	}
}

func TestCriticalEventFsyncsWithoutError(t *testing.T) {
	l := newTestLogger(t)
	l.Log(EventAuthFailed, "conn-2", map[string]any{"authType": 2})
	if got := l.DroppedCount(); got != 0 {
		t.Errorf("DroppedCount = %d, want 0", got)
	}
}
