package scriptrunner

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sibson/vncdotool/internal/rfb"
	"github.com/sibson/vncdotool/internal/vncclient"
)

func TestTokenizeExpandsFileToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.vdo")
	if err := os.WriteFile(path, []byte("key a\nmove 1 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := tokenize(path, 0)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []string{"key", "a", "move", "1", "2"}
	if len(got) != len(want) {
		t.Fatalf("tokenize(%q) = %v, want %v", path, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizeDetectsExpansionCycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "self.vdo")
	if err := os.WriteFile(path, []byte(path), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := tokenize(path, 0)
	if err == nil {
		t.Fatal("expected error for a script that recursively includes itself")
	}
}

func TestApplyCommandUnknownCommandErrors(t *testing.T) {
	if _, err := applyCommand(nil, "frobnicate", nil); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}

func TestApplyCommandMissingArgsErrors(t *testing.T) {
	if _, err := applyCommand(nil, "key", nil); err == nil {
		t.Fatal("expected an error when key has no argument")
	}
	if _, err := applyCommand(nil, "move", []string{"1"}); err == nil {
		t.Fatal("expected an error when move has only one argument")
	}
}

func TestRequireCaptureExtAcceptsKnownExtensions(t *testing.T) {
	for _, path := range []string{"out.png", "out.JPG", "out.gif", "out.bmp"} {
		if err := requireCaptureExt(path); err != nil {
			t.Errorf("requireCaptureExt(%q): %v", path, err)
		}
	}
}

func TestRequireCaptureExtRejectsUnknownOrMissingExtension(t *testing.T) {
	for _, path := range []string{"out.txt", "out", "out."} {
		if err := requireCaptureExt(path); err == nil {
			t.Errorf("requireCaptureExt(%q): expected error", path)
		}
	}
}

func TestRunInsertsInterCommandDelay(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	session := rfb.NewSessionForConn(clientConn)
	client := vncclient.New(session)

	drained := make(chan struct{})
	go func() {
		buf := make([]byte, 1024)
		for {
			if _, err := serverConn.Read(buf); err != nil {
				close(drained)
				return
			}
		}
	}()

	delay := 20 * time.Millisecond
	start := time.Now()
	if err := Run(client, "key a key b", delay); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := client.Do(); err != nil {
		t.Fatalf("Do: %v", err)
	}
	elapsed := time.Since(start)

	// Two commands, each followed by the inter-command delay.
	if elapsed < 2*delay {
		t.Errorf("elapsed = %v, want at least %v (2 commands x delay)", elapsed, 2*delay)
	}

	clientConn.Close()
	<-drained
}
