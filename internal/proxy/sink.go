package proxy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sibson/vncdotool/internal/wsbroadcast"
)

// Recorder accepts one line of script output per decoded event; Close
// releases whatever file or stream backs it.
type Recorder interface {
	io.Closer
	WriteLine(line string) error
}

// ScriptSink opens a Recorder for a new client connection. A single
// Recorder may be shared across the whole Proxy (single-stream mode) or
// freshly created per connection (directory mode), per §4.I.
type ScriptSink interface {
	Open() (Recorder, error)
}

// lineWriter adapts any io.Writer into a Recorder with one fmt.Fprintln
// per line and a mutex so concurrent connections in single-stream mode
// don't interleave partial lines.
type lineWriter struct {
	mu     *sync.Mutex
	w      io.Writer
	closer func() error
}

func (l *lineWriter) WriteLine(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintln(l.w, line)
	return err
}

func (l *lineWriter) Close() error {
	if l.closer != nil {
		return l.closer()
	}
	return nil
}

// singleStreamSink writes every connection's events to one shared writer
// (e.g. stdout, or a single fixed file).
type singleStreamSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSingleStreamSink records every connection's events to w.
func NewSingleStreamSink(w io.Writer) ScriptSink {
	return &singleStreamSink{w: w}
}

func (s *singleStreamSink) Open() (Recorder, error) {
	return &lineWriter{mu: &s.mu, w: s.w}, nil
}

// directorySink opens a new timestamped file per connection, per §4.I:
// "YYMMDD-HHMMSS.vdo".
type directorySink struct {
	dir string
}

// NewDirectorySink records each connection to its own file under dir,
// named by the connection's start time.
func NewDirectorySink(dir string) ScriptSink {
	return &directorySink{dir: dir}
}

func (s *directorySink) Open() (Recorder, error) {
	name := time.Now().Format("060102-150405") + ".vdo"
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("proxy: create script file %s: %w", path, err)
	}
	var mu sync.Mutex
	return &lineWriter{mu: &mu, w: f, closer: f.Close}, nil
}

// broadcastingSink wraps another ScriptSink and also fans out every
// recorded line to a wsbroadcast.Hub, so a connected viewer sees each
// command in real time without affecting what lands in the underlying
// sink. hub is allowed to be nil (Hub.Broadcast is a documented no-op).
type broadcastingSink struct {
	inner ScriptSink
	hub   *wsbroadcast.Hub
}

// WithBroadcast wraps sink so every recorded line is also sent to hub.
func WithBroadcast(sink ScriptSink, hub *wsbroadcast.Hub) ScriptSink {
	return &broadcastingSink{inner: sink, hub: hub}
}

func (s *broadcastingSink) Open() (Recorder, error) {
	rec, err := s.inner.Open()
	if err != nil {
		return nil, err
	}
	return &broadcastingRecorder{rec: rec, hub: s.hub}, nil
}

type broadcastingRecorder struct {
	rec Recorder
	hub *wsbroadcast.Hub
}

func (r *broadcastingRecorder) WriteLine(line string) error {
	r.hub.Broadcast(line)
	return r.rec.WriteLine(line)
}

func (r *broadcastingRecorder) Close() error {
	return r.rec.Close()
}
