// Package vncapi is the synchronous façade of §4.H: for callers that do
// not want to drive their own dispatcher, it runs one goroutine owning
// the rfb.Session/vncclient.Client pair and exposes blocking calls that
// submit closures to that goroutine and wait for their result.
package vncapi

import (
	"context"
	"time"

	"github.com/sibson/vncdotool/internal/rfb"
	"github.com/sibson/vncdotool/internal/vncclient"
)

// DefaultTimeout is the façade's call timeout when none is supplied.
const DefaultTimeout = time.Hour

// job is one closure submitted to the dispatcher goroutine, paired with a
// single-slot reply channel.
type job struct {
	fn    func(*vncclient.Client) error
	reply chan error
}

// Facade owns the dispatcher goroutine for one connection.
type Facade struct {
	session *rfb.Session
	client  *vncclient.Client
	jobs    chan job
	done    chan struct{}
	timeout time.Duration
}

// Connect dials addr, runs the RFB handshake, and starts the dispatcher
// goroutine.
func Connect(addr rfb.ServerAddress, opts rfb.Options) (*Facade, error) {
	session, err := rfb.Dial(addr, opts)
	if err != nil {
		return nil, err
	}
	f := &Facade{
		session: session,
		client:  vncclient.New(session),
		jobs:    make(chan job),
		done:    make(chan struct{}),
		timeout: DefaultTimeout,
	}
	go f.run()
	return f, nil
}

// SetTimeout overrides DefaultTimeout for subsequent calls.
func (f *Facade) SetTimeout(d time.Duration) { f.timeout = d }

func (f *Facade) run() {
	defer close(f.done)
	for j := range f.jobs {
		j.reply <- j.fn(f.client)
	}
}

// Do submits fn to the dispatcher goroutine and blocks for its result or
// until the façade's timeout elapses, whichever comes first.
func (f *Facade) Do(fn func(*vncclient.Client) error) error {
	return f.DoContext(context.Background(), fn)
}

// DoContext is Do with cancellation via ctx in addition to the timeout.
func (f *Facade) DoContext(ctx context.Context, fn func(*vncclient.Client) error) error {
	j := job{fn: fn, reply: make(chan error, 1)}

	select {
	case f.jobs <- j:
	case <-ctx.Done():
		return &rfb.TimeoutError{Reason: "submit: " + ctx.Err().Error()}
	case <-f.done:
		return &rfb.ConnectionError{Reason: "facade is closed"}
	}

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()
	select {
	case err := <-j.reply:
		return err
	case <-timer.C:
		return &rfb.TimeoutError{Reason: "call did not complete within " + f.timeout.String()}
	case <-ctx.Done():
		return &rfb.TimeoutError{Reason: "call: " + ctx.Err().Error()}
	}
}

// With acquires the connection for the duration of fn, guaranteeing
// Close runs on exit — the scoped-acquisition helper §4.H describes.
func With(addr rfb.ServerAddress, opts rfb.Options, fn func(*Facade) error) error {
	f, err := Connect(addr, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

// Close stops the dispatcher and disconnects the underlying session.
func (f *Facade) Close() error {
	close(f.jobs)
	<-f.done
	return f.session.Close()
}

// Session exposes the underlying session for read-only queries
// (PixelFormat, Framebuffer snapshot, etc.) that don't need dispatcher
// serialization.
func (f *Facade) Session() *rfb.Session { return f.session }
