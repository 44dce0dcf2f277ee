// Package proxy implements the recording proxy of §4.I: a pass-through
// RFB relay that forwards bytes unmodified in both directions while two
// protocol-aware observers decode client input and server framebuffer
// traffic into a plain-text script.
package proxy

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/sibson/vncdotool/internal/audit"
	"github.com/sibson/vncdotool/internal/logging"
	"github.com/sibson/vncdotool/internal/rfb"
	"github.com/sibson/vncdotool/internal/workerpool"
)

// Proxy accepts client connections on a listening socket and relays each
// to a fixed upstream RFB server, recording one script per connection.
type Proxy struct {
	upstream rfb.ServerAddress
	sink     ScriptSink
	pool     *workerpool.Pool
	log      *slog.Logger
	audit    *audit.Logger
	nextConn atomic.Int64
}

// New creates a proxy relaying to upstream and recording via sink, with
// at most maxConns concurrent client connections (workerpool-bounded, per
// SPEC_FULL.md's domain-stack wiring for this package). auditLog may be
// nil, in which case session lifecycle events are simply not recorded
// (audit.Logger.Log is a documented no-op on a nil receiver).
func New(upstream rfb.ServerAddress, sink ScriptSink, maxConns int, auditLog *audit.Logger) *Proxy {
	return &Proxy{
		upstream: upstream,
		sink:     sink,
		pool:     workerpool.New(maxConns, maxConns*4),
		log:      logging.L("proxy"),
		audit:    auditLog,
	}
}

// Serve accepts connections on ln until it errors or is closed. Each
// accepted connection is submitted to the bounded worker pool; a full
// pool causes that connection to be closed immediately rather than
// queued indefinitely, since an RFB client is not expecting a delayed
// accept.
func (p *Proxy) Serve(ln net.Listener) error {
	p.audit.Log(audit.EventProxyStart, "", map[string]any{"addr": ln.Addr().String(), "upstream": p.upstream.String()})
	defer p.audit.Log(audit.EventProxyStop, "", nil)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		accepted := conn
		if !p.pool.Submit(func() { p.handle(accepted) }) {
			p.log.Warn("proxy connection dropped: pool saturated")
			accepted.Close()
		}
	}
}

func (p *Proxy) handle(client net.Conn) {
	defer client.Close()

	connID := fmt.Sprintf("%s-%d", client.RemoteAddr(), p.nextConn.Add(1))
	connLog := logging.WithConn(p.log, connID)
	p.audit.Log(audit.EventSessionAccepted, connID, map[string]any{"remote": client.RemoteAddr().String()})
	defer p.audit.Log(audit.EventSessionClosed, connID, nil)

	upstream, err := net.Dial(p.upstream.Network(), p.upstream.String())
	if err != nil {
		connLog.Error("proxy upstream dial failed", "upstream", p.upstream.String(), "error", err)
		return
	}
	defer upstream.Close()

	rec, err := p.sink.Open()
	if err != nil {
		connLog.Error("proxy script sink open failed", "error", err)
		return
	}
	defer rec.Close()

	connLog.Info("session started")
	defer connLog.Info("session ended")

	shared := newSharedState(connID, p.audit)

	clientToUpstream, clientTap := io.Pipe()
	upstreamToClient, serverTap := io.Pipe()

	go func() {
		defer clientTap.Close()
		io.Copy(io.MultiWriter(upstream, clientTap), client)
	}()
	go func() {
		defer serverTap.Close()
		io.Copy(io.MultiWriter(client, serverTap), upstream)
	}()

	done := make(chan struct{}, 2)
	go func() {
		runClientObserver(clientToUpstream, rec, shared)
		done <- struct{}{}
	}()
	go func() {
		runServerObserver(upstreamToClient, rec, shared)
		done <- struct{}{}
	}()
	<-done
	<-done
}
