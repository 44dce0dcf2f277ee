package proxy

import (
	"sync"
	"time"

	"github.com/sibson/vncdotool/internal/audit"
	"github.com/sibson/vncdotool/internal/rfb"
)

// sharedState is the small amount of state the two observers of one
// connection need to coordinate: wall-clock timing for "pause <seconds>"
// lines, and the pixel format the client most recently negotiated (the
// server observer needs it to decode framebuffer rectangles; the client
// observer updates it when it sees an outbound SetPixelFormat).
type sharedState struct {
	mu            sync.Mutex
	lastEventTime time.Time
	pixelFormat   rfb.PixelFormat

	pendingExpect chan string
	authType      chan rfb.AuthType

	connID string
	audit  *audit.Logger
}

func newSharedState(connID string, auditLog *audit.Logger) *sharedState {
	return &sharedState{
		lastEventTime: time.Now(),
		pendingExpect: make(chan string, 16),
		authType:      make(chan rfb.AuthType, 1),
		connID:        connID,
		audit:         auditLog,
	}
}

// recordAuthResult logs the outcome of the security handshake the server
// observer watched pass by.
func (s *sharedState) recordAuthResult(authType rfb.AuthType, succeeded bool) {
	event := audit.EventAuthSucceeded
	if !succeeded {
		event = audit.EventAuthFailed
	}
	s.audit.Log(event, s.connID, map[string]any{"authType": int(authType)})
}

// publishAuthType is called by the client observer once it has read the
// security type the real client selected; the server observer needs this
// to know whether a VNC-Auth challenge precedes the security result.
func (s *sharedState) publishAuthType(t rfb.AuthType) {
	s.authType <- t
}

func (s *sharedState) waitAuthType() rfb.AuthType {
	return <-s.authType
}

// elapsed returns the seconds since the last recorded event and resets
// the clock, matching the script grammar's "pause <seconds>" prefix.
func (s *sharedState) elapsed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	dt := now.Sub(s.lastEventTime).Seconds()
	s.lastEventTime = now
	return dt
}

func (s *sharedState) setPixelFormat(pf rfb.PixelFormat) {
	s.mu.Lock()
	s.pixelFormat = pf
	s.mu.Unlock()
}

func (s *sharedState) getPixelFormat() rfb.PixelFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pixelFormat
}

// TriggerExpect queues an "expect <path>" line that the server observer
// emits at the top of its loop, before it reads the next server message;
// when a path is already pending, the new one is dropped.
func (s *sharedState) TriggerExpect(path string) {
	select {
	case s.pendingExpect <- path:
	default:
	}
}
