package rfb

import "fmt"

// ProtocolError indicates malformed or unexpected bytes from the server:
// an unknown encoding, unknown message id, a zlib error, or a decoder
// invariant violation. It is always fatal to the session.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "rfb: protocol error: " + e.Reason }

func protocolErrorf(format string, args ...any) error {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// AuthenticationError indicates a missing password or a server-reported
// authentication failure. Always fatal.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string { return "rfb: authentication failed: " + e.Reason }

// ConnectionError wraps a transport-level failure (dial, reset).
type ConnectionError struct {
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return "rfb: connection error: " + e.Reason + ": " + e.Err.Error()
	}
	return "rfb: connection error: " + e.Reason
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError indicates an armed deadline expired.
type TimeoutError struct {
	Reason string
}

func (e *TimeoutError) Error() string { return "rfb: timeout: " + e.Reason }
