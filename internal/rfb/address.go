package rfb

import (
	"fmt"
	"strconv"
	"strings"
)

// ServerAddress is a parsed connection target per §6: HOST, HOST:DISPLAY
// (port = 5900+DISPLAY), HOST::PORT, :DISPLAY, ::PORT, [IPv6]:DISPLAY,
// [IPv6]::PORT, or a Unix socket path. Host defaults to 127.0.0.1, port
// to 5900.
type ServerAddress struct {
	Host       string
	Port       int
	UnixSocket string // non-empty for a Unix domain socket target
}

func (a ServerAddress) String() string {
	if a.UnixSocket != "" {
		return a.UnixSocket
	}
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Network is "unix" or "tcp", for use with net.Dial.
func (a ServerAddress) Network() string {
	if a.UnixSocket != "" {
		return "unix"
	}
	return "tcp"
}

// ParseServerAddress accepts the forms documented on ServerAddress.
func ParseServerAddress(s string) (ServerAddress, error) {
	if s == "" {
		return ServerAddress{}, fmt.Errorf("rfb: empty server address")
	}

	if looksLikeUnixPath(s) {
		return ServerAddress{UnixSocket: s}, nil
	}

	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return ServerAddress{}, fmt.Errorf("rfb: unterminated IPv6 address %q", s)
		}
		host := s[1:end]
		return resolveTrailer(host, s[end+1:])
	}

	if idx := strings.LastIndex(s, "::"); idx >= 0 {
		return resolveTrailer(s[:idx], "::"+s[idx+2:])
	}
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		return resolveTrailer(s[:idx], ":"+s[idx+1:])
	}
	return resolveTrailer(s, "")
}

// looksLikeUnixPath distinguishes a filesystem path ("/run/vnc.sock",
// "./vnc.sock") from a bare hostname.
func looksLikeUnixPath(s string) bool {
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../")
}

// resolveTrailer interprets a trailer of the form "", ":N", or "::N"
// (the leading marker distinguishes display-number from literal-port
// forms) against an optionally-empty host.
func resolveTrailer(host, trailer string) (ServerAddress, error) {
	if host == "" {
		host = "127.0.0.1"
	}

	switch {
	case trailer == "":
		return ServerAddress{Host: host, Port: 5900}, nil

	case strings.HasPrefix(trailer, "::"):
		port, err := strconv.Atoi(trailer[2:])
		if err != nil {
			return ServerAddress{}, fmt.Errorf("rfb: invalid port %q: %w", trailer[2:], err)
		}
		return ServerAddress{Host: host, Port: port}, nil

	case strings.HasPrefix(trailer, ":"):
		display, err := strconv.Atoi(trailer[1:])
		if err != nil {
			return ServerAddress{}, fmt.Errorf("rfb: invalid display %q: %w", trailer[1:], err)
		}
		return ServerAddress{Host: host, Port: 5900 + display}, nil

	default:
		return ServerAddress{}, fmt.Errorf("rfb: malformed address trailer %q", trailer)
	}
}
