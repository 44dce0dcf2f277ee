package rfb

import (
	"io"

	"github.com/sibson/vncdotool/internal/secmem"
)

// AuthContext carries what a security handshake needs from the caller:
// the password for VNC-Auth, or the username/password pair ARD-DH hashes
// into its AES key. Both fields hold SecureString so a failed or
// abandoned connection never leaves cleartext lingering past the
// handshake.
type AuthContext struct {
	Username *secmem.SecureString
	Password *secmem.SecureString
}

// authenticator performs one security type's challenge/response, reading
// via framer and writing via w, and reports success or an
// *AuthenticationError.
type authenticator func(framer *Framer, w io.Writer, ctx AuthContext) error

var authenticators = map[AuthType]authenticator{
	AuthNone: authNone,
	AuthVNC:  authVNC,
	AuthARD:  authARD,
}

func authNone(framer *Framer, w io.Writer, ctx AuthContext) error {
	return nil
}

func writeAll(w io.Writer, buf []byte) error {
	_, err := w.Write(buf)
	return err
}

// chooseAuthType picks the first mutually-supported type from a
// server-offered list, preferring stronger schemes (§4.D: ARD-DH over
// VNC-Auth over None). When preferred is not AuthInvalid and the server
// offers it, it wins outright over the default preference order.
func chooseAuthType(offered []AuthType, preferred AuthType) (AuthType, error) {
	supported := make(map[AuthType]bool, len(offered))
	for _, t := range offered {
		supported[t] = true
	}
	if preferred != AuthInvalid && supported[preferred] {
		return preferred, nil
	}
	for _, t := range supportedAuthTypes {
		if supported[t] {
			return t, nil
		}
	}
	return AuthInvalid, &AuthenticationError{Reason: "no mutually supported security type"}
}
