package rfb

import (
	"crypto/des"
	"io"
)

const vncChallengeSize = 16

// authVNC performs RFC 6143 §7.2.2's VNC Authentication: a 16-byte
// challenge is DES-ECB encrypted, 8 bytes at a time, using the password
// (truncated/zero-padded to 8 bytes) as the key — with each key byte's
// bits reversed, a long-standing quirk of the original RealVNC
// implementation that every compatible client must reproduce.
//
// crypto/cipher deliberately omits an ECB BlockMode (it is not a secure
// mode for general use), so the two 8-byte blocks are encrypted directly
// via cipher.Block.Encrypt, which is exactly ECB for a single block.
func authVNC(framer *Framer, w io.Writer, ctx AuthContext) error {
	if ctx.Password == nil {
		return &AuthenticationError{Reason: "VNC-Auth requires a password"}
	}

	challenge, err := framer.ReadN(vncChallengeSize)
	if err != nil {
		return err
	}

	key := vncAuthKey(ctx.Password.String())
	block, err := des.NewCipher(key)
	if err != nil {
		return &AuthenticationError{Reason: "des key setup: " + err.Error()}
	}

	response := make([]byte, vncChallengeSize)
	block.Encrypt(response[0:8], challenge[0:8])
	block.Encrypt(response[8:16], challenge[8:16])

	return writeAll(w, response)
}

// vncAuthKey builds the 8-byte DES key: the password's first 8 bytes
// (zero-padded if shorter), each byte with its bits reversed.
func vncAuthKey(password string) []byte {
	key := make([]byte, 8)
	copy(key, password)
	for i, b := range key {
		key[i] = reverseBits(b)
	}
	return key
}

func reverseBits(b byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}
