package rfb

import (
	"crypto/aes"
	"crypto/md5"
	"crypto/rand"
	"io"
	"math/big"

	"github.com/sibson/vncdotool/internal/secmem"
)

const (
	ardCredentialFieldSize = 64
	ardAESBlockSize        = 16
)

// authARD performs Apple Remote Desktop's Diffie-Hellman key exchange
// (security type 30), per §4.D: the server announces a generator, prime
// modulus, and its own DH public key; the client picks a private
// exponent, derives its own public key and the shared secret, MD5-hashes
// the secret into an AES-128 key, and returns its public key alongside
// the username/password encrypted with that key under AES-ECB.
func authARD(framer *Framer, w io.Writer, ctx AuthContext) error {
	genLen, err := framer.ReadUint16()
	if err != nil {
		return err
	}
	genBytes, err := framer.ReadN(int(genLen))
	if err != nil {
		return err
	}
	generator := new(big.Int).SetBytes(genBytes)

	keyLen, err := framer.ReadUint16()
	if err != nil {
		return err
	}
	primeBytes, err := framer.ReadN(int(keyLen))
	if err != nil {
		return err
	}
	prime := new(big.Int).SetBytes(primeBytes)

	peerYBytes, err := framer.ReadN(int(keyLen))
	if err != nil {
		return err
	}
	peerY := new(big.Int).SetBytes(peerYBytes)

	privateKey, err := rand.Int(rand.Reader, prime)
	if err != nil {
		return &AuthenticationError{Reason: "ard: private key generation: " + err.Error()}
	}

	publicKey := new(big.Int).Exp(generator, privateKey, prime)
	shared := new(big.Int).Exp(peerY, privateKey, prime)

	aesKey := md5.Sum(leftPad(shared.Bytes(), int(keyLen)))

	block, err := aes.NewCipher(aesKey[:])
	if err != nil {
		return &AuthenticationError{Reason: "ard: aes key setup: " + err.Error()}
	}

	creds := make([]byte, 2*ardCredentialFieldSize)
	if _, err := rand.Read(creds); err != nil {
		return &AuthenticationError{Reason: "ard: padding randomization: " + err.Error()}
	}
	putCredentialField(creds[0:ardCredentialFieldSize], ctx.Username)
	putCredentialField(creds[ardCredentialFieldSize:2*ardCredentialFieldSize], ctx.Password)

	encrypted := make([]byte, len(creds))
	for off := 0; off < len(creds); off += ardAESBlockSize {
		block.Encrypt(encrypted[off:off+ardAESBlockSize], creds[off:off+ardAESBlockSize])
	}

	out := make([]byte, 0, int(keyLen)+len(encrypted))
	out = append(out, leftPad(publicKey.Bytes(), int(keyLen))...)
	out = append(out, encrypted...)
	return writeAll(w, out)
}

// putCredentialField writes s null-terminated into field, leaving any
// remaining bytes as the random padding already placed there.
func putCredentialField(field []byte, s *secmem.SecureString) {
	if s == nil {
		return
	}
	v := s.String()
	n := copy(field, v)
	if n < len(field) {
		field[n] = 0
	}
}

// leftPad zero-pads b on the left to exactly n bytes; big.Int.Bytes
// drops leading zero bytes that the fixed-width wire fields require.
func leftPad(b []byte, n int) []byte {
	if len(b) >= n {
		return b[len(b)-n:]
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}
