package rfb

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Framer accumulates inbound bytes from a connection and hands decoders an
// exact-length slice once it is available. §4.A describes this as a
// callback-driven "expect(handler, n)" registration over a growable buffer;
// in Go the single-consumer goroutine that owns a Session plays the role of
// that callback-driven drain loop, so Framer is a thin blocking reader: a
// call to ReadN blocks the Session's own goroutine (never a handler invoked
// from inside another read), which is exactly the re-entrancy guard §4.A
// asks for — there is no way to recursively re-enter a read from within a
// read on a single goroutine.
type Framer struct {
	r *bufio.Reader
}

// NewFramer wraps r with the buffering the decoders need to request
// arbitrary exact-length slices without performing many small syscalls.
func NewFramer(r io.Reader) *Framer {
	return &Framer{r: bufio.NewReaderSize(r, 64*1024)}
}

// ReadN blocks until exactly n bytes are available, then returns them.
// The returned slice is only valid until the next ReadN call.
func (f *Framer) ReadN(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(f.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (f *Framer) ReadByte() (byte, error) {
	return f.r.ReadByte()
}

func (f *Framer) ReadUint16() (uint16, error) {
	b, err := f.ReadN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (f *Framer) ReadUint32() (uint32, error) {
	b, err := f.ReadN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (f *Framer) ReadInt32() (int32, error) {
	v, err := f.ReadUint32()
	return int32(v), err
}

// Reader exposes the underlying buffered reader for callers that need an
// io.Reader rather than exact-length slices. The decoders do not use it:
// ZRLE reads its compressed chunk with ReadN.
func (f *Framer) Reader() io.Reader { return f.r }
