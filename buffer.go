package bytebuf

import (
	"fmt"
)

// Buffer is a fixed-capacity byte container with a write cursor.
//
// The first Len bytes of the storage are the written prefix; the remaining
// Cap-Len bytes are reserved space. Capacity only changes through Reserve,
// Resize and Split: Put never grows the storage.
//
// A Buffer must not be used from several goroutines at once. The zero value
// is an empty Buffer with no capacity.
type Buffer struct {
	buf []byte // len(buf) is the capacity
	off int    // write cursor, 0 <= off <= len(buf)
}

// New returns a Buffer with n zeroed bytes of capacity and nothing written.
// It panics if n is negative.
func New(n int) *Buffer {
	if n < 0 {
		panic("bytebuf: negative capacity")
	}
	return &Buffer{buf: make([]byte, n)}
}

// From returns a full Buffer holding a copy of p.
func From(p []byte) *Buffer {
	b := New(len(p))
	// cannot fail: capacity is exactly len(p)
	_ = b.Put(p)
	return b
}

// Cap returns the number of bytes allocated.
func (b *Buffer) Cap() int { return len(b.buf) }

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return b.off }

// Available returns how many bytes can still be Put without reserving.
func (b *Buffer) Available() int { return len(b.buf) - b.off }

// Clear zeroes the storage and rewinds the cursor. Capacity is kept.
func (b *Buffer) Clear() {
	clear(b.buf)
	b.off = 0
}

// Reserve grows the capacity by exactly size bytes.
//
// Only the written prefix survives the reallocation; the new storage is zero
// everywhere else, including where the old reserved tail used to be. It panics
// if size is negative.
func (b *Buffer) Reserve(size int) {
	if size < 0 {
		panic("bytebuf: negative reserve size")
	}
	if size == 0 {
		return
	}
	grown := make([]byte, len(b.buf)+size)
	copy(grown, b.buf[:b.off])
	b.buf = grown
}

// Put copies p at the cursor and advances it by len(p).
//
// If p does not fit in the remaining capacity Put returns a *CapacityError
// and leaves the Buffer untouched.
func (b *Buffer) Put(p []byte) error {
	if len(p) > b.Available() {
		return &CapacityError{Len: b.off, Cap: len(b.buf), Need: len(p)}
	}
	b.off += copy(b.buf[b.off:], p)
	return nil
}

// Write implements io.Writer on top of Put. A write either lands completely
// or not at all, so n is always 0 or len(p).
func (b *Buffer) Write(p []byte) (n int, err error) {
	if err := b.Put(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	if b.Available() < 1 {
		return &CapacityError{Len: b.off, Cap: len(b.buf), Need: 1}
	}
	b.buf[b.off] = c
	b.off++
	return nil
}

// Split hands the written prefix over to a new full Buffer.
//
// The receiver keeps only its reserved tail: it gets fresh zeroed storage of
// Cap()-Len() bytes and its cursor goes back to 0. A full Buffer ends up with
// no capacity at all.
func (b *Buffer) Split() *Buffer {
	// The old storage moves to head without a copy. Capping it at off keeps
	// head from ever seeing the tail bytes, and b drops its reference below.
	head := &Buffer{buf: b.buf[:b.off:b.off], off: b.off}
	b.buf = make([]byte, len(b.buf)-b.off)
	b.off = 0
	return head
}

// Resize sets the capacity to exactly size bytes.
//
// Growing behaves like Reserve. Shrinking drops everything past size and
// clamps the cursor to the new capacity. It panics if size is negative.
func (b *Buffer) Resize(size int) {
	switch {
	case size < 0:
		panic("bytebuf: negative resize")
	case size > len(b.buf):
		b.Reserve(size - len(b.buf))
	case size < len(b.buf):
		shrunk := make([]byte, size)
		copy(shrunk, b.buf)
		b.buf = shrunk
		b.off = min(b.off, size)
	}
}

// Freeze returns a copy of the written prefix. The result is never nil and
// shares nothing with the Buffer.
func (b *Buffer) Freeze() []byte {
	out := make([]byte, b.off)
	copy(out, b.buf)
	return out
}

// Clone returns an independent copy of the whole storage, reserved tail
// included, with the same cursor.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{buf: make([]byte, len(b.buf)), off: b.off}
	copy(c.buf, b.buf)
	return c
}

func (b *Buffer) String() string {
	return fmt.Sprintf("bytebuf.Buffer{len: %d, cap: %d}", b.off, len(b.buf))
}
