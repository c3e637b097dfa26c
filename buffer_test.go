package bytebuf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	b := New(8)
	require.Equal(t, 8, b.Cap())
	require.Equal(t, 0, b.Len())
	require.Equal(t, 8, b.Available())
	require.Equal(t, make([]byte, 8), b.Clone().buf)
	require.Empty(t, b.Freeze())
	require.NotNil(t, b.Freeze())
}

func TestNewNegativePanics(t *testing.T) {
	require.Panics(t, func() { New(-1) })
}

func TestZeroValue(t *testing.T) {
	var b Buffer
	require.Zero(t, b.Cap())
	require.Zero(t, b.Len())
	require.ErrorIs(t, b.Put([]byte{1}), ErrInsufficientCapacity)
	require.NoError(t, b.Put(nil))
	b.Reserve(2)
	require.NoError(t, b.Put([]byte{1, 2}))
	require.Equal(t, []byte{1, 2}, b.Freeze())
}

func TestFrom(t *testing.T) {
	src := []byte("record")
	b := From(src)
	require.Equal(t, len(src), b.Cap())
	require.Equal(t, len(src), b.Len())
	require.Equal(t, src, b.Freeze())

	// From copies its input
	src[0] = 'X'
	require.Equal(t, []byte("record"), b.Freeze())
}

func TestPutAdvancesCursor(t *testing.T) {
	b := New(6)
	require.NoError(t, b.Put([]byte{1, 2}))
	require.NoError(t, b.Put([]byte{}))
	require.NoError(t, b.Put([]byte{3, 4, 5, 6}))
	require.Equal(t, 6, b.Len())
	require.Zero(t, b.Available())
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, b.Freeze())
}

func TestPutIsAtomic(t *testing.T) {
	b := New(4)
	require.NoError(t, b.Put([]byte{1, 2}))
	before := b.Clone()

	err := b.Put([]byte{3, 4, 5})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInsufficientCapacity)

	var ce *CapacityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, CapacityError{Len: 2, Cap: 4, Need: 3}, *ce)
	assert.Equal(t, 1, ce.Shortfall())
	assert.Equal(t, "bytebuf: insufficient capacity: need 3 bytes, have 2 available", err.Error())

	require.Equal(t, before, b)
}

func TestWorkedExample(t *testing.T) {
	b := New(4)
	require.NoError(t, b.Put([]byte{1, 2}))
	require.Equal(t, []byte{1, 2}, b.Freeze())
	require.ErrorIs(t, b.Put([]byte{3, 4, 5}), ErrInsufficientCapacity)
	b.Reserve(1)
	require.NoError(t, b.Put([]byte{3, 4, 5}))
	require.Equal(t, []byte{1, 2, 3, 4, 5}, b.Freeze())
}

func TestClear(t *testing.T) {
	b := From([]byte{9, 9, 9})
	b.Clear()
	require.Equal(t, 3, b.Cap())
	require.Zero(t, b.Len())
	require.Equal(t, []byte{0, 0, 0}, b.buf)
}

func TestReserve(t *testing.T) {
	b := New(2)
	require.NoError(t, b.Put([]byte{7}))
	b.Reserve(3)
	require.Equal(t, 5, b.Cap())
	require.Equal(t, 1, b.Len())
	require.Equal(t, []byte{7}, b.Freeze())
	require.Equal(t, []byte{7, 0, 0, 0, 0}, b.buf)

	b.Reserve(0)
	require.Equal(t, 5, b.Cap())
	require.Panics(t, func() { b.Reserve(-1) })
}

// Reserve keeps only the written prefix. The public API never leaves data in
// the reserved tail, so the storage is seeded by hand here.
func TestReserveDropsReservedTail(t *testing.T) {
	b := &Buffer{buf: []byte{1, 2, 3, 4}, off: 2}
	b.Reserve(2)
	require.Equal(t, []byte{1, 2, 0, 0, 0, 0}, b.buf)
	require.Equal(t, []byte{1, 2}, b.Freeze())

	full := From([]byte{1, 2, 3, 4})
	full.Reserve(1)
	require.Equal(t, []byte{1, 2, 3, 4, 0}, full.buf)
}

func TestResize(t *testing.T) {
	b := New(4)
	require.NoError(t, b.Put([]byte{1, 2, 3}))

	b.Resize(4)
	require.Equal(t, 4, b.Cap())
	require.Equal(t, []byte{1, 2, 3}, b.Freeze())

	b.Resize(10)
	require.Equal(t, 10, b.Cap())
	require.Equal(t, 3, b.Len())

	b.Resize(4)
	require.Equal(t, 4, b.Cap())
	require.Equal(t, []byte{1, 2, 3}, b.Freeze())

	b.Resize(2)
	require.Equal(t, 2, b.Cap())
	require.Equal(t, 2, b.Len())
	require.Equal(t, []byte{1, 2}, b.Freeze())

	b.Resize(0)
	require.Zero(t, b.Cap())
	require.Zero(t, b.Len())
	require.Empty(t, b.Freeze())

	require.Panics(t, func() { b.Resize(-3) })
}

func TestResizeShrinkReleasesStorage(t *testing.T) {
	b := New(16)
	require.NoError(t, b.Put([]byte{1, 2, 3, 4}))
	b.Resize(3)
	require.Equal(t, 3, cap(b.buf))
}

func TestSplit(t *testing.T) {
	b := New(10)
	require.NoError(t, b.Put([]byte{1, 2, 3}))

	head := b.Split()
	require.Equal(t, 3, head.Cap())
	require.Equal(t, 3, head.Len())
	require.Equal(t, []byte{1, 2, 3}, head.Freeze())

	require.Equal(t, 7, b.Cap())
	require.Zero(t, b.Len())
	require.Equal(t, make([]byte, 7), b.buf)

	// the two halves no longer share storage
	require.NoError(t, b.Put([]byte{4, 5}))
	require.Equal(t, []byte{1, 2, 3}, head.Freeze())
	head.Reserve(1)
	require.NoError(t, head.Put([]byte{6}))
	require.Equal(t, []byte{4, 5}, b.Freeze())
}

func TestSplitFull(t *testing.T) {
	b := From([]byte{1, 2})
	head := b.Split()
	require.Equal(t, []byte{1, 2}, head.Freeze())
	require.Zero(t, b.Cap())
	require.Zero(t, b.Len())
}

func TestSplitEmpty(t *testing.T) {
	b := New(5)
	head := b.Split()
	require.Zero(t, head.Cap())
	require.Zero(t, head.Len())
	require.Equal(t, 5, b.Cap())
}

func TestSplitHeadCannotReachTail(t *testing.T) {
	b := New(8)
	require.NoError(t, b.Put([]byte{1, 2}))
	head := b.Split()
	require.Equal(t, 2, cap(head.buf))
}

func TestFreezeIsACopy(t *testing.T) {
	b := From([]byte{1, 2, 3})
	out := b.Freeze()
	out[0] = 42
	require.Equal(t, []byte{1, 2, 3}, b.Freeze())

	b.Clear()
	require.Equal(t, []byte{42, 2, 3}, out)
}

func TestClone(t *testing.T) {
	b := New(6)
	require.NoError(t, b.Put([]byte{1, 2}))
	c := b.Clone()
	require.Equal(t, b.Cap(), c.Cap())
	require.Equal(t, b.Len(), c.Len())
	require.Equal(t, b.buf, c.buf)

	require.NoError(t, c.Put([]byte{3}))
	require.Equal(t, []byte{1, 2}, b.Freeze())

	require.NoError(t, b.Put([]byte{9, 9}))
	c.Clear()
	require.Equal(t, []byte{1, 2, 9, 9}, b.Freeze())
	require.Empty(t, c.Freeze())
}

func TestCloneCopiesReservedTail(t *testing.T) {
	b := &Buffer{buf: []byte{1, 2, 3, 4}, off: 1}
	c := b.Clone()
	require.Equal(t, []byte{1, 2, 3, 4}, c.buf)
	require.Equal(t, 1, c.Len())
}

func TestWrite(t *testing.T) {
	b := New(6)
	var w io.Writer = b
	n, err := w.Write([]byte{1, 2})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, binary.Write(b, binary.LittleEndian, uint32(0x04030201)))
	require.Equal(t, []byte{1, 2, 1, 2, 3, 4}, b.Freeze())

	n, err = w.Write([]byte{5})
	require.ErrorIs(t, err, ErrInsufficientCapacity)
	require.Zero(t, n)
}

func TestWriteByte(t *testing.T) {
	b := New(1)
	require.NoError(t, b.WriteByte('a'))
	require.ErrorIs(t, b.WriteByte('b'), ErrInsufficientCapacity)
	require.Equal(t, []byte("a"), b.Freeze())
}

func TestFprintf(t *testing.T) {
	b := New(16)
	_, err := fmt.Fprintf(b, "id=%d", 42)
	require.NoError(t, err)
	require.Equal(t, "id=42", string(b.Freeze()))
}

func TestString(t *testing.T) {
	b := New(4)
	require.NoError(t, b.Put([]byte{1}))
	require.Equal(t, "bytebuf.Buffer{len: 1, cap: 4}", b.String())
}

func TestValues(t *testing.T) {
	require.Equal(t, []byte{0, 1, 255, 0, 255, 44}, Values([]int{0, 1, 255, 256, -1, 300}))
	require.Equal(t, []byte{}, Values([]uint16(nil)))
}

func TestFromValues(t *testing.T) {
	b := FromValues([]int{1, 2, 3})
	require.Equal(t, 3, b.Cap())
	require.Equal(t, 3, b.Len())
	require.Equal(t, []byte{1, 2, 3}, b.Freeze())
}

func TestFromSeq(t *testing.T) {
	b := FromSeq(slices.Values([]int32{10, 20, 30, 256 + 40}))
	require.Equal(t, 4, b.Cap())
	require.Equal(t, []byte{10, 20, 30, 40}, b.Freeze())

	empty := FromSeq(slices.Values([]int{}))
	require.Zero(t, empty.Cap())
}

func TestPutValues(t *testing.T) {
	b := New(3)
	require.NoError(t, PutValues(b, []uint64{7, 8}))
	err := PutValues(b, []int{1, 2})
	require.ErrorIs(t, err, ErrInsufficientCapacity)
	require.Equal(t, []byte{7, 8}, b.Freeze())
}

func TestPutSeqIsAtomic(t *testing.T) {
	b := New(3)
	require.NoError(t, PutSeq(b, slices.Values([]int{1})))
	err := PutSeq(b, slices.Values([]int{2, 3, 4}))
	require.ErrorIs(t, err, ErrInsufficientCapacity)
	require.Equal(t, 1, b.Len())
	require.NoError(t, PutSeq(b, slices.Values([]int{2, 3})))
	require.Equal(t, []byte{1, 2, 3}, b.Freeze())
}
