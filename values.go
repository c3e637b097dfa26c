package bytebuf

import "iter"

// Integer is the set of element types accepted as byte values.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Values converts integer byte values to a byte slice. Each value keeps its
// low 8 bits only, so 256 becomes 0 and -1 becomes 255.
func Values[T Integer](vals []T) []byte {
	out := make([]byte, len(vals))
	for i, v := range vals {
		out[i] = byte(v)
	}
	return out
}

// Collect drains a finite sequence of integer byte values with the same
// truncation rule as Values.
func Collect[T Integer](seq iter.Seq[T]) []byte {
	out := []byte{}
	for v := range seq {
		out = append(out, byte(v))
	}
	return out
}

// FromValues is From for a slice of integer byte values.
func FromValues[T Integer](vals []T) *Buffer {
	return From(Values(vals))
}

// FromSeq is From for a finite sequence of integer byte values.
func FromSeq[T Integer](seq iter.Seq[T]) *Buffer {
	return From(Collect(seq))
}

// PutValues is Put for a slice of integer byte values.
func PutValues[T Integer](b *Buffer, vals []T) error {
	if len(vals) > b.Available() {
		return &CapacityError{Len: b.off, Cap: len(b.buf), Need: len(vals)}
	}
	return b.Put(Values(vals))
}

// PutSeq is Put for a finite sequence of integer byte values. The sequence is
// collected first, so nothing is written when it turns out too long.
func PutSeq[T Integer](b *Buffer, seq iter.Seq[T]) error {
	return b.Put(Collect(seq))
}
