// Package bytebuf provides Buffer, a byte container with explicit capacity
// and a write cursor, for code that assembles messages or records piece by
// piece.
//
// Capacity never changes behind the caller's back: Put fails with a
// *CapacityError instead of growing, and the caller decides when to Reserve
// or Resize. Finished data leaves the Buffer through Freeze (a copy of the
// written bytes), Split (ownership of the written bytes moves to a new
// Buffer while the reserved headroom stays behind) or Clone (a full copy).
//
//	b := bytebuf.New(4)
//	_ = b.Put([]byte{1, 2})
//	if err := b.Put([]byte{3, 4, 5}); errors.Is(err, bytebuf.ErrInsufficientCapacity) {
//		b.Reserve(1)
//		_ = b.Put([]byte{3, 4, 5})
//	}
//	b.Freeze() // [1 2 3 4 5]
package bytebuf
