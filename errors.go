package bytebuf

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientCapacity matches every *CapacityError under errors.Is.
	ErrInsufficientCapacity = errors.New("bytebuf: insufficient capacity")
)

// CapacityError reports a Put that did not fit. The Buffer it came from is
// unchanged, so the caller can Reserve at least Need-(Cap-Len) bytes and
// retry.
type CapacityError struct {
	Len  int // cursor at the time of the call
	Cap  int // capacity at the time of the call
	Need int // bytes the caller tried to write
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: need %d bytes, have %d available", ErrInsufficientCapacity, e.Need, e.Cap-e.Len)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}

// Shortfall is the number of bytes that must be reserved for the failed
// write to succeed.
func (e *CapacityError) Shortfall() int {
	return e.Need - (e.Cap - e.Len)
}
