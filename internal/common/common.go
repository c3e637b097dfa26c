package common

// MaxVarintLen is the longest encoding of a uint64.
const MaxVarintLen = 10

// encodeUvarint writes x into s, 7 bits per byte with the high bit marking
// continuation, and returns the number of bytes used.
func encodeUvarint(s *[MaxVarintLen]byte, x uint64) int {
	i := 0
	for ; x >= 0x80; i++ {
		s[i] = byte(x) | 0x80
		x >>= 7
	}
	s[i] = byte(x)
	return i + 1
}

// UvarintLen returns how many bytes AppendUvarint writes for x.
func UvarintLen(x uint64) int {
	var s [MaxVarintLen]byte
	return encodeUvarint(&s, x)
}

// AppendUvarint appends varint-encoded x to dst.
func AppendUvarint(dst []byte, x uint64) []byte {
	var s [MaxVarintLen]byte
	n := encodeUvarint(&s, x)
	return append(dst, s[:n]...)
}

// ReadUvarint decodes a varint from b returning value and bytes consumed.
// It returns 0, 0 when b ends mid-varint or the value overflows 64 bits.
func ReadUvarint(b []byte) (uint64, int) {
	var x uint64
	var s uint
	for i, c := range b {
		if i == MaxVarintLen-1 && c > 1 {
			// the tenth byte only has room for bit 63
			return 0, 0
		}
		x |= uint64(c&0x7F) << s
		if c&0x80 == 0 {
			return x, i + 1
		}
		s += 7
	}
	return 0, 0
}
