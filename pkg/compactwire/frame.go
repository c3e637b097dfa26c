// Package compactwire encodes small self-checking frames (data, error and
// handshake) into a bytebuf.Buffer and decodes them back.
//
// Every frame shares one layout, little endian:
//
//	magic(2) type(1) length(4) body(...) crc32(4)
//
// length counts the whole frame, magic and CRC included. The CRC is IEEE
// CRC-32 over everything between the magic and the CRC itself.
package compactwire

import (
	"errors"
)

const (
	Magic0 byte = 0xCB
	Magic1 byte = 0x57

	TypeData      byte = 0x01
	TypeError     byte = 0x02
	TypeHandshake byte = 0x03

	// Data frame flags.
	FlagHasOffsetTable byte = 1 << 0
	FlagCompressed     byte = 1 << 1

	preambleSize = 3 // magic + type
	lengthSize   = 4
	crcSize      = 4
	headerSize   = preambleSize + lengthSize

	// MinFrameSize is the size of a frame with an empty body.
	MinFrameSize = headerSize + crcSize
)

var (
	ErrMalformedFrame = errors.New("compactwire: malformed frame")
	ErrChecksum       = errors.New("compactwire: crc mismatch")
	ErrWrongType      = errors.New("compactwire: unexpected frame type")
	ErrFrameTooLarge  = errors.New("compactwire: frame too large")
)

// Frame is one undecoded frame. Body aliases the input it was read from.
type Frame struct {
	Type byte
	Body []byte
}

// DataFrame is the decoded form of a TypeData frame. Payload is already
// decompressed when FlagCompressed was set.
type DataFrame struct {
	Flags   byte
	Offsets []uint32
	Payload []byte
}

// ErrorFrame carries an application error code and optional detail bytes.
type ErrorFrame struct {
	Code byte
	Data []byte
}

// Handshake is exchanged once per connection to agree on limits.
type Handshake struct {
	VersionMask uint16
	MTU         uint16
	TimeoutMS   uint32
	AlgCodes    []byte
}
