package compactwire

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/compress/zstd"

	"github.com/rawbytedev/bytebuf/internal/common"
)

// ReadFrame parses the frame at the start of data and returns it with the
// number of bytes it occupies. The frame body aliases data.
func ReadFrame(data []byte) (Frame, int, error) {
	if len(data) < MinFrameSize {
		return Frame{}, 0, fmt.Errorf("%w: %d bytes is shorter than a header", ErrMalformedFrame, len(data))
	}
	if data[0] != Magic0 || data[1] != Magic1 {
		return Frame{}, 0, fmt.Errorf("%w: bad magic %#02x%02x", ErrMalformedFrame, data[0], data[1])
	}
	length := binary.LittleEndian.Uint32(data[preambleSize:])
	if length < MinFrameSize || uint64(length) > uint64(len(data)) {
		return Frame{}, 0, fmt.Errorf("%w: length %d, have %d bytes", ErrMalformedFrame, length, len(data))
	}
	n := int(length)
	want := binary.LittleEndian.Uint32(data[n-crcSize:])
	if got := crc32.ChecksumIEEE(data[2 : n-crcSize]); got != want {
		return Frame{}, 0, fmt.Errorf("%w: got %08x, want %08x", ErrChecksum, got, want)
	}
	return Frame{Type: data[2], Body: data[headerSize : n-crcSize]}, n, nil
}

// ReadFrames splits a run of back-to-back frames, such as the output of
// Encoder.Flush.
func ReadFrames(data []byte) ([]Frame, error) {
	var frames []Frame
	for len(data) > 0 {
		f, n, err := ReadFrame(data)
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
		data = data[n:]
	}
	return frames, nil
}

// DefaultMaxPayload caps decompressed payloads when Decoder.MaxPayload is 0.
const DefaultMaxPayload = 16 << 20

// Decoder decodes frame bodies. It holds a lazily created zstd decoder, so
// reuse one Decoder for many frames and Close it when done.
type Decoder struct {
	// MaxPayload bounds the decompressed size of a FlagCompressed payload.
	// It is read when the first compressed frame is decoded.
	MaxPayload int

	zdec *zstd.Decoder
}

func (d *Decoder) Close() {
	if d.zdec != nil {
		d.zdec.Close()
		d.zdec = nil
	}
}

// DecodeData parses a complete data frame.
func (d *Decoder) DecodeData(data []byte) (DataFrame, error) {
	f, err := expect(data, TypeData)
	if err != nil {
		return DataFrame{}, err
	}
	return d.DataBody(f.Body)
}

// DataBody parses the body of a data frame already split by ReadFrame.
func (d *Decoder) DataBody(body []byte) (DataFrame, error) {
	if len(body) < 1 {
		return DataFrame{}, fmt.Errorf("%w: data frame without flags", ErrMalformedFrame)
	}
	df := DataFrame{Flags: body[0]}
	pos := 1
	if df.Flags&FlagHasOffsetTable != 0 {
		cnt, n := common.ReadUvarint(body[pos:])
		if n == 0 {
			return DataFrame{}, fmt.Errorf("%w: offset count", ErrMalformedFrame)
		}
		pos += n
		// every offset takes at least one byte
		if cnt > uint64(len(body)-pos) {
			return DataFrame{}, fmt.Errorf("%w: %d offsets in %d bytes", ErrMalformedFrame, cnt, len(body)-pos)
		}
		df.Offsets = make([]uint32, cnt)
		for i := range df.Offsets {
			off, n := common.ReadUvarint(body[pos:])
			if n == 0 || off > uint64(^uint32(0)) {
				return DataFrame{}, fmt.Errorf("%w: offset %d", ErrMalformedFrame, i)
			}
			df.Offsets[i] = uint32(off)
			pos += n
		}
	}
	df.Payload = body[pos:]
	if df.Flags&FlagCompressed != 0 {
		if d.zdec == nil {
			limit := d.MaxPayload
			if limit <= 0 {
				limit = DefaultMaxPayload
			}
			zdec, err := zstd.NewReader(nil,
				zstd.WithDecoderMaxMemory(uint64(limit)),
				zstd.WithDecoderConcurrency(1),
			)
			if err != nil {
				return DataFrame{}, fmt.Errorf("compactwire: zstd decoder: %w", err)
			}
			d.zdec = zdec
		}
		raw, err := d.zdec.DecodeAll(df.Payload, nil)
		if err != nil {
			return DataFrame{}, fmt.Errorf("%w: decompress: %v", ErrMalformedFrame, err)
		}
		df.Payload = raw
	}
	return df, nil
}

// DecodeError parses a complete error frame.
func DecodeError(data []byte) (ErrorFrame, error) {
	f, err := expect(data, TypeError)
	if err != nil {
		return ErrorFrame{}, err
	}
	b := f.Body
	if len(b) < 3 {
		return ErrorFrame{}, fmt.Errorf("%w: short error frame", ErrMalformedFrame)
	}
	n := int(binary.LittleEndian.Uint16(b[1:]))
	if len(b) != 3+n {
		return ErrorFrame{}, fmt.Errorf("%w: error data length %d, have %d", ErrMalformedFrame, n, len(b)-3)
	}
	return ErrorFrame{Code: b[0], Data: b[3:]}, nil
}

// DecodeHandshake parses a complete handshake frame.
func DecodeHandshake(data []byte) (Handshake, error) {
	f, err := expect(data, TypeHandshake)
	if err != nil {
		return Handshake{}, err
	}
	b := f.Body
	if len(b) < 10 {
		return Handshake{}, fmt.Errorf("%w: short handshake", ErrMalformedFrame)
	}
	h := Handshake{
		VersionMask: binary.LittleEndian.Uint16(b[0:]),
		MTU:         binary.LittleEndian.Uint16(b[2:]),
		TimeoutMS:   binary.LittleEndian.Uint32(b[4:]),
	}
	n := int(binary.LittleEndian.Uint16(b[8:]))
	if len(b) != 10+n {
		return Handshake{}, fmt.Errorf("%w: %d algorithm codes, have %d bytes", ErrMalformedFrame, n, len(b)-10)
	}
	h.AlgCodes = b[10:]
	return h, nil
}

func expect(data []byte, typ byte) (Frame, error) {
	f, n, err := ReadFrame(data)
	if err != nil {
		return Frame{}, err
	}
	if f.Type != typ {
		return Frame{}, fmt.Errorf("%w: got %#02x, want %#02x", ErrWrongType, f.Type, typ)
	}
	if n != len(data) {
		return Frame{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedFrame, len(data)-n)
	}
	return f, nil
}
