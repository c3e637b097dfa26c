package compactwire

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/rawbytedev/bytebuf"
	"github.com/rawbytedev/bytebuf/internal/common"
)

type Options struct {
	// Headroom is reserved up front and restored after every Flush, so
	// frames that fit in it never reallocate.
	Headroom int
	// MaxFrame rejects frames larger than this many bytes. 0 means the
	// format limit (a uint32 length).
	MaxFrame int
	// Level is the zstd level for FlagCompressed payloads. Zero picks the
	// library default.
	Level zstd.EncoderLevel
}

// Encoder appends frames to an internal bytebuf.Buffer. Each frame is sized
// before it is written, so the buffer grows by exact reservations and a
// frame is never half written.
type Encoder struct {
	opts Options
	buf  *bytebuf.Buffer
	zenc *zstd.Encoder
	crc  hash.Hash32

	compressed []byte
	scratch    [common.MaxVarintLen]byte
}

func NewEncoder(opts Options) *Encoder {
	return &Encoder{
		opts: opts,
		buf:  bytebuf.New(max(opts.Headroom, 0)),
		crc:  crc32.NewIEEE(),
	}
}

// Buffered returns the number of encoded bytes not yet flushed.
func (e *Encoder) Buffered() int { return e.buf.Len() }

// Available returns the reserved space left before the next reallocation.
func (e *Encoder) Available() int { return e.buf.Available() }

// FlushBuffer hands over every frame encoded since the last flush as a full
// Buffer, without copying them. The encoder keeps its unused reservation and
// tops it back up to Headroom.
func (e *Encoder) FlushBuffer() *bytebuf.Buffer {
	frames := e.buf.Split()
	if short := e.opts.Headroom - e.buf.Cap(); short > 0 {
		e.buf.Reserve(short)
	}
	return frames
}

// Flush is FlushBuffer followed by Freeze: it costs one extra copy of the
// flushed frames in exchange for a plain byte slice.
func (e *Encoder) Flush() []byte {
	return e.FlushBuffer().Freeze()
}

// Close releases the zstd encoder, if one was created.
func (e *Encoder) Close() error {
	if e.zenc == nil {
		return nil
	}
	err := e.zenc.Close()
	e.zenc = nil
	return err
}

// EncodeData appends a data frame. With FlagHasOffsetTable the offsets are
// written as a varint table in front of the payload; with FlagCompressed the
// payload is zstd compressed.
func (e *Encoder) EncodeData(payload []byte, flags byte, offsets []uint32) error {
	if flags&FlagCompressed != 0 {
		if err := e.compress(payload); err != nil {
			return err
		}
		payload = e.compressed
	}
	body := 1 + len(payload)
	if flags&FlagHasOffsetTable != 0 {
		body += common.UvarintLen(uint64(len(offsets)))
		for _, off := range offsets {
			body += common.UvarintLen(uint64(off))
		}
	}
	w, err := e.begin(TypeData, body)
	if err != nil {
		return err
	}
	w.u8(flags)
	if flags&FlagHasOffsetTable != 0 {
		w.uvarint(uint64(len(offsets)))
		for _, off := range offsets {
			w.uvarint(uint64(off))
		}
	}
	w.bytes(payload)
	return w.finish()
}

// EncodeError appends an error frame. data is limited to 64KiB-1 bytes.
func (e *Encoder) EncodeError(code byte, data []byte) error {
	if len(data) > math.MaxUint16 {
		return fmt.Errorf("%w: error data is %d bytes", ErrFrameTooLarge, len(data))
	}
	w, err := e.begin(TypeError, 1+2+len(data))
	if err != nil {
		return err
	}
	w.u8(code)
	w.u16(uint16(len(data)))
	w.bytes(data)
	return w.finish()
}

// EncodeHandshake appends a handshake frame.
func (e *Encoder) EncodeHandshake(h Handshake) error {
	if len(h.AlgCodes) > math.MaxUint16 {
		return fmt.Errorf("%w: %d algorithm codes", ErrFrameTooLarge, len(h.AlgCodes))
	}
	w, err := e.begin(TypeHandshake, 2+2+4+2+len(h.AlgCodes))
	if err != nil {
		return err
	}
	w.u16(h.VersionMask)
	w.u16(h.MTU)
	w.u32(h.TimeoutMS)
	w.u16(uint16(len(h.AlgCodes)))
	w.bytes(h.AlgCodes)
	return w.finish()
}

func (e *Encoder) compress(payload []byte) error {
	if e.zenc == nil {
		var opts []zstd.EOption
		if e.opts.Level != 0 {
			opts = append(opts, zstd.WithEncoderLevel(e.opts.Level))
		}
		zenc, err := zstd.NewWriter(nil, opts...)
		if err != nil {
			return fmt.Errorf("compactwire: zstd encoder: %w", err)
		}
		e.zenc = zenc
	}
	e.compressed = e.zenc.EncodeAll(payload, e.compressed[:0])
	return nil
}

// begin checks the frame size, reserves room for it and writes the header.
func (e *Encoder) begin(typ byte, body int) (*frameWriter, error) {
	size := headerSize + body + crcSize
	if uint64(size) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	if e.opts.MaxFrame > 0 && size > e.opts.MaxFrame {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, size, e.opts.MaxFrame)
	}
	if short := size - e.buf.Available(); short > 0 {
		e.buf.Reserve(short)
	}
	e.crc.Reset()
	w := &frameWriter{e: e, end: e.buf.Len() + size}
	// magic is outside the checksum
	w.err = e.buf.Put([]byte{Magic0, Magic1})
	w.u8(typ)
	w.u32(uint32(size))
	return w, nil
}

type frameWriter struct {
	e   *Encoder
	end int // expected buffer length once the frame is complete
	err error
}

func (w *frameWriter) bytes(p []byte) {
	if w.err != nil {
		return
	}
	if w.err = w.e.buf.Put(p); w.err == nil {
		w.e.crc.Write(p)
	}
}

func (w *frameWriter) u8(v byte) {
	w.e.scratch[0] = v
	w.bytes(w.e.scratch[:1])
}

func (w *frameWriter) u16(v uint16) {
	w.bytes(binary.LittleEndian.AppendUint16(w.e.scratch[:0], v))
}

func (w *frameWriter) u32(v uint32) {
	w.bytes(binary.LittleEndian.AppendUint32(w.e.scratch[:0], v))
}

func (w *frameWriter) uvarint(v uint64) {
	w.bytes(common.AppendUvarint(w.e.scratch[:0], v))
}

func (w *frameWriter) finish() error {
	if w.err != nil {
		return fmt.Errorf("compactwire: write frame: %w", w.err)
	}
	sum := binary.LittleEndian.AppendUint32(w.e.scratch[:0], w.e.crc.Sum32())
	if err := w.e.buf.Put(sum); err != nil {
		return fmt.Errorf("compactwire: write crc: %w", err)
	}
	if w.e.buf.Len() != w.end {
		return fmt.Errorf("%w: sized %d bytes, wrote %d", ErrMalformedFrame, w.end, w.e.buf.Len())
	}
	return nil
}
