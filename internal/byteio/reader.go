// Package byteio provides big-endian readers and writers for class-file
// structures. The Writer keeps an explicit stack of in-memory buffers so a
// nested structure can be serialized before its length is known and then
// spliced, length-prefixed, into its parent.
package byteio

import (
	"encoding/binary"
	"math"

	"github.com/deepnoodle-ai/javabinary/errors"
)

// Reader reads big-endian values from a byte slice. The first failure is
// sticky: later reads return zero values and Err reports the failure.
type Reader struct {
	data []byte
	pos  int
	base int
	err  error
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Offset returns the position of the next read relative to the outermost
// reader this one was carved from.
func (r *Reader) Offset() int {
	return r.base + r.pos
}

// Pos returns the position of the next read within this reader.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Done reports whether every byte has been consumed.
func (r *Reader) Done() bool {
	return r.pos >= len(r.data)
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = errors.New(errors.E1001, "unexpected end of input at offset %d (need %d bytes, have %d)",
			r.Offset(), n, r.Remaining())
		r.pos = len(r.data)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// Fail records err unless an earlier error is already recorded.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// U8 reads an unsigned byte.
func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// S8 reads a signed byte.
func (r *Reader) S8() int8 {
	return int8(r.U8())
}

// U16 reads an unsigned 16-bit value.
func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// S16 reads a signed 16-bit value.
func (r *Reader) S16() int16 {
	return int16(r.U16())
}

// U32 reads an unsigned 32-bit value.
func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// S32 reads a signed 32-bit value.
func (r *Reader) S32() int32 {
	return int32(r.U32())
}

// U64 reads an unsigned 64-bit value.
func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// F32 reads an IEEE 754 single.
func (r *Reader) F32() float32 {
	return math.Float32frombits(r.U32())
}

// F64 reads an IEEE 754 double.
func (r *Reader) F64() float64 {
	return math.Float64frombits(r.U64())
}

// Bytes reads n bytes. The returned slice aliases the reader's data.
func (r *Reader) Bytes(n int) []byte {
	return r.take(n)
}

// Skip discards n bytes.
func (r *Reader) Skip(n int) {
	r.take(n)
}

// Sub carves the next n bytes into an independent reader. Offsets reported
// by the sub-reader stay relative to the outermost input.
func (r *Reader) Sub(n int) *Reader {
	base := r.Offset()
	b := r.take(n)
	if b == nil {
		return &Reader{base: base, err: r.err}
	}
	return &Reader{data: b, base: base}
}
