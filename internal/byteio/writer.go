package byteio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Writer writes big-endian values to a stack of in-memory buffers. Writes go
// to the top buffer; Fork pushes a fresh buffer and Join pops it, splicing its
// contents length-prefixed into the buffer below.
type Writer struct {
	stack []*bytes.Buffer
}

// NewWriter creates a writer with a single root buffer.
func NewWriter() *Writer {
	return &Writer{stack: []*bytes.Buffer{new(bytes.Buffer)}}
}

func (w *Writer) top() *bytes.Buffer {
	return w.stack[len(w.stack)-1]
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	return w.top().WriteByte(b)
}

// U8 writes an unsigned byte.
func (w *Writer) U8(v uint8) {
	w.top().WriteByte(v)
}

// U16 writes an unsigned 16-bit value.
func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.top().Write(b[:])
}

// U32 writes an unsigned 32-bit value.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.top().Write(b[:])
}

// U64 writes an unsigned 64-bit value.
func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.top().Write(b[:])
}

// F32 writes an IEEE 754 single.
func (w *Writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}

// F64 writes an IEEE 754 double.
func (w *Writer) F64(v float64) {
	w.U64(math.Float64bits(v))
}

// Write writes b and implements io.Writer.
func (w *Writer) Write(b []byte) (int, error) {
	return w.top().Write(b)
}

// Len returns the number of bytes in the top buffer.
func (w *Writer) Len() int {
	return w.top().Len()
}

// Depth returns the number of open buffers, 1 when balanced.
func (w *Writer) Depth() int {
	return len(w.stack)
}

// Fork starts a nested structure whose length is not yet known.
func (w *Writer) Fork() {
	w.stack = append(w.stack, new(bytes.Buffer))
}

// Join closes the innermost Fork, writing its length as a u4 followed by its
// contents into the enclosing buffer.
func (w *Writer) Join() {
	w.join(func(n int) { w.U32(uint32(n)) })
}

// JoinU16 is Join with a u2 length prefix.
func (w *Writer) JoinU16() {
	w.join(func(n int) { w.U16(uint16(n)) })
}

func (w *Writer) join(prefix func(n int)) {
	if len(w.stack) < 2 {
		panic("byteio: Join without matching Fork")
	}
	inner := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	prefix(inner.Len())
	w.top().Write(inner.Bytes())
}

// Append writes the finished contents of another writer.
func (w *Writer) Append(other *Writer) error {
	b, err := other.Bytes()
	if err != nil {
		return err
	}
	w.top().Write(b)
	return nil
}

// Bytes returns the root buffer's contents. Unbalanced Fork/Join use is a
// programming error reported as an error rather than silently truncated.
func (w *Writer) Bytes() ([]byte, error) {
	if len(w.stack) != 1 {
		return nil, fmt.Errorf("byteio: %d unjoined buffers", len(w.stack)-1)
	}
	return w.stack[0].Bytes(), nil
}
