// Package binio reads and writes the little-endian primitives used by the
// index encodings. Both ends keep the first error and turn later calls into
// no-ops, so callers check Err once at the end.
package binio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// MaxSlice bounds any length prefix read from disk.
const MaxSlice = 1 << 31

// Writer encodes primitives to an underlying stream.
type Writer struct {
	w   *bufio.Writer
	buf [8]byte
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

// Raw writes b without a length prefix.
func (w *Writer) Raw(b []byte) {
	w.write(b)
}

// Uint32 writes v.
func (w *Writer) Uint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

// Int writes v as a signed 64-bit value.
func (w *Writer) Int(v int) {
	w.Int64(int64(v))
}

// Int64 writes v.
func (w *Writer) Int64(v int64) {
	binary.LittleEndian.PutUint64(w.buf[:8], uint64(v))
	w.write(w.buf[:8])
}

// Float32 writes v.
func (w *Writer) Float32(v float32) {
	w.Uint32(math.Float32bits(v))
}

// Float32s writes a length-prefixed vector.
func (w *Writer) Float32s(v []float32) {
	w.Int(len(v))
	for _, x := range v {
		w.Float32(x)
	}
}

// Bytes writes a length-prefixed byte slice.
func (w *Writer) Bytes(b []byte) {
	w.Int(len(b))
	w.write(b)
}

// Ints writes a length-prefixed slice of ints as 32-bit values.
func (w *Writer) Ints(v []int) {
	w.Int(len(v))
	for _, x := range v {
		w.Uint32(uint32(x))
	}
}

// String writes a length-prefixed string.
func (w *Writer) String(s string) {
	w.Bytes([]byte(s))
}

// Flush pushes buffered data and returns the first error seen.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// Reader decodes primitives from an underlying stream.
type Reader struct {
	r   io.Reader
	buf [8]byte
	err error
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first error seen. Short reads are reported as
// ErrCorruptArtifact.
func (r *Reader) Err() error {
	return r.err
}

// Fail records err unless an earlier error is already held.
func (r *Reader) Fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s", domain.ErrCorruptArtifact, fmt.Sprintf(format, args...))
	}
}

func (r *Reader) read(b []byte) bool {
	if r.err != nil {
		return false
	}
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = fmt.Errorf("%w: %v", domain.ErrCorruptArtifact, err)
		return false
	}
	return true
}

// Raw reads exactly n bytes written by Writer.Raw.
func (r *Reader) Raw(n int) []byte {
	b := make([]byte, n)
	if !r.read(b) {
		return nil
	}
	return b
}

// Uint32 reads a value written by Writer.Uint32.
func (r *Reader) Uint32() uint32 {
	if !r.read(r.buf[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

// Int64 reads a value written by Writer.Int64.
func (r *Reader) Int64() int64 {
	if !r.read(r.buf[:8]) {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(r.buf[:8]))
}

// Int reads a value written by Writer.Int.
func (r *Reader) Int() int {
	return int(r.Int64())
}

// Len reads a length prefix and rejects negative or oversized values.
func (r *Reader) Len() int {
	n := r.Int64()
	if n < 0 || n > MaxSlice {
		r.Fail("invalid length %d", n)
		return 0
	}
	return int(n)
}

// Float32 reads a value written by Writer.Float32.
func (r *Reader) Float32() float32 {
	return math.Float32frombits(r.Uint32())
}

// Float32s reads a vector written by Writer.Float32s.
func (r *Reader) Float32s() []float32 {
	n := r.Len()
	if r.err != nil {
		return nil
	}
	v := make([]float32, 0, min(n, 1<<16))
	for i := 0; i < n && r.err == nil; i++ {
		v = append(v, r.Float32())
	}
	return v
}

// Bytes reads a slice written by Writer.Bytes.
func (r *Reader) Bytes() []byte {
	n := r.Len()
	if r.err != nil {
		return nil
	}
	b := make([]byte, 0, min(n, 1<<20))
	chunk := make([]byte, min(n, 1<<20))
	for left := n; left > 0 && r.err == nil; {
		step := min(left, len(chunk))
		if r.read(chunk[:step]) {
			b = append(b, chunk[:step]...)
		}
		left -= step
	}
	return b
}

// Ints reads a slice written by Writer.Ints.
func (r *Reader) Ints() []int {
	n := r.Len()
	if r.err != nil {
		return nil
	}
	v := make([]int, 0, min(n, 1<<16))
	for i := 0; i < n && r.err == nil; i++ {
		v = append(v, int(r.Uint32()))
	}
	return v
}

// String reads a value written by Writer.String.
func (r *Reader) String() string {
	return string(r.Bytes())
}
