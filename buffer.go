// Offset-addressed view over a loaded save.
//
// A Buffer owns the bytes of one save file. Its length is fixed once loaded:
// reads and writes that would cross the end fail with a *BoundsError rather
// than truncating or growing, which keeps every later offset in the file
// where the format expects it. Writes replace bytes in place.
package savedit

import (
	"io"
)

// Buffer is a fixed-length, mutable byte sequence.
type Buffer struct {
	data []byte
}

// NewBuffer takes ownership of data. The caller must not modify data
// afterwards except through the Buffer.
func NewBuffer(data []byte) *Buffer {
	if data == nil {
		data = []byte{}
	}
	return &Buffer{data: data}
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// ReadSlice returns a copy of the n bytes starting at off.
func (b *Buffer) ReadSlice(off, n int) ([]byte, error) {
	if err := checkBounds(off, n, len(b.data)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b.data[off:off+n])
	return out, nil
}

// WriteSlice replaces len(p) bytes starting at off. Nothing is written when
// the range does not fit.
func (b *Buffer) WriteSlice(off int, p []byte) error {
	if err := checkBounds(off, len(p), len(b.data)); err != nil {
		return err
	}
	copy(b.data[off:], p)
	return nil
}

// ReadAt implements io.ReaderAt so a Buffer can back an io.SectionReader.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, &BoundsError{Offset: int(off), Size: len(p), Len: len(b.data)}
	}
	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Bytes returns the underlying bytes. The slice aliases the buffer: it is
// for read-only scanning and is invalidated by the next Load.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Clone returns an independent copy of the buffer contents.
func (b *Buffer) Clone() []byte {
	return append([]byte(nil), b.data...)
}
