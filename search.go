// Byte pattern search over a loaded buffer.
//
// Occurrences yields non-overlapping matches left to right: after a match
// at i the scan resumes at i+len(pattern). FindAll collects them. FindNext
// answers "search again" from a position: it looks at or after from, and if
// nothing matches there it wraps and looks for a match that starts before
// from. It reports not-found only when the pattern occurs nowhere.
//
// Cursor keeps the position between FindNext calls so repeated searches
// step through every match and cycle back to the first.
package savedit

import (
	"bytes"
	"iter"
)

// Occurrences yields the offset of each non-overlapping match of pattern.
// An empty pattern yields nothing; FindAll reports it as ErrInvalidPattern.
// Callers can break from the range loop to stop early.
func Occurrences(data, pattern []byte) iter.Seq[int] {
	return func(yield func(int) bool) {
		if len(pattern) == 0 {
			return
		}
		pos := 0
		for pos <= len(data)-len(pattern) {
			i := bytes.Index(data[pos:], pattern)
			if i < 0 {
				return
			}
			if !yield(pos + i) {
				return
			}
			pos += i + len(pattern)
		}
	}
}

// FindAll returns the offsets of all non-overlapping matches in order.
func FindAll(data, pattern []byte) ([]int, error) {
	if len(pattern) == 0 {
		return nil, ErrInvalidPattern
	}
	var out []int
	for off := range Occurrences(data, pattern) {
		out = append(out, off)
	}
	return out, nil
}

// FindNext returns the first match starting at or after from. When there is
// none it wraps and returns the first match starting before from. ok is
// false only if pattern does not occur in data. from may equal len(data).
func FindNext(data, pattern []byte, from int) (int, bool, error) {
	if len(pattern) == 0 {
		return 0, false, ErrInvalidPattern
	}
	if err := checkBounds(from, 0, len(data)); err != nil {
		return 0, false, err
	}
	if i := bytes.Index(data[from:], pattern); i >= 0 {
		return from + i, true, nil
	}
	// Matches starting before from may extend up to len(pattern)-1 past it.
	end := min(from+len(pattern)-1, len(data))
	if i := bytes.Index(data[:end], pattern); i >= 0 {
		return i, true, nil
	}
	return 0, false, nil
}

// Cursor remembers where the last match was so Next continues after it.
// It borrows the Buffer; it is never persisted.
type Cursor struct {
	buf *Buffer
	pos int
}

// NewCursor returns a cursor positioned at offset 0.
func NewCursor(buf *Buffer) *Cursor {
	return &Cursor{buf: buf}
}

// Position returns the offset the next search starts from.
func (c *Cursor) Position() int {
	return c.pos
}

// Seek moves the cursor, e.g. to the offset the user is looking at.
func (c *Cursor) Seek(off int) error {
	if err := checkBounds(off, 0, c.buf.Len()); err != nil {
		return err
	}
	c.pos = off
	return nil
}

// Next finds the next match at or after the cursor, wrapping at the end of
// the buffer, and moves the cursor one byte past the match start so that a
// repeated Next advances to the following occurrence.
func (c *Cursor) Next(pattern []byte) (int, bool, error) {
	from := min(c.pos, c.buf.Len())
	off, ok, err := FindNext(c.buf.Bytes(), pattern, from)
	if err != nil || !ok {
		return off, ok, err
	}
	c.pos = off + 1
	return off, true, nil
}
