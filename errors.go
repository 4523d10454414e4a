// Package savedit inspects and edits undocumented binary save files.
//
// A save is loaded whole into a Buffer. Fields are read and written through
// a table of named descriptors (offset, size, kind, byte order); when a name
// has no descriptor a heuristic locator proposes a candidate offset. Writes
// never resize the buffer and never touch bytes outside the target field.
// Persisting goes through a temp file and an atomic rename, optionally gated
// on a verified backup taken by a BackupStore.
//
// The package is single-writer: a Document must not be mutated from more
// than one goroutine at a time.
package savedit

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic handling. Every failure the engine
// reports wraps exactly one of these; use errors.Is to branch on them and
// errors.As with *BoundsError or *FieldError to recover the offsets involved.
var (
	ErrOutOfBounds              = errors.New("offset out of bounds")
	ErrValueOutOfRange          = errors.New("value out of range")
	ErrInvalidPattern           = errors.New("invalid search pattern")
	ErrUnknownField             = errors.New("unknown field")
	ErrFieldTooSmall            = errors.New("encoded value does not match field size")
	ErrMalformedInput           = errors.New("malformed input")
	ErrBackupVerificationFailed = errors.New("backup verification failed")
	ErrBackupNotFound           = errors.New("backup not found")
	ErrInvalidSize              = errors.New("invalid size for kind")
	ErrNotLoaded                = errors.New("document not loaded")
)

// BoundsError reports an access of Size bytes at Offset into a buffer of
// Len bytes that does not fit.
type BoundsError struct {
	Offset int
	Size   int
	Len    int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("offset out of bounds: %d+%d exceeds length %d", e.Offset, e.Size, e.Len)
}

func (e *BoundsError) Unwrap() error { return ErrOutOfBounds }

// checkBounds returns a *BoundsError unless [off, off+size) lies within n bytes.
func checkBounds(off, size, n int) error {
	if off < 0 || size < 0 || off > n || size > n-off {
		return &BoundsError{Offset: off, Size: size, Len: n}
	}
	return nil
}

// FieldError attaches the field name and location to a failed field access.
type FieldError struct {
	Field  string
	Offset int
	Size   int
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q at 0x%X (%d bytes): %v", e.Field, e.Offset, e.Size, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
