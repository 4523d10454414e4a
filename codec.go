// Typed codec primitives.
//
// Integers are 1, 2, 4 or 8 bytes, signed or unsigned, in either byte
// order. Encoding checks the two's-complement range for the requested width
// and signedness before producing any bytes, so an out-of-range value never
// reaches the buffer. Floats are IEEE 754 binary32/binary64.
//
// Strings are null-terminated on read. Bytes that do not decode under the
// requested encoding are re-read as ISO 8859-1, where every byte maps to a
// code point, so DecodeString always yields a result. That fallback is a
// display convenience and says nothing about the string's true encoding.
// EncodeString never appends a terminator; placing one is the caller's job.
package savedit

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Endian selects the byte order of multi-byte values.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

func (e Endian) order() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e Endian) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// ParseEndian accepts "little"/"le" and "big"/"be", case-insensitively.
func ParseEndian(s string) (Endian, error) {
	switch strings.ToLower(s) {
	case "", "little", "le":
		return LittleEndian, nil
	case "big", "be":
		return BigEndian, nil
	}
	return 0, fmt.Errorf("unknown byte order %q", s)
}

// Kind is the decoded type of a field.
type Kind int

const (
	KindUint8 Kind = iota + 1
	KindInt8
	KindUint16
	KindInt16
	KindUint32
	KindInt32
	KindUint64
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindRaw
)

var kindNames = map[Kind]string{
	KindUint8:   "uint8",
	KindInt8:    "int8",
	KindUint16:  "uint16",
	KindInt16:   "int16",
	KindUint32:  "uint32",
	KindInt32:   "int32",
	KindUint64:  "uint64",
	KindInt64:   "int64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindString:  "string",
	KindRaw:     "raw",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a kind name ("int64", "float32", "string", ...) to a Kind.
// "float" and "double" are accepted as aliases for float32 and float64.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(s)
	switch s {
	case "float":
		return KindFloat32, nil
	case "double":
		return KindFloat64, nil
	}
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// Width returns the fixed size of k in bytes, or 0 for string and raw.
func (k Kind) Width() int {
	switch k {
	case KindUint8, KindInt8:
		return 1
	case KindUint16, KindInt16:
		return 2
	case KindUint32, KindInt32, KindFloat32:
		return 4
	case KindUint64, KindInt64, KindFloat64:
		return 8
	}
	return 0
}

// Integer reports whether k is one of the eight integer kinds.
func (k Kind) Integer() bool {
	return k >= KindUint8 && k <= KindInt64
}

// Signed reports whether k is a signed integer kind.
func (k Kind) Signed() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}

func validIntSize(size int) error {
	switch size {
	case 1, 2, 4, 8:
		return nil
	}
	return fmt.Errorf("%w: %d-byte integer", ErrInvalidSize, size)
}

// DecodeUint reads an unsigned integer of size bytes at off.
func DecodeUint(buf []byte, off, size int, e Endian) (uint64, error) {
	if err := validIntSize(size); err != nil {
		return 0, err
	}
	if err := checkBounds(off, size, len(buf)); err != nil {
		return 0, err
	}
	b := buf[off : off+size]
	order := e.order()
	switch size {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(order.Uint16(b)), nil
	case 4:
		return uint64(order.Uint32(b)), nil
	}
	return order.Uint64(b), nil
}

// DecodeInt reads a two's-complement signed integer of size bytes at off.
func DecodeInt(buf []byte, off, size int, e Endian) (int64, error) {
	u, err := DecodeUint(buf, off, size, e)
	if err != nil {
		return 0, err
	}
	shift := 64 - 8*size
	return int64(u<<shift) >> shift, nil
}

// EncodeInt encodes v into exactly size bytes. With signed set, v must lie
// in the two's-complement range of the width; otherwise v must be
// non-negative and below 2^(8*size).
func EncodeInt(v int64, size int, signed bool, e Endian) ([]byte, error) {
	if err := validIntSize(size); err != nil {
		return nil, err
	}
	bits := 8 * size
	if signed {
		lo := int64(-1) << (bits - 1)
		hi := -(lo + 1)
		if v < lo || v > hi {
			return nil, fmt.Errorf("%w: %d does not fit in a signed %d-byte integer", ErrValueOutOfRange, v, size)
		}
	} else if v < 0 || (bits < 64 && uint64(v)>>bits != 0) {
		return nil, fmt.Errorf("%w: %d does not fit in an unsigned %d-byte integer", ErrValueOutOfRange, v, size)
	}
	return putUint(uint64(v), size, e), nil
}

// EncodeUint encodes v into exactly size bytes as an unsigned integer.
func EncodeUint(v uint64, size int, e Endian) ([]byte, error) {
	if err := validIntSize(size); err != nil {
		return nil, err
	}
	if bits := 8 * size; bits < 64 && v>>bits != 0 {
		return nil, fmt.Errorf("%w: %d does not fit in an unsigned %d-byte integer", ErrValueOutOfRange, v, size)
	}
	return putUint(v, size, e), nil
}

func putUint(v uint64, size int, e Endian) []byte {
	out := make([]byte, size)
	order := e.order()
	switch size {
	case 1:
		out[0] = byte(v)
	case 2:
		order.PutUint16(out, uint16(v))
	case 4:
		order.PutUint32(out, uint32(v))
	default:
		order.PutUint64(out, v)
	}
	return out
}

// DecodeFloat32 reads an IEEE 754 binary32 value at off.
func DecodeFloat32(buf []byte, off int, e Endian) (float32, error) {
	if err := checkBounds(off, 4, len(buf)); err != nil {
		return 0, err
	}
	return math.Float32frombits(e.order().Uint32(buf[off:])), nil
}

// DecodeFloat64 reads an IEEE 754 binary64 value at off.
func DecodeFloat64(buf []byte, off int, e Endian) (float64, error) {
	if err := checkBounds(off, 8, len(buf)); err != nil {
		return 0, err
	}
	return math.Float64frombits(e.order().Uint64(buf[off:])), nil
}

// EncodeFloat32 returns the 4-byte encoding of v.
func EncodeFloat32(v float32, e Endian) []byte {
	out := make([]byte, 4)
	e.order().PutUint32(out, math.Float32bits(v))
	return out
}

// EncodeFloat64 returns the 8-byte encoding of v.
func EncodeFloat64(v float64, e Endian) []byte {
	out := make([]byte, 8)
	e.order().PutUint64(out, math.Float64bits(v))
	return out
}

// Latin1 is the single-byte fallback used when string bytes do not decode.
var Latin1 = charmap.ISO8859_1

// DecodeString reads a null-terminated string starting at off. The scan
// stops at the first zero byte, at maxLen bytes (when maxLen > 0), or at the
// end of buf, whichever comes first. cmap selects a single-byte encoding;
// nil means UTF-8. The returned count is the number of bytes consumed,
// including the terminator when one was found.
func DecodeString(buf []byte, off int, cmap *charmap.Charmap, maxLen int) (string, int, error) {
	if err := checkBounds(off, 0, len(buf)); err != nil {
		return "", 0, err
	}
	end := len(buf)
	if maxLen > 0 && maxLen < end-off {
		end = off + maxLen
	}
	n := 0
	for off+n < end && buf[off+n] != 0 {
		n++
	}
	consumed := n
	if off+n < end {
		consumed++
	}
	return decodeText(buf[off:off+n], cmap), consumed, nil
}

func decodeText(raw []byte, cmap *charmap.Charmap) string {
	if cmap == nil {
		if utf8.Valid(raw) {
			return string(raw)
		}
		return latin1(raw)
	}
	out, err := cmap.NewDecoder().Bytes(raw)
	if err != nil {
		return latin1(raw)
	}
	return string(out)
}

func latin1(raw []byte) string {
	if out, err := Latin1.NewDecoder().Bytes(raw); err == nil {
		return string(out)
	}
	// ISO 8859-1 is the identity on code points 0-255.
	r := make([]rune, len(raw))
	for i, b := range raw {
		r[i] = rune(b)
	}
	return string(r)
}

// EncodeString returns the encoded bytes of text without a terminator.
// A nil cmap encodes as UTF-8.
func EncodeString(text string, cmap *charmap.Charmap) ([]byte, error) {
	if cmap == nil {
		return []byte(text), nil
	}
	out, err := cmap.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not representable in %s", ErrValueOutOfRange, text, cmap)
	}
	return out, nil
}

// Codec decodes and encodes values by Kind. Strings use Strings as their
// encoding (nil means UTF-8). The zero Codec is ready to use.
//
// Decoded values have concrete types int64 (signed kinds), uint64
// (unsigned kinds), float32, float64, string and []byte (raw).
type Codec struct {
	Strings *charmap.Charmap
}

// sizeFor resolves the byte width of a value of kind k. Fixed-width kinds
// accept size 0 (meaning the natural width) or exactly their width.
func sizeFor(k Kind, size int) (int, error) {
	if w := k.Width(); w > 0 {
		if size != 0 && size != w {
			return 0, fmt.Errorf("%w: %s is %d bytes, not %d", ErrInvalidSize, k, w, size)
		}
		return w, nil
	}
	if k != KindString && k != KindRaw {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSize, k)
	}
	if size <= 0 {
		return 0, fmt.Errorf("%w: %s needs a positive size", ErrInvalidSize, k)
	}
	return size, nil
}

// Decode reads a value of kind k occupying size bytes at off. For fixed
// width kinds size may be 0. A string field is read up to its first zero
// byte within size bytes.
func (c Codec) Decode(buf []byte, off int, k Kind, size int, e Endian) (any, error) {
	size, err := sizeFor(k, size)
	if err != nil {
		return nil, err
	}
	if err := checkBounds(off, size, len(buf)); err != nil {
		return nil, err
	}
	switch {
	case k.Integer() && k.Signed():
		return DecodeInt(buf, off, size, e)
	case k.Integer():
		return DecodeUint(buf, off, size, e)
	case k == KindFloat32:
		return DecodeFloat32(buf, off, e)
	case k == KindFloat64:
		return DecodeFloat64(buf, off, e)
	case k == KindString:
		s, _, err := DecodeString(buf, off, c.Strings, size)
		return s, err
	}
	out := make([]byte, size)
	copy(out, buf[off:off+size])
	return out, nil
}

// Encode converts v to the byte form of kind k. Integer kinds accept any Go
// integer type and reject values outside the width's range; float kinds
// also accept integers. A string shorter than size is padded with zero
// bytes; a size of 0 for string or raw returns the bytes unpadded. Encode
// does not check that the result fits size for string and raw; callers
// compare lengths (see Document.Set).
func (c Codec) Encode(v any, k Kind, size int, e Endian) ([]byte, error) {
	if k.Width() > 0 || size != 0 {
		var err error
		if size, err = sizeFor(k, size); err != nil {
			return nil, err
		}
	}
	switch {
	case k.Integer():
		return encodeInteger(v, k, size, e)
	case k == KindFloat32 || k == KindFloat64:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: cannot encode %T as %s", ErrValueOutOfRange, v, k)
		}
		if k == KindFloat64 {
			return EncodeFloat64(f, e), nil
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, fmt.Errorf("%w: %g overflows float32", ErrValueOutOfRange, f)
		}
		return EncodeFloat32(float32(f), e), nil
	case k == KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: cannot encode %T as string", ErrValueOutOfRange, v)
		}
		b, err := EncodeString(s, c.Strings)
		if err != nil {
			return nil, err
		}
		if len(b) < size {
			b = append(b, make([]byte, size-len(b))...)
		}
		return b, nil
	case k == KindRaw:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: cannot encode %T as raw", ErrValueOutOfRange, v)
		}
		return append([]byte(nil), b...), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidSize, k)
}

func encodeInteger(v any, k Kind, size int, e Endian) ([]byte, error) {
	switch n := v.(type) {
	case uint:
		return encodeUnsignedValue(uint64(n), k, size, e)
	case uint8:
		return encodeUnsignedValue(uint64(n), k, size, e)
	case uint16:
		return encodeUnsignedValue(uint64(n), k, size, e)
	case uint32:
		return encodeUnsignedValue(uint64(n), k, size, e)
	case uint64:
		return encodeUnsignedValue(n, k, size, e)
	}
	i, ok := toInt64(v)
	if !ok {
		return nil, fmt.Errorf("%w: cannot encode %T as %s", ErrValueOutOfRange, v, k)
	}
	return EncodeInt(i, size, k.Signed(), e)
}

func encodeUnsignedValue(u uint64, k Kind, size int, e Endian) ([]byte, error) {
	if k.Signed() {
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d does not fit in a signed %d-byte integer", ErrValueOutOfRange, u, size)
		}
		return EncodeInt(int64(u), size, true, e)
	}
	return EncodeUint(u, size, e)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
