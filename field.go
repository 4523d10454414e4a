// Field descriptors.
//
// A descriptor names a fixed location in the save and how to interpret it.
// The built-in table records the offsets known so far for the target game;
// it is configuration, not something the engine derives, and callers may
// replace or extend it. Money sits at a fixed offset when the table is
// right, and is otherwise found by the locator (see Document.Get).
package savedit

import (
	"fmt"
	"strconv"
	"strings"
)

// MoneyField is the name of the balance field.
const MoneyField = "money"

// FieldDescriptor describes one named field.
type FieldDescriptor struct {
	Name        string `json:"name" yaml:"name"`
	Offset      int    `json:"offset" yaml:"offset"`
	Size        int    `json:"size" yaml:"size"`
	Kind        Kind   `json:"kind" yaml:"kind"`
	Endian      Endian `json:"endian" yaml:"endian"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate checks the descriptor on its own; whether it fits a particular
// buffer is checked at access time.
func (d FieldDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: descriptor without a name", ErrUnknownField)
	}
	if d.Offset < 0 {
		return &FieldError{Field: d.Name, Offset: d.Offset, Size: d.Size, Err: ErrOutOfBounds}
	}
	if d.Size <= 0 {
		return &FieldError{Field: d.Name, Offset: d.Offset, Size: d.Size, Err: ErrInvalidSize}
	}
	if _, err := sizeFor(d.Kind, d.Size); err != nil {
		return &FieldError{Field: d.Name, Offset: d.Offset, Size: d.Size, Err: err}
	}
	return nil
}

// End returns the offset one past the last byte of the field.
func (d FieldDescriptor) End() int {
	return d.Offset + d.Size
}

// DefaultFields returns the built-in descriptor table. Offsets are from
// observation of real saves and may be wrong for other game versions.
func DefaultFields() []FieldDescriptor {
	return []FieldDescriptor{
		{Name: "file_header", Offset: 0x00, Size: 4, Kind: KindRaw, Description: "file header"},
		{Name: "game_version", Offset: 0x10, Size: 32, Kind: KindString, Description: "game version"},
		{Name: MoneyField, Offset: 0x1234, Size: 8, Kind: KindInt64, Endian: LittleEndian, Description: "money"},
		{Name: "map_width", Offset: 0x200, Size: 4, Kind: KindUint32, Endian: LittleEndian, Description: "map width"},
		{Name: "map_height", Offset: 0x204, Size: 4, Kind: KindUint32, Endian: LittleEndian, Description: "map height"},
	}
}

// ParseValue converts form or command-line input into a value Encode
// accepts for kind k. Integers take 0x, 0o and 0b prefixes and "_"
// separators; raw values are parsed as hex with ParsePattern.
func ParseValue(text string, k Kind) (any, error) {
	text = strings.TrimSpace(text)
	switch {
	case k.Integer() && k.Signed():
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValueOutOfRange, err)
		}
		return v, nil
	case k.Integer():
		v, err := strconv.ParseUint(text, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValueOutOfRange, err)
		}
		return v, nil
	case k == KindFloat32 || k == KindFloat64:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValueOutOfRange, err)
		}
		return v, nil
	case k == KindString:
		return text, nil
	case k == KindRaw:
		if !isHex(strings.TrimPrefix(strings.Join(strings.Fields(text), ""), "0x")) {
			return nil, fmt.Errorf("%w: raw values are hex", ErrInvalidPattern)
		}
		return ParsePattern(text)
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidSize, k)
}

// MarshalText lets kinds appear by name in JSON and YAML.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// MarshalText lets byte orders appear as "little" or "big".
func (e Endian) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses a byte order name.
func (e *Endian) UnmarshalText(b []byte) error {
	v, err := ParseEndian(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
