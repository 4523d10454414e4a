// Heuristic discovery of numeric fields.
//
// The buffer is treated as a run of fixed-size slots starting at offset 0.
// Each slot is decoded as a signed little-endian integer; a slot is a
// candidate when its value lies strictly between Min and Max and the slot
// that follows it holds different bytes. The second test rejects runs of
// identical slots (zero padding, 0xFF fill), which easily satisfy a loose
// range but are almost never the field being looked for. The final slot has
// no successor and is judged on its value alone.
//
// This is a guess, not a proof: the first candidate is returned, and
// nothing says it is the only one or the right one. Results are Candidates
// so callers keep them apart from verified fields. The usual check is to
// compare the value with what the game itself displays, or to use
// FindValue with the known amount.
package savedit

import (
	"bytes"
	"fmt"
	"iter"
)

// Default money range: the save's balance may be negative (debt) but stays
// well inside these bounds.
const (
	DefaultSlotSize = 8
	DefaultMinValue = -1_000_000
	DefaultMaxValue = 10_000_000_000
)

// LocateOptions configures the slot scan. Zero fields take the defaults.
type LocateOptions struct {
	SlotSize int   // 1, 2, 4 or 8 bytes
	Min      int64 // exclusive lower bound
	Max      int64 // exclusive upper bound
}

func (o LocateOptions) withDefaults() LocateOptions {
	if o.SlotSize == 0 {
		o.SlotSize = DefaultSlotSize
	}
	if o.Min == 0 && o.Max == 0 {
		o.Min, o.Max = DefaultMinValue, DefaultMaxValue
	}
	return o
}

// Candidate is a slot that passed the plausibility test. It is not a
// verified field.
type Candidate struct {
	Offset   int
	SlotSize int
	Value    int64
}

func (c Candidate) String() string {
	return fmt.Sprintf("candidate at 0x%08X (%d bytes): %d", c.Offset, c.SlotSize, c.Value)
}

// Candidates yields every slot that passes the test, in offset order.
func Candidates(data []byte, opts LocateOptions) iter.Seq[Candidate] {
	opts = opts.withDefaults()
	return func(yield func(Candidate) bool) {
		if validIntSize(opts.SlotSize) != nil {
			return
		}
		s := opts.SlotSize
		for off := 0; off+s <= len(data); off += s {
			v, _ := DecodeInt(data, off, s, LittleEndian)
			if v <= opts.Min || v >= opts.Max {
				continue
			}
			next := data[off+s : min(off+2*s, len(data))]
			if len(next) == s && bytes.Equal(data[off:off+s], next) {
				continue
			}
			if !yield(Candidate{Offset: off, SlotSize: s, Value: v}) {
				return
			}
		}
	}
}

// LocatePlausibleInteger returns the first candidate slot. ok is false when
// no slot qualifies.
func LocatePlausibleInteger(data []byte, opts LocateOptions) (Candidate, bool, error) {
	opts = opts.withDefaults()
	if err := validIntSize(opts.SlotSize); err != nil {
		return Candidate{}, false, err
	}
	if opts.Min >= opts.Max {
		return Candidate{}, false, fmt.Errorf("%w: empty range (%d, %d)", ErrValueOutOfRange, opts.Min, opts.Max)
	}
	for c := range Candidates(data, opts) {
		return c, true, nil
	}
	return Candidate{}, false, nil
}

// FindValue returns every offset where v, encoded as kind in byte order e,
// occurs in data. Matches may overlap slot boundaries; no alignment is
// assumed.
func FindValue(data []byte, v int64, k Kind, e Endian) ([]int, error) {
	if !k.Integer() {
		return nil, fmt.Errorf("%w: %s is not an integer kind", ErrInvalidSize, k)
	}
	pattern, err := EncodeInt(v, k.Width(), k.Signed(), e)
	if err != nil {
		return nil, err
	}
	var out []int
	for i := 0; i+len(pattern) <= len(data); {
		j := bytes.Index(data[i:], pattern)
		if j < 0 {
			break
		}
		out = append(out, i+j)
		i += j + 1
	}
	return out, nil
}
