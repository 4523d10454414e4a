package savedit

import (
	"encoding/binary"
	"errors"
	"slices"
	"testing"
)

func slots(values ...int64) []byte {
	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(data[8*i:], uint64(v))
	}
	return data
}

// Sixteen zero bytes then 500000: the zero slots are outside (1, 10M) and
// the value slot is the last one, judged on its value alone.
func TestLocateLastSlot(t *testing.T) {
	data := slots(0, 0, 500000)

	c, ok, err := LocatePlausibleInteger(data, LocateOptions{Min: 1, Max: 10_000_000})
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if c.Offset != 16 || c.Value != 500000 || c.SlotSize != 8 {
		t.Errorf("got %+v", c)
	}
}

// A run of identical in-range slots is padding, not a field.
func TestLocateSkipsRepeatedSlots(t *testing.T) {
	data := slots(5, 5, 5, 42, 0)

	c, ok, err := LocatePlausibleInteger(data, LocateOptions{Min: 1, Max: 100})
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	// Slot 16 holds 5 but its successor is 42, so it qualifies first.
	if c.Offset != 16 {
		t.Errorf("Offset = %d, want 16", c.Offset)
	}
}

// Range bounds are exclusive.
func TestLocateBoundsExclusive(t *testing.T) {
	data := slots(1, 100, 0)
	_, ok, err := LocatePlausibleInteger(data, LocateOptions{Min: 1, Max: 100})
	if err != nil || ok {
		t.Errorf("ok=%v err=%v, want no candidate", ok, err)
	}
}

func TestLocateNoCandidate(t *testing.T) {
	_, ok, err := LocatePlausibleInteger(make([]byte, 64), LocateOptions{Min: 1, Max: 10})
	if err != nil || ok {
		t.Errorf("ok=%v err=%v", ok, err)
	}
	_, ok, err = LocatePlausibleInteger(nil, LocateOptions{})
	if err != nil || ok {
		t.Errorf("empty buffer: ok=%v err=%v", ok, err)
	}
}

func TestLocateTrailingPartialSlotIgnored(t *testing.T) {
	data := append(slots(0), 0x05, 0x00, 0x00)
	_, ok, _ := LocatePlausibleInteger(data, LocateOptions{Min: 1, Max: 10})
	if ok {
		t.Error("a partial trailing slot should not be decoded")
	}
}

func TestLocateSmallSlots(t *testing.T) {
	data := []byte{0, 0, 0, 0, 0xE8, 0x03, 0, 0}
	c, ok, err := LocatePlausibleInteger(data, LocateOptions{SlotSize: 2, Min: 100, Max: 2000})
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if c.Offset != 4 || c.Value != 1000 {
		t.Errorf("got %+v", c)
	}
}

func TestLocateInvalidOptions(t *testing.T) {
	if _, _, err := LocatePlausibleInteger(slots(1), LocateOptions{SlotSize: 3}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("slot 3: %v", err)
	}
	if _, _, err := LocatePlausibleInteger(slots(1), LocateOptions{Min: 10, Max: 10}); !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("empty range: %v", err)
	}
}

func TestLocateDefaults(t *testing.T) {
	// -5 is inside the default money range, which allows some debt.
	data := slots(-5, 0)
	c, ok, err := LocatePlausibleInteger(data, LocateOptions{})
	if err != nil || !ok || c.Offset != 0 || c.Value != -5 {
		t.Errorf("got %+v ok=%v err=%v", c, ok, err)
	}
}

func TestCandidates(t *testing.T) {
	data := slots(0, 7, 7, 9, 0)
	var offs []int
	for c := range Candidates(data, LocateOptions{Min: 1, Max: 10}) {
		offs = append(offs, c.Offset)
	}
	if !slices.Equal(offs, []int{16, 24}) {
		t.Errorf("got %v, want [16 24]", offs)
	}
}

func TestFindValue(t *testing.T) {
	data := []byte{0xE8, 0x03, 0x00, 0xE8, 0x03, 0x03}

	got, err := FindValue(data, 1000, KindUint16, LittleEndian)
	if err != nil {
		t.Fatalf("FindValue: %v", err)
	}
	if !slices.Equal(got, []int{0, 3}) {
		t.Errorf("got %v, want [0 3]", got)
	}

	got, _ = FindValue(data, 0x0303, KindInt16, BigEndian)
	if !slices.Equal(got, []int{4}) {
		t.Errorf("big endian: got %v", got)
	}

	// Matches may overlap each other.
	got, _ = FindValue([]byte{1, 1, 1}, 0x0101, KindUint16, LittleEndian)
	if !slices.Equal(got, []int{0, 1}) {
		t.Errorf("overlapping: got %v", got)
	}
}

func TestFindValueErrors(t *testing.T) {
	if _, err := FindValue(nil, 1, KindString, LittleEndian); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("string kind: %v", err)
	}
	if _, err := FindValue(nil, 300, KindUint8, LittleEndian); !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("out of range: %v", err)
	}
}
