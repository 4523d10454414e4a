package savedit

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestFormatHex(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0x0B}
	if got := FormatHex(data, true, true); got != "DE AD 0B" {
		t.Errorf("spaced upper = %q", got)
	}
	if got := FormatHex(data, false, false); got != "dead0b" {
		t.Errorf("plain = %q", got)
	}
	if got := FormatHex(nil, true, true); got != "" {
		t.Errorf("empty = %q", got)
	}
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"DE AD be ef", []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		{"0x1f4", []byte{0x01, 0xF4}},
		{"  4042 0f ", []byte{0x40, 0x42, 0x0F}},
		{"Career", []byte("Career")},
		{"money 2", []byte("money 2")},
	}
	for _, tt := range tests {
		got, err := ParsePattern(tt.in)
		if err != nil {
			t.Errorf("ParsePattern(%q): %v", tt.in, err)
			continue
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("ParsePattern(%q) = % X, want % X", tt.in, got, tt.want)
		}
	}
}

func TestParsePatternBlank(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		if _, err := ParsePattern(in); !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("ParsePattern(%q) = %v, want ErrInvalidPattern", in, err)
		}
	}
}

func TestDump(t *testing.T) {
	data := append([]byte{0x40, 0x42, 0x0F, 0x00}, "Hi!"...)

	var sb strings.Builder
	if err := Dump(&sb, data, 0x1230, 8); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	want := "00001230: 40 42 0F 00 48 69 21     @B..Hi!\n"
	if sb.String() != want {
		t.Errorf("got\n%q\nwant\n%q", sb.String(), want)
	}
}

func TestDumpMultipleRows(t *testing.T) {
	data := make([]byte, 20)
	var sb strings.Builder
	if err := Dump(&sb, data, 0, 0); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[1], "00000010: 00 00 00 00") {
		t.Errorf("second row = %q", lines[1])
	}
}

func TestChecksum8(t *testing.T) {
	if got := Checksum8([]byte{0xFF, 0x02}); got != 0x01 {
		t.Errorf("got 0x%02X, want 0x01", got)
	}
	if got := Checksum8(nil); got != 0 {
		t.Errorf("empty = %d", got)
	}
}
