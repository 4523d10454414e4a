// Hex formatting and user-input helpers.
//
// These sit outside the search and codec paths on purpose: PatternSearch
// takes raw bytes only, and turning a typed query ("DE AD be ef", "0x1f4",
// "Money") into bytes is the caller's step, done here with ParsePattern.
package savedit

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// FormatHex renders data as hex digits, optionally space-separated per byte
// and upper-cased.
func FormatHex(data []byte, spaces, upper bool) string {
	s := hex.EncodeToString(data)
	if upper {
		s = strings.ToUpper(s)
	}
	if !spaces || len(data) < 2 {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + len(data) - 1)
	for i := 0; i < len(s); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s[i : i+2])
	}
	return sb.String()
}

// ParsePattern turns typed search input into bytes. Input made only of hex
// digits and whitespace (with an optional 0x prefix) is decoded as hex; an
// odd digit count gets a leading zero. Anything else is taken as literal
// UTF-8 text. Blank input fails with ErrInvalidPattern.
func ParsePattern(input string) ([]byte, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return nil, ErrInvalidPattern
	}
	digits := strings.Join(strings.Fields(text), "")
	if len(digits) > 2 && (digits[:2] == "0x" || digits[:2] == "0X") {
		digits = digits[2:]
	}
	if isHex(digits) {
		if len(digits)%2 != 0 {
			digits = "0" + digits
		}
		b, err := hex.DecodeString(digits)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		return b, nil
	}
	return []byte(text), nil
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// Dump writes a classic hex dump of data, perLine bytes per row:
//
//	00001230: 40 42 0F 00 00 00 00 00  @B......
//
// base is added to the printed offsets so a slice of a larger buffer shows
// its real position. perLine defaults to 16.
func Dump(w io.Writer, data []byte, base int64, perLine int) error {
	if perLine <= 0 {
		perLine = 16
	}
	bw := bufio.NewWriter(w)
	ascii := make([]byte, 0, perLine)
	for i := 0; i < len(data); i += perLine {
		chunk := data[i:min(i+perLine, len(data))]
		fmt.Fprintf(bw, "%08X: ", base+int64(i))
		hexPart := FormatHex(chunk, true, true)
		bw.WriteString(hexPart)
		if pad := perLine*3 - 1 - len(hexPart); pad > 0 {
			bw.WriteString(strings.Repeat(" ", pad))
		}
		bw.WriteString("  ")
		ascii = ascii[:0]
		for _, c := range chunk {
			if c >= 32 && c < 127 {
				ascii = append(ascii, c)
			} else {
				ascii = append(ascii, '.')
			}
		}
		bw.Write(ascii)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Checksum8 is the sum of all bytes modulo 256.
func Checksum8(data []byte) byte {
	var sum byte
	for _, c := range data {
		sum += c
	}
	return sum
}
