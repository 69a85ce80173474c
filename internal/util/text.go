package util

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsTextData reports whether data is valid UTF-8 made of printable runes,
// tabs and line breaks.
func IsTextData(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, r := range string(data) {
		if !unicode.IsPrint(r) && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// FormatPayload renders a payload for a log line: printable text as-is,
// anything else as space separated hex.
func FormatPayload(data []byte) string {
	if IsTextData(data) {
		return string(data)
	}
	return fmt.Sprintf("% x", data)
}

// HexDump returns data in hex dump format
func HexDump(data []byte) string {
	var b strings.Builder
	for i := 0; i < len(data); i += 16 {
		// Address
		fmt.Fprintf(&b, "%04x  ", i)

		// Hex bytes
		for j := 0; j < 16; j++ {
			if i+j < len(data) {
				fmt.Fprintf(&b, "%02x ", data[i+j])
			} else {
				b.WriteString("   ")
			}
			if j == 7 {
				b.WriteString(" ")
			}
		}

		// ASCII
		b.WriteString(" |")
		for j := 0; j < 16 && i+j < len(data); j++ {
			c := data[i+j]
			if c >= 32 && c < 127 {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("|\n")
	}
	return b.String()
}
