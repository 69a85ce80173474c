package bridge

import (
	"golang.org/x/text/encoding/unicode"
)

// decodeText decodes a notification as UTF-8, replacing invalid sequences
// with U+FFFD.
func decodeText(data []byte) string {
	// The UTF-8 decoder substitutes invalid input instead of failing.
	out, _ := unicode.UTF8.NewDecoder().Bytes(data)
	return string(out)
}
