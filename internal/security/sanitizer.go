package security

import (
	"crypto/rand"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

// CleanText strips markup and control bytes and caps the length in runes.
func CleanText(input string, maxRunes int) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = html.UnescapeString(htmlPolicy.Sanitize(input))
	input = strings.TrimSpace(input)
	if maxRunes > 0 && utf8.RuneCountInString(input) > maxRunes {
		input = string([]rune(input)[:maxRunes])
	}
	return input
}

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RoomCodeLength is the length of a quiz join code.
const RoomCodeLength = 6

// GenerateRoomCode returns a random upper-case alphanumeric join code.
func GenerateRoomCode() string {
	b := make([]byte, RoomCodeLength)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = codeCharset[int(b[i])%len(codeCharset)]
	}
	return string(b)
}

// NormalizeRoomCode upper-cases and trims a code typed by a player.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
