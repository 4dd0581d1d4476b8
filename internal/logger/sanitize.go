package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Byte limits applied before user-controlled strings reach a log line
const (
	MaxPathLength          = 500
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
)

// SanitizePath prepares a request path for logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeError prepares an error message for logging. A nil error yields "".
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeString drops invalid UTF-8 and non-printable runes (tabs survive, newlines do not)
// and cuts the result to maxLength bytes on a rune boundary, marking the cut with "...".
// A non-positive maxLength means MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == utf8.RuneError || (!unicode.IsPrint(r) && r != '\t') {
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, ""))

	if len(cleaned) <= maxLength {
		return cleaned
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
		cut--
	}
	return cleaned[:cut] + "..."
}
