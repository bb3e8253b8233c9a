package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength caps URL paths in logs
	MaxPathLength = 500
	// MaxErrorMessageLength caps error messages in logs
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength caps general strings in logs
	MaxGeneralStringLength = 2000
)

// SanitizePath makes a URL path safe to log: valid UTF-8, no control
// characters, bounded length.
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeString makes an arbitrary string safe to log
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = filterRunes(s)
	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}

// SanitizeError makes an error message safe to log
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// filterRunes validates UTF-8 and drops control characters, keeping
// printable runes plus space, tab, newline and CR.
func filterRunes(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
