package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength caps URL paths in logs.
	MaxPathLength = 500
	// MaxErrorMessageLength caps error messages in logs.
	MaxErrorMessageLength = 1000
	// MaxContentLength caps note and entry content echoed into debug logs.
	MaxContentLength = 2000
)

// SanitizePath makes a URL path safe for logging: valid UTF-8, no control
// characters, bounded length.
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeError makes an error message safe for logging.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeContent makes user-authored note content safe for debug logging.
// Entry text is arbitrary input; this guards against log injection.
func SanitizeContent(content string) string {
	return SanitizeString(content, MaxContentLength)
}

// SanitizeString strips control characters, repairs invalid UTF-8, and
// truncates to maxLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxContentLength
	}
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
	s = builder.String()
	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}
