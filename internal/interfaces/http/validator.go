package http

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input validation constants
const (
	MaxSlugLength     = 64
	MaxAddressLength  = 128
	MaxLabelLength    = 256
	MaxNotesLength    = 2000
	MaxPromptLength   = 50000
	MaxMessageLength  = 10000
	MaxDocumentLength = 2 << 20
)

var (
	slugPattern    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	addressPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:+-]+(@[a-zA-Z0-9_.-]+)?$`)
)

// ValidSlug checks if a slug is safe (alphanumeric + underscore + hyphen)
func ValidSlug(s string) bool {
	if s == "" || len(s) > MaxSlugLength {
		return false
	}
	return slugPattern.MatchString(s)
}

// ValidAddress accepts a bare phone number or a WhatsApp JID.
func ValidAddress(s string) bool {
	if s == "" || len(s) > MaxAddressLength {
		return false
	}
	return addressPattern.MatchString(s)
}

// SanitizeString removes null bytes and control characters
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	// Keep only valid UTF-8
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return s
}

// TruncateString truncates s to at most maxLen bytes without splitting a rune.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen]
}

// ValidateLength checks if string is within bounds
func ValidateLength(s string, min, max int) bool {
	l := len(s)
	return l >= min && l <= max
}
