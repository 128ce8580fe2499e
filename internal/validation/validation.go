// Package validation holds the text validators and sanitizer applied to
// visitor-supplied fields.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMessageMin  = 10
	DefaultMessageMax  = 5000
	DefaultSanitizeMax = 500
)

var (
	emailPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	namePattern      = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s\-']+$`)
	phoneFormatting  = regexp.MustCompile(`[\s\-()+]`)
	sanitizeReplacer = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "", "&", "")
)

// ValidateEmail reports whether s looks like local@domain.tld.
func ValidateEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateName accepts letters (accented included), spaces, hyphens and
// apostrophes, with at least two characters after trimming.
func ValidateName(s string) bool {
	trimmed := strings.TrimSpace(s)
	if utf8.RuneCountInString(trimmed) < 2 {
		return false
	}
	return namePattern.MatchString(trimmed)
}

// ValidatePhone treats the empty string as valid.
func ValidatePhone(s string) bool {
	if s == "" {
		return true
	}
	digits := phoneFormatting.ReplaceAllString(s, "")
	if len(digits) < 8 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidateMessage checks the trimmed rune length against [min, max].
func ValidateMessage(s string, min, max int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n >= min && n <= max
}

// FitsLength reports whether s has at most max runes.
func FitsLength(s string, max int) bool {
	return utf8.RuneCountInString(s) <= max
}

// SanitizeInput trims, truncates to maxLength runes, then strips < > " ' &.
func SanitizeInput(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	s = strings.TrimSpace(s)
	if maxLength >= 0 && utf8.RuneCountInString(s) > maxLength {
		s = string([]rune(s)[:maxLength])
	}
	return sanitizeReplacer.Replace(s)
}
