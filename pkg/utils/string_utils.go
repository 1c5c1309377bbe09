package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// PhoneLength is the number of digits in a customer mobile number.
const PhoneLength = 10

// Indian mobile numbers: 10 digits starting with 6-9.
var mobileRegex = regexp.MustCompile(`^[6-9]\d{9}$`)

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SanitizePhone keeps only the digits of raw, truncated to PhoneLength.
func SanitizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if b.Len() == PhoneLength {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidMobile checks for a 10-digit mobile number with a 6-9 prefix.
func IsValidMobile(phone string) bool {
	return mobileRegex.MatchString(phone)
}

// ContainsFold reports whether substr is within s, ignoring case and surrounding spaces.
func ContainsFold(s, substr string) bool {
	substr = strings.TrimSpace(substr)
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
