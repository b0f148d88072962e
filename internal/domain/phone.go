package domain

import "strings"

const (
	phoneCountryCode  = "55"
	phoneMobilePrefix = "9"
	phoneAreaCodeLen  = 2
)

// NormalizePhone brings a phone number to the national format:
// non-digits are stripped, a leading country code is dropped when at least 12 digits are present,
// and a 10-digit number (area code + 8 digits) gets the mobile prefix after the area code
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, phoneCountryCode) && len(digits) >= 12 {
		digits = digits[len(phoneCountryCode):]
	}

	if len(digits) == 10 {
		digits = digits[:phoneAreaCodeLen] + phoneMobilePrefix + digits[phoneAreaCodeLen:]
	}

	return digits
}
