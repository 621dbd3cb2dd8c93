package delivery

import (
	"fmt"
	"strings"
)

// DefaultCountryCode is the prefix applied to bare 10-digit numbers.
const DefaultCountryCode = "91"

// NormalizeMobile strips everything but digits and returns the number with its
// country code. A bare number must have 10 digits and start with 6-9; a
// prefixed number must be the country code followed by those 10 digits.
func NormalizeMobile(raw, countryCode string) (string, error) {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	digits := sanitizePhone(raw)
	switch {
	case len(digits) == 10 && isMobileLead(digits[0]):
		return countryCode + digits, nil
	case len(digits) == len(countryCode)+10 && strings.HasPrefix(digits, countryCode):
		return digits, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMobile, raw)
}

func isMobileLead(b byte) bool {
	return b >= '6' && b <= '9'
}

func sanitizePhone(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
