package isbn

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidISBN indicates a value that is not a well-formed ISBN-13.
	ErrInvalidISBN = errors.New("invalid isbn")
	// ErrInvalidRange indicates a sequence number that does not fit the
	// digit width left by a prefix and publisher code.
	ErrInvalidRange = errors.New("invalid range")
)

// validPrefixes are the bookland EAN prefixes assigned to ISBNs.
var validPrefixes = map[string]struct{}{
	"978": {},
	"979": {},
}

// Normalize strips hyphens and spaces from an ISBN candidate.
func Normalize(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.TrimSpace(value) {
		if r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Validate reports whether value is a well-formed ISBN-13: thirteen digits,
// a 978/979 prefix, and a correct weighted check digit.
func Validate(value string) bool {
	normalized := Normalize(value)
	if len(normalized) != 13 {
		return false
	}
	if _, ok := validPrefixes[normalized[:3]]; !ok {
		return false
	}
	for _, r := range normalized {
		if r < '0' || r > '9' {
			return false
		}
	}
	check, err := CheckDigit(normalized[:12])
	if err != nil {
		return false
	}
	return int(normalized[12]-'0') == check
}

// CheckDigit computes the ISBN-13 check digit for a 12-digit payload.
// Digits are weighted alternately 1 and 3; the check digit is
// (10 - sum mod 10) mod 10.
func CheckDigit(payload string) (int, error) {
	if len(payload) != 12 {
		return 0, fmt.Errorf("%w: payload %q must be 12 digits", ErrInvalidISBN, payload)
	}
	sum := 0
	for i, r := range payload {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: payload %q contains non-digit", ErrInvalidISBN, payload)
		}
		digit := int(r - '0')
		if i%2 == 1 {
			digit *= 3
		}
		sum += digit
	}
	return (10 - sum%10) % 10, nil
}

// SequenceWidth returns the number of digits available for the sequence
// portion of an ISBN built from prefix and publisherCode.
func SequenceWidth(prefix, publisherCode string) (int, error) {
	if _, ok := validPrefixes[prefix]; !ok {
		return 0, fmt.Errorf("%w: prefix %q must be 978 or 979", ErrInvalidISBN, prefix)
	}
	if publisherCode == "" {
		return 0, fmt.Errorf("%w: publisher code is required", ErrInvalidISBN)
	}
	for _, r := range publisherCode {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: publisher code %q contains non-digit", ErrInvalidISBN, publisherCode)
		}
	}
	width := 12 - len(prefix) - len(publisherCode)
	if width < 1 {
		return 0, fmt.Errorf("%w: publisher code %q leaves no sequence digits", ErrInvalidRange, publisherCode)
	}
	return width, nil
}

// Compose builds a full ISBN-13 from prefix, publisher code, and sequence
// number, zero-padding the sequence to the available width and appending the
// computed check digit.
func Compose(prefix, publisherCode string, sequence int) (string, error) {
	width, err := SequenceWidth(prefix, publisherCode)
	if err != nil {
		return "", err
	}
	if sequence < 0 {
		return "", fmt.Errorf("%w: sequence %d is negative", ErrInvalidRange, sequence)
	}
	formatted := fmt.Sprintf("%0*d", width, sequence)
	if len(formatted) > width {
		return "", fmt.Errorf("%w: sequence %d exceeds %d digit(s) for publisher %s", ErrInvalidRange, sequence, width, publisherCode)
	}
	payload := prefix + publisherCode + formatted
	check, err := CheckDigit(payload)
	if err != nil {
		return "", err
	}
	return payload + string(rune('0'+check)), nil
}

// MaxSequence returns the largest sequence number expressible in the digit
// width left by prefix and publisherCode.
func MaxSequence(prefix, publisherCode string) (int, error) {
	width, err := SequenceWidth(prefix, publisherCode)
	if err != nil {
		return 0, err
	}
	max := 1
	for i := 0; i < width; i++ {
		max *= 10
	}
	return max - 1, nil
}
