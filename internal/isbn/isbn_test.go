package isbn_test

import (
	"errors"
	"strings"
	"testing"

	"shelfmark/internal/isbn"
)

func TestValidateKnownISBNs(t *testing.T) {
	cases := []struct {
		value string
		valid bool
	}{
		{"9780306406157", true},
		{"978-0-306-40615-7", true},
		{"979 8 6024 5558 8", true},
		{"9780306406158", false}, // wrong check digit
		{"9770306406157", false}, // bad prefix
		{"978030640615", false},  // short
		{"97803064061570", false},
		{"97803064O6157", false}, // letter O
		{"", false},
	}
	for _, tc := range cases {
		if got := isbn.Validate(tc.value); got != tc.valid {
			t.Errorf("Validate(%q) = %v, want %v", tc.value, got, tc.valid)
		}
	}
}

func TestComposeRoundTrip(t *testing.T) {
	for seq := 0; seq < 50; seq++ {
		value, err := isbn.Compose("978", "12345", seq)
		if err != nil {
			t.Fatalf("Compose failed for seq %d: %v", seq, err)
		}
		if len(value) != 13 {
			t.Fatalf("Compose returned %q, want 13 digits", value)
		}
		if !isbn.Validate(value) {
			t.Errorf("Validate rejected composed ISBN %q", value)
		}

		// Flipping the check digit must invalidate it.
		last := value[12]
		flipped := value[:12] + string('0'+(last-'0'+1)%10)
		if isbn.Validate(flipped) {
			t.Errorf("Validate accepted corrupted ISBN %q", flipped)
		}
	}
}

func TestComposeZeroPadsSequence(t *testing.T) {
	value, err := isbn.Compose("978", "12345", 7)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if !strings.HasPrefix(value, "978123450007") {
		t.Fatalf("expected zero-padded payload, got %q", value)
	}
}

func TestComposeRejectsOverflow(t *testing.T) {
	// Publisher code 12345 leaves four sequence digits.
	if _, err := isbn.Compose("978", "12345", 10000); !errors.Is(err, isbn.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := isbn.Compose("978", "12345", -1); !errors.Is(err, isbn.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for negative sequence, got %v", err)
	}
}

func TestComposeRejectsBadParts(t *testing.T) {
	if _, err := isbn.Compose("977", "12345", 1); !errors.Is(err, isbn.ErrInvalidISBN) {
		t.Fatalf("expected ErrInvalidISBN for bad prefix, got %v", err)
	}
	if _, err := isbn.Compose("978", "12a45", 1); !errors.Is(err, isbn.ErrInvalidISBN) {
		t.Fatalf("expected ErrInvalidISBN for non-digit publisher, got %v", err)
	}
	if _, err := isbn.Compose("978", "123456789", 1); !errors.Is(err, isbn.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for oversized publisher, got %v", err)
	}
}

func TestMaxSequence(t *testing.T) {
	max, err := isbn.MaxSequence("978", "12345")
	if err != nil {
		t.Fatalf("MaxSequence failed: %v", err)
	}
	if max != 9999 {
		t.Fatalf("MaxSequence = %d, want 9999", max)
	}
}

func TestNormalize(t *testing.T) {
	if got := isbn.Normalize(" 978-0-306-40615-7 "); got != "9780306406157" {
		t.Fatalf("Normalize = %q", got)
	}
}
