package kernel

import (
	"fmt"
	"strings"

	"parcellocker/internal/pkg/errs"
)

// DefaultCountryCode is prepended to numbers entered without an international prefix.
const DefaultCountryCode = "+976"

const (
	minPhoneDigits = 8
	maxPhoneDigits = 15
)

// PhoneNumber is a recipient contact normalized to E.164.
type PhoneNumber struct {
	value string
}

// NewPhoneNumber normalizes raw input. Spaces and dashes are dropped and a number
// without a leading '+' is treated as a local one:
//
//	NewPhoneNumber("8811 8811")     // +97688118811
//	NewPhoneNumber("+97688118811")  // +97688118811
func NewPhoneNumber(raw string) (PhoneNumber, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return PhoneNumber{}, errs.NewValueIsRequiredError("phone")
	}

	if !strings.HasPrefix(cleaned, "+") {
		cleaned = DefaultCountryCode + cleaned
	}

	digits := cleaned[1:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return PhoneNumber{}, errs.NewValueIsInvalidErrorWithCause("phone", fmt.Errorf("%q contains non-digit characters", raw))
		}
	}
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return PhoneNumber{}, errs.NewValueIsOutOfRangeError("phone digits", len(digits), minPhoneDigits, maxPhoneDigits)
	}

	return PhoneNumber{value: cleaned}, nil
}

// String returns the E.164 form.
func (p PhoneNumber) String() string {
	return p.value
}

func (p PhoneNumber) IsEqual(other PhoneNumber) bool {
	return p.value == other.value
}

func (p PhoneNumber) Validate() error {
	if p.value == "" {
		return errs.NewValueIsRequiredError("phone")
	}
	return nil
}
