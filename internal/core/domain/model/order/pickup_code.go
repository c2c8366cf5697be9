package order

import (
	"fmt"
	"strings"

	"parcellocker/internal/pkg/errs"
)

// PickupCodeLength is the number of decimal digits of a pickup code. 10^8
// combinations keep the daily collision probability negligible at a few
// hundred drop-offs per day; collisions that still happen are retried.
const PickupCodeLength = 8

// PickupCode is the single-use code a recipient types on the locker keypad.
type PickupCode struct {
	value string
}

func NewPickupCode(raw string) (PickupCode, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return PickupCode{}, errs.NewValueIsRequiredError("pickupCode")
	}
	if len(code) != PickupCodeLength {
		return PickupCode{}, errs.NewValueIsInvalidErrorWithCause("pickupCode", fmt.Errorf("must have %d digits", PickupCodeLength))
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return PickupCode{}, errs.NewValueIsInvalidErrorWithCause("pickupCode", fmt.Errorf("must contain digits only"))
		}
	}
	return PickupCode{value: code}, nil
}

func (c PickupCode) String() string {
	return c.value
}

func (c PickupCode) Validate() error {
	if c.value == "" {
		return errs.NewValueIsRequiredError("pickupCode")
	}
	return nil
}
