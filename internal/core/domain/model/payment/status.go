package payment

import (
	"fmt"
	"strings"

	"parcellocker/internal/pkg/errs"
)

// Status of a settlement. Forward-only:
//
//	Unpaid ──> Paid
//	   └─────> Failed
//
// Paid and Failed are terminal. The same enum is mirrored on the delivery
// order as its payment status.
type Status int

const (
	Unknown Status = iota
	Unpaid
	Paid
	Failed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown: "UNKNOWN",
		Unpaid:  "UNPAID",
		Paid:    "PAID",
		Failed:  "FAILED",
	}
}

func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if status != Unknown && strings.EqualFold(name, s) {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("payment status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("payment status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

func (s Status) IsTerminal() bool {
	return s == Paid || s == Failed
}

// Settle allows only Unpaid -> Paid.
func (s Status) Settle() (Status, error) {
	if s != Unpaid {
		return 0, fmt.Errorf("%s is not a valid status to settle", s)
	}
	return Paid, nil
}

// Fail allows only Unpaid -> Failed.
func (s Status) Fail() (Status, error) {
	if s != Unpaid {
		return 0, fmt.Errorf("%s is not a valid status to fail", s)
	}
	return Failed, nil
}
