package order

import (
	"fmt"
	"strings"

	"parcellocker/internal/pkg/errs"
)

// Status is the lifecycle state of a delivery order.
//
// State transitions (forward-only):
//
//	Waiting ──┬──────────────> PickedUp
//	          ├──> Delivered ──┤
//	          │                └──> Cancelled
//	          └──────────────────> Cancelled
//
// An order is persisted directly as Waiting: the drop-off and the creation
// happen in the same transaction. Delivered is only reachable through the
// administrative override. PickedUp and Cancelled are terminal.
type Status int

const (
	// Unknown (0) catches uninitialized values.
	Unknown Status = iota
	Waiting
	Delivered
	PickedUp
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "UNKNOWN",
		Waiting:   "WAITING",
		Delivered: "DELIVERED",
		PickedUp:  "PICKED_UP",
		Cancelled: "CANCELLED",
	}
}

// rank orders statuses along the lifecycle; transitions must strictly increase it.
func (s Status) rank() int {
	switch s {
	case Waiting:
		return 1
	case Delivered:
		return 2
	case PickedUp, Cancelled:
		return 3
	default:
		return 0
	}
}

// ParseStatus accepts the persisted names case-insensitively.
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if status != Unknown && strings.EqualFold(name, s) {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("order status", fmt.Errorf("%q is not a valid status", s))
}

// ActiveStatuses are the non-terminal statuses. At most one order in one of
// these statuses may reference a given locker.
func ActiveStatuses() []Status {
	return []Status{Waiting, Delivered}
}

func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("order status", fmt.Errorf("%d is not a valid status", s))
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
	return s == PickedUp || s == Cancelled
}

// TransitionTo validates a move from s to next. Terminal statuses are final,
// and a move must go strictly forward in the lifecycle.
func (s Status) TransitionTo(next Status) (Status, error) {
	if err := next.Validate(); err != nil {
		return 0, err
	}
	if s.IsTerminal() {
		return 0, fmt.Errorf("%s is terminal", s)
	}
	if next.rank() <= s.rank() {
		return 0, fmt.Errorf("%s cannot move back or stay at %s", s, next)
	}
	return next, nil
}
