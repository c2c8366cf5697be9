package locker

import (
	"fmt"
	"strings"

	"parcellocker/internal/pkg/errs"
)

// Status is the availability of a single compartment.
//
//	Available ──Reserve──> Pending ──Occupy──> Occupied
//	    ^                     │                   │
//	    └──────── Release ────┴───────────────────┘
//
// Maintenance is set administratively and is never left by Release.
type Status int

const (
	Unknown Status = iota
	Available
	Pending
	Occupied
	Maintenance
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:     "UNKNOWN",
		Available:   "AVAILABLE",
		Pending:     "PENDING",
		Occupied:    "OCCUPIED",
		Maintenance: "MAINTENANCE",
	}
}

// ParseStatus accepts the persisted names case-insensitively.
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if status != Unknown && strings.EqualFold(name, s) {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("locker status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("locker status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// Reserve allows only Available -> Pending.
func (s Status) Reserve() (Status, error) {
	if s != Available {
		return 0, fmt.Errorf("%s is not a valid status to reserve", s)
	}
	return Pending, nil
}

// Occupy promotes a reservation once the order referencing it is stored.
func (s Status) Occupy() (Status, error) {
	if s != Pending {
		return 0, fmt.Errorf("%s is not a valid status to occupy", s)
	}
	return Occupied, nil
}

// Release frees the compartment. Releasing an Available locker is a no-op and
// Maintenance lockers stay in maintenance.
func (s Status) Release() Status {
	if s == Pending || s == Occupied {
		return Available
	}
	return s
}
