// Package queries contains read use cases. Handlers read straight from the
// database with raw SQL and never load aggregates.
package queries

import (
	"errors"
	"strings"

	"parcellocker/internal/pkg/errs"
	"parcellocker/internal/pkg/guard"
)

var (
	ErrGetLockerStatusQueryIsNotConstructed = errors.New(
		"GetLockerStatusQuery must be created via NewGetLockerStatusQuery constructor",
	)
)

// GetLockerStatusQuery reports the container of a board and the status of
// each of its doors.
//
// Example:
//
//	query, err := NewGetLockerStatusQuery("BOARD_001")
//	status, err := handler.Handle(ctx, query)
//	for _, l := range status.Lockers {
//	    fmt.Printf("%s (door %d): %s\n", l.Number, l.Index, l.Status)
//	}
type GetLockerStatusQuery struct {
	boardID string

	guard guard.ConstructorGuard
}

func NewGetLockerStatusQuery(boardID string) (GetLockerStatusQuery, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return GetLockerStatusQuery{}, errs.NewValueIsRequiredError("boardId")
	}
	return GetLockerStatusQuery{
		boardID: boardID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (q GetLockerStatusQuery) BoardID() string {
	return q.boardID
}

func (q GetLockerStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetLockerStatusQueryIsNotConstructed)
}

// LockerStatusItem is one door of the board.
type LockerStatusItem struct {
	Number string
	Index  int
	Status string
}

// GetLockerStatusResponse is the board with its doors ordered by index.
type GetLockerStatusResponse struct {
	BoardID         string
	Location        string
	ContainerStatus string
	Lockers         []LockerStatusItem
}

// Available counts doors that can take a parcel right now.
func (r GetLockerStatusResponse) Available() int {
	n := 0
	for _, l := range r.Lockers {
		if l.Status == "AVAILABLE" {
			n++
		}
	}
	return n
}
