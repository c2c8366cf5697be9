package queries

import (
	"errors"
	"strings"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/pkg/errs"
	"parcellocker/internal/pkg/guard"
)

var (
	ErrGetDeliveriesQueryIsNotConstructed = errors.New(
		"GetDeliveriesQuery must be created via NewGetDeliveriesQuery constructor",
	)
)

const (
	DefaultDeliveriesLimit = 100
	MaxDeliveriesLimit     = 500
)

// GetDeliveriesQuery lists delivery orders, newest first, optionally
// narrowed to one board and one status.
type GetDeliveriesQuery struct {
	boardID string
	status  order.Status
	limit   int

	guard guard.ConstructorGuard
}

// NewGetDeliveriesQuery accepts an empty boardID and status as "any". A
// non-positive limit means DefaultDeliveriesLimit.
func NewGetDeliveriesQuery(boardID, status string, limit int) (GetDeliveriesQuery, error) {
	q := GetDeliveriesQuery{
		boardID: strings.TrimSpace(boardID),
		limit:   limit,
		guard:   guard.NewConstructorGuard(),
	}

	if s := strings.TrimSpace(status); s != "" {
		parsed, err := order.ParseStatus(s)
		if err != nil {
			return GetDeliveriesQuery{}, err
		}
		q.status = parsed
	}

	if q.limit <= 0 {
		q.limit = DefaultDeliveriesLimit
	}
	if q.limit > MaxDeliveriesLimit {
		return GetDeliveriesQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxDeliveriesLimit)
	}
	return q, nil
}

func (q GetDeliveriesQuery) Validate() error {
	return q.guard.Validate(ErrGetDeliveriesQueryIsNotConstructed)
}

// DeliveryItem is one order as shown to operators. The pickup code is left
// out on purpose: it opens the door.
type DeliveryItem struct {
	ID            kernel.UUID
	BoardID       string
	LockerNumber  string
	LockerIndex   int
	Recipient     string
	Status        string
	PaymentStatus string
	CreatedAt     time.Time
	PickedUpAt    *time.Time
	CancelledAt   *time.Time
}
