package order

import (
	"time"

	"parcellocker/internal/core/domain/model/kernel"
)

const (
	StartedEventName         = "delivery.started"
	PickupCompletedEventName = "delivery.pickup_completed"
	CancelledEventName       = "delivery.cancelled"
	StatusChangedEventName   = "delivery.status_changed"
)

// Started is raised when a parcel was deposited and the order stored.
type Started struct {
	OrderID      kernel.UUID
	PickupCode   string
	BoardID      string
	LockerNumber string
	LockerIndex  int
	At           time.Time
}

func (Started) EventName() string { return StartedEventName }

// PickupCompleted is raised once the order reached PickedUp through payment.
// Its subscriber opens the door.
type PickupCompleted struct {
	OrderID      kernel.UUID
	BoardID      string
	LockerNumber string
	LockerIndex  int
	PickedUpAt   time.Time
}

func (PickupCompleted) EventName() string { return PickupCompletedEventName }

// OrderCancelled is raised when an order is terminalized without pickup.
type OrderCancelled struct {
	OrderID      kernel.UUID
	BoardID      string
	LockerNumber string
	Reason       string
	At           time.Time
}

func (OrderCancelled) EventName() string { return CancelledEventName }

// StatusChanged is raised by the administrative override.
type StatusChanged struct {
	OrderID kernel.UUID
	From    Status
	To      Status
	At      time.Time
}

func (StatusChanged) EventName() string { return StatusChangedEventName }
