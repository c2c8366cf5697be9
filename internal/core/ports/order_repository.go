package ports

import (
	"context"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for delivery orders.
type OrderRepository interface {
	// Add persists a new order. A second active order on the same locker or a
	// duplicate pickup code is a ConflictError.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the aggregate only if its stored version still equals the
	// version it was loaded with, and bumps the version. A stale aggregate is a
	// ConflictError. Reload before updating the same order again.
	Update(ctx context.Context, aggregate *order.Order) error

	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	GetByPickupCode(ctx context.Context, code order.PickupCode) (*order.Order, error)

	// ListPaidAwaitingPickup returns up to limit paid orders that still hold
	// their locker (WAITING or DELIVERED), oldest first.
	ListPaidAwaitingPickup(ctx context.Context, limit int) ([]*order.Order, error)
}

// PickupCodeRegistry remembers every code ever issued.
type PickupCodeRegistry interface {
	// Claim atomically records code and reports whether this call claimed it.
	// false means the code was already taken.
	Claim(ctx context.Context, code order.PickupCode) (bool, error)
}
