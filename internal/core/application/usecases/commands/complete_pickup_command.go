package commands

import (
	"errors"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/pkg/guard"
)

var ErrCompletePickupCommandIsNotConstructed = errors.New(
	"CompletePickupCommand must be created via NewCompletePickupCommand constructor",
)

// CompletePickupCommand releases a paid parcel to its recipient.
type CompletePickupCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewCompletePickupCommand(orderID kernel.UUID) (CompletePickupCommand, error) {
	if err := orderID.Validate(); err != nil {
		return CompletePickupCommand{}, err
	}
	return CompletePickupCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c CompletePickupCommand) Validate() error {
	return c.guard.Validate(ErrCompletePickupCommandIsNotConstructed)
}

func (c CompletePickupCommand) OrderID() kernel.UUID {
	return c.orderID
}
