package commands

import (
	"errors"

	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/pkg/guard"
)

var ErrRequestPickupCommandIsNotConstructed = errors.New(
	"RequestPickupCommand must be created via NewRequestPickupCommand constructor",
)

// RequestPickupCommand is a recipient entering a pickup code at the locker.
type RequestPickupCommand struct { //nolint:recvcheck //using for validation
	code order.PickupCode

	guard guard.ConstructorGuard
}

func NewRequestPickupCommand(code string) (RequestPickupCommand, error) {
	pickupCode, err := order.NewPickupCode(code)
	if err != nil {
		return RequestPickupCommand{}, err
	}
	return RequestPickupCommand{code: pickupCode, guard: guard.NewConstructorGuard()}, nil
}

func (c RequestPickupCommand) Validate() error {
	return c.guard.Validate(ErrRequestPickupCommandIsNotConstructed)
}

func (c RequestPickupCommand) PickupCode() order.PickupCode {
	return c.code
}
