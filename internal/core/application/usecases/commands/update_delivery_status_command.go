package commands

import (
	"errors"

	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/pkg/guard"
)

var ErrUpdateDeliveryStatusCommandIsNotConstructed = errors.New(
	"UpdateDeliveryStatusCommand must be created via NewUpdateDeliveryStatusCommand constructor",
)

// UpdateDeliveryStatusCommand is the administrative status override.
type UpdateDeliveryStatusCommand struct { //nolint:recvcheck //using for validation
	code   order.PickupCode
	status order.Status

	guard guard.ConstructorGuard
}

func NewUpdateDeliveryStatusCommand(code, status string) (UpdateDeliveryStatusCommand, error) {
	cmd := UpdateDeliveryStatusCommand{guard: guard.NewConstructorGuard()}

	pickupCode, codeErr := order.NewPickupCode(code)
	next, statusErr := order.ParseStatus(status)
	if err := errors.Join(codeErr, statusErr); err != nil {
		return UpdateDeliveryStatusCommand{}, err
	}

	cmd.code = pickupCode
	cmd.status = next
	return cmd, nil
}

func (c UpdateDeliveryStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateDeliveryStatusCommandIsNotConstructed)
}

func (c UpdateDeliveryStatusCommand) PickupCode() order.PickupCode {
	return c.code
}

func (c UpdateDeliveryStatusCommand) Status() order.Status {
	return c.status
}
