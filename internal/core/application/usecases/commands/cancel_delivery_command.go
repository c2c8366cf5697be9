package commands

import (
	"errors"
	"strings"

	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/pkg/guard"
)

var ErrCancelDeliveryCommandIsNotConstructed = errors.New(
	"CancelDeliveryCommand must be created via NewCancelDeliveryCommand constructor",
)

// DefaultCancelReason is recorded when the caller gives none.
const DefaultCancelReason = "cancelled"

type CancelDeliveryCommand struct { //nolint:recvcheck //using for validation
	code   order.PickupCode
	reason string

	guard guard.ConstructorGuard
}

func NewCancelDeliveryCommand(code, reason string) (CancelDeliveryCommand, error) {
	pickupCode, err := order.NewPickupCode(code)
	if err != nil {
		return CancelDeliveryCommand{}, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}

	return CancelDeliveryCommand{
		code:   pickupCode,
		reason: reason,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (c CancelDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrCancelDeliveryCommandIsNotConstructed)
}

func (c CancelDeliveryCommand) PickupCode() order.PickupCode {
	return c.code
}

func (c CancelDeliveryCommand) Reason() string {
	return c.reason
}
