package commands

import (
	"errors"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/pkg/guard"
)

var ErrVerifyPaymentCommandIsNotConstructed = errors.New(
	"VerifyPaymentCommand must be created via NewVerifyPaymentCommand constructor",
)

// VerifyPaymentCommand checks a payment against the gateway and settles it.
// It is what the gateway callback, the user-triggered check and the
// reconciliation job all end up running.
type VerifyPaymentCommand struct { //nolint:recvcheck //using for validation
	paymentID kernel.UUID
	orderID   kernel.UUID

	guard guard.ConstructorGuard
}

func NewVerifyPaymentCommand(paymentID, orderID kernel.UUID) (VerifyPaymentCommand, error) {
	if err := errors.Join(paymentID.Validate(), orderID.Validate()); err != nil {
		return VerifyPaymentCommand{}, err
	}
	return VerifyPaymentCommand{
		paymentID: paymentID,
		orderID:   orderID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c VerifyPaymentCommand) Validate() error {
	return c.guard.Validate(ErrVerifyPaymentCommandIsNotConstructed)
}

func (c VerifyPaymentCommand) PaymentID() kernel.UUID {
	return c.paymentID
}

func (c VerifyPaymentCommand) OrderID() kernel.UUID {
	return c.orderID
}
