package commands

import (
	"context"
	"errors"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/pkg/errs"
	"parcellocker/internal/pkg/guard"
)

var ErrCheckDeliveryPaymentCommandIsNotConstructed = errors.New(
	"CheckDeliveryPaymentCommand must be created via NewCheckDeliveryPaymentCommand constructor",
)

// CheckDeliveryPaymentCommand is the recipient pressing "I have paid".
type CheckDeliveryPaymentCommand struct { //nolint:recvcheck //using for validation
	code order.PickupCode

	guard guard.ConstructorGuard
}

func NewCheckDeliveryPaymentCommand(code string) (CheckDeliveryPaymentCommand, error) {
	pickupCode, err := order.NewPickupCode(code)
	if err != nil {
		return CheckDeliveryPaymentCommand{}, err
	}
	return CheckDeliveryPaymentCommand{code: pickupCode, guard: guard.NewConstructorGuard()}, nil
}

func (c CheckDeliveryPaymentCommand) Validate() error {
	return c.guard.Validate(ErrCheckDeliveryPaymentCommandIsNotConstructed)
}

func (c CheckDeliveryPaymentCommand) PickupCode() order.PickupCode {
	return c.code
}

// CheckDeliveryPaymentResult reports the order as it is after the check.
type CheckDeliveryPaymentResult struct {
	OrderID       kernel.UUID
	Status        order.Status
	PaymentStatus payment.Status
	BoardID       string
	LockerNumber  string
	LockerIndex   int
}

// CheckDeliveryPaymentCommandHandler verifies the open invoice of an order and
// reports the resulting state. A settlement observed here completes the
// pickup through the payment.Settled subscribers before the state is re-read.
type CheckDeliveryPaymentCommandHandler struct {
	uowFactory UoWFactory
	verifier   PaymentVerifier
}

func NewCheckDeliveryPaymentCommandHandler(uowFactory UoWFactory, verifier PaymentVerifier) CheckDeliveryPaymentCommandHandler {
	return CheckDeliveryPaymentCommandHandler{uowFactory: uowFactory, verifier: verifier}
}

func (h CheckDeliveryPaymentCommandHandler) Handle(
	ctx context.Context,
	command CheckDeliveryPaymentCommand,
) (CheckDeliveryPaymentResult, error) {
	if err := command.Validate(); err != nil {
		return CheckDeliveryPaymentResult{}, err
	}

	o, open, err := h.load(ctx, command.PickupCode())
	if err != nil {
		return CheckDeliveryPaymentResult{}, err
	}
	if o.IsPaid() || open == nil || !open.HasInvoice() || open.Status() != payment.Unpaid {
		return deliveryPaymentResult(o), nil
	}

	verify, err := NewVerifyPaymentCommand(open.ID(), o.ID())
	if err != nil {
		return CheckDeliveryPaymentResult{}, err
	}
	if _, err = h.verifier.Handle(ctx, verify); err != nil {
		return CheckDeliveryPaymentResult{}, err
	}

	o, _, err = h.load(ctx, command.PickupCode())
	if err != nil {
		return CheckDeliveryPaymentResult{}, err
	}
	return deliveryPaymentResult(o), nil
}

func (h CheckDeliveryPaymentCommandHandler) load(
	ctx context.Context,
	code order.PickupCode,
) (*order.Order, *payment.Payment, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetByPickupCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	p, err := uow.PaymentRepository().GetActiveByOrder(ctx, o.ID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return o, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return o, p, nil
}

func deliveryPaymentResult(o *order.Order) CheckDeliveryPaymentResult {
	return CheckDeliveryPaymentResult{
		OrderID:       o.ID(),
		Status:        o.Status(),
		PaymentStatus: o.PaymentStatus(),
		BoardID:       o.LockerRef().BoardID,
		LockerNumber:  o.LockerRef().Number,
		LockerIndex:   o.LockerIndex(),
	}
}
