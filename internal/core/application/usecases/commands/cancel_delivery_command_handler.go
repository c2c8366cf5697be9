package commands

import (
	"context"
	"errors"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/core/ports"
	"parcellocker/internal/pkg/errs"
)

// ChangeDeliveryResult is returned by cancel and status override.
type ChangeDeliveryResult struct {
	OrderID kernel.UUID
	Status  order.Status
}

// CancelDeliveryCommandHandler cancels a non-terminal order, releases its
// locker and fails its open invoice in one transaction, so a settlement that
// arrives later cannot revive the order.
type CancelDeliveryCommandHandler struct {
	uowFactory UoWFactory
	publisher  ports.EventPublisher
}

func NewCancelDeliveryCommandHandler(uowFactory UoWFactory, publisher ports.EventPublisher) CancelDeliveryCommandHandler {
	return CancelDeliveryCommandHandler{uowFactory: uowFactory, publisher: publisher}
}

func (h CancelDeliveryCommandHandler) Handle(ctx context.Context, command CancelDeliveryCommand) (ChangeDeliveryResult, error) {
	if err := command.Validate(); err != nil {
		return ChangeDeliveryResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ChangeDeliveryResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := time.Now()
	orders := uow.OrderRepository()

	o, err := orders.GetByPickupCode(ctx, command.PickupCode())
	if err != nil {
		return ChangeDeliveryResult{}, err
	}
	if err = o.Cancel(command.Reason(), now); err != nil {
		return ChangeDeliveryResult{}, err
	}
	if err = orders.Update(ctx, o); err != nil {
		return ChangeDeliveryResult{}, err
	}
	if err = uow.LockerRepository().Release(ctx, o.LockerRef()); err != nil {
		return ChangeDeliveryResult{}, err
	}
	if err = failOpenPayment(ctx, uow.PaymentRepository(), o.ID(), "delivery cancelled", now); err != nil {
		return ChangeDeliveryResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return ChangeDeliveryResult{}, err
	}

	h.publisher.Publish(context.WithoutCancel(ctx), uow.CollectDomainEvents()...)
	return ChangeDeliveryResult{OrderID: o.ID(), Status: o.Status()}, nil
}

// failOpenPayment fails the UNPAID payment of an order, if there is one.
func failOpenPayment(
	ctx context.Context,
	payments ports.PaymentRepository,
	orderID kernel.UUID,
	reason string,
	now time.Time,
) error {
	p, err := payments.GetActiveByOrder(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.Status() != payment.Unpaid {
		return nil
	}
	if err = p.Fail(reason, now); err != nil {
		return err
	}
	return payments.Update(ctx, p)
}
