package commands

import (
	"context"
	"time"

	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/ports"
)

// UpdateDeliveryStatusCommandHandler applies an administrator's status change.
// The order state machine still refuses backward moves. A terminal target
// frees the locker; a cancellation also fails the open invoice.
type UpdateDeliveryStatusCommandHandler struct {
	uowFactory UoWFactory
	publisher  ports.EventPublisher
}

func NewUpdateDeliveryStatusCommandHandler(
	uowFactory UoWFactory,
	publisher ports.EventPublisher,
) UpdateDeliveryStatusCommandHandler {
	return UpdateDeliveryStatusCommandHandler{uowFactory: uowFactory, publisher: publisher}
}

func (h UpdateDeliveryStatusCommandHandler) Handle(
	ctx context.Context,
	command UpdateDeliveryStatusCommand,
) (ChangeDeliveryResult, error) {
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
	if err = o.ChangeStatus(command.Status(), now); err != nil {
		return ChangeDeliveryResult{}, err
	}
	if err = orders.Update(ctx, o); err != nil {
		return ChangeDeliveryResult{}, err
	}

	if o.Status().IsTerminal() {
		if err = uow.LockerRepository().Release(ctx, o.LockerRef()); err != nil {
			return ChangeDeliveryResult{}, err
		}
	}
	if o.Status() == order.Cancelled {
		if err = failOpenPayment(ctx, uow.PaymentRepository(), o.ID(), o.CancelReason(), now); err != nil {
			return ChangeDeliveryResult{}, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return ChangeDeliveryResult{}, err
	}

	h.publisher.Publish(context.WithoutCancel(ctx), uow.CollectDomainEvents()...)
	return ChangeDeliveryResult{OrderID: o.ID(), Status: o.Status()}, nil
}
