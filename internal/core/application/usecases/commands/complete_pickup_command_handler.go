package commands

import (
	"context"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/ports"
	"parcellocker/internal/metrics"
)

// CompletePickupResult describes the opened door.
type CompletePickupResult struct {
	OrderID          kernel.UUID
	PickupCode       string
	Recipient        kernel.PhoneNumber
	BoardID          string
	LockerNumber     string
	LockerIndex      int
	AlreadyCompleted bool
}

// CompletePickupCommandHandler moves a paid WAITING or DELIVERED order to PICKED_UP,
// releases its locker and publishes PickupCompleted, all after one commit.
// An order that is already PICKED_UP is reported as such without effects.
type CompletePickupCommandHandler struct {
	uowFactory UoWFactory
	publisher  ports.EventPublisher
}

func NewCompletePickupCommandHandler(uowFactory UoWFactory, publisher ports.EventPublisher) CompletePickupCommandHandler {
	return CompletePickupCommandHandler{uowFactory: uowFactory, publisher: publisher}
}

func (h CompletePickupCommandHandler) Handle(
	ctx context.Context,
	command CompletePickupCommand,
) (CompletePickupResult, error) {
	if err := command.Validate(); err != nil {
		return CompletePickupResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return CompletePickupResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders := uow.OrderRepository()
	o, err := orders.Get(ctx, command.OrderID())
	if err != nil {
		return CompletePickupResult{}, err
	}

	if o.Status() == order.PickedUp {
		result := pickupResult(o)
		result.AlreadyCompleted = true
		return result, nil
	}

	if err = o.CompletePickup(time.Now()); err != nil {
		return CompletePickupResult{}, err
	}
	if err = orders.Update(ctx, o); err != nil {
		return CompletePickupResult{}, err
	}
	if err = uow.LockerRepository().Release(ctx, o.LockerRef()); err != nil {
		return CompletePickupResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return CompletePickupResult{}, err
	}

	metrics.PickupsCompletedTotal.Inc()
	h.publisher.Publish(context.WithoutCancel(ctx), uow.CollectDomainEvents()...)
	return pickupResult(o), nil
}

func pickupResult(o *order.Order) CompletePickupResult {
	return CompletePickupResult{
		OrderID:      o.ID(),
		PickupCode:   o.PickupCode().String(),
		Recipient:    o.Recipient(),
		BoardID:      o.LockerRef().BoardID,
		LockerNumber: o.LockerRef().Number,
		LockerIndex:  o.LockerIndex(),
	}
}
