package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/ports"
	"parcellocker/internal/metrics"
	"parcellocker/internal/pkg/errs"
)

type (
	// LockerReserver is the locker inventory as seen by the delivery flow.
	LockerReserver interface {
		Reserve(ctx context.Context, ref locker.Ref) error
		Release(ctx context.Context, ref locker.Ref) error
	}

	// PickupCodeGenerator hands out unique pickup codes.
	PickupCodeGenerator interface {
		Generate(ctx context.Context) (order.PickupCode, error)
	}
)

// StartDeliveryResult is returned to the courier.
type StartDeliveryResult struct {
	OrderID      kernel.UUID
	PickupCode   string
	BoardID      string
	LockerNumber string
	LockerIndex  int
}

// StartDeliveryCommandHandler places a parcel into a locker.
//
// The locker is reserved first in its own transaction, then the order is
// inserted and the reservation promoted to OCCUPIED in a second one. Every
// failure after a successful reservation releases the locker again, so an
// aborted delivery never leaves a door blocked. The pickup code SMS is sent
// after commit and never fails the delivery.
type StartDeliveryCommandHandler struct {
	uowFactory UoWFactory
	lockers    LockerReserver
	codes      PickupCodeGenerator
	notifier   ports.Notifier
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

func NewStartDeliveryCommandHandler(
	uowFactory UoWFactory,
	lockers LockerReserver,
	codes PickupCodeGenerator,
	notifier ports.Notifier,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) StartDeliveryCommandHandler {
	return StartDeliveryCommandHandler{
		uowFactory: uowFactory,
		lockers:    lockers,
		codes:      codes,
		notifier:   notifier,
		publisher:  publisher,
		logger:     logger.With("component", "start-delivery"),
	}
}

func (h StartDeliveryCommandHandler) Handle(ctx context.Context, command StartDeliveryCommand) (StartDeliveryResult, error) {
	if err := command.Validate(); err != nil {
		return StartDeliveryResult{}, err
	}

	ref := command.LockerRef()
	container, target, err := h.inspect(ctx, ref)
	if err != nil {
		return StartDeliveryResult{}, err
	}

	if err = h.lockers.Reserve(ctx, ref); err != nil {
		return StartDeliveryResult{}, err
	}

	result, events, err := h.place(ctx, command, target)
	if err != nil {
		h.compensate(ctx, ref)
		return StartDeliveryResult{}, err
	}

	metrics.DeliveriesStartedTotal.Inc()
	h.publisher.Publish(context.WithoutCancel(ctx), events...)
	h.notifier.Notify(ctx, command.Recipient(), PickupCodeMessage(container.Location(), result.PickupCode))

	h.logger.InfoContext(ctx, "delivery started",
		"order_id", result.OrderID.String(),
		"locker", ref.String(),
	)
	return result, nil
}

func (h StartDeliveryCommandHandler) inspect(ctx context.Context, ref locker.Ref) (*locker.Container, *locker.Locker, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	container, err := uow.ContainerRepository().GetByBoardID(ctx, ref.BoardID)
	if err != nil {
		return nil, nil, err
	}
	if !container.AcceptsDeliveries() {
		return nil, nil, errs.NewConflictError("container", ref.BoardID, fmt.Sprintf("status is %s", container.Status()))
	}

	target, err := uow.LockerRepository().Get(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	if target.Status() != locker.Available {
		return nil, nil, errs.NewConflictError("locker", ref.String(), fmt.Sprintf("status is %s", target.Status()))
	}

	return container, target, nil
}

func (h StartDeliveryCommandHandler) place(
	ctx context.Context,
	command StartDeliveryCommand,
	target *locker.Locker,
) (StartDeliveryResult, []kernel.DomainEvent, error) {
	code, err := h.codes.Generate(ctx)
	if err != nil {
		return StartDeliveryResult{}, nil, err
	}

	o, err := order.NewOrder(kernel.NewUUID(), code, target.Ref(), target.Index(), command.Recipient(), time.Now())
	if err != nil {
		return StartDeliveryResult{}, nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return StartDeliveryResult{}, nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return StartDeliveryResult{}, nil, err
	}
	if err = uow.LockerRepository().Occupy(ctx, target.Ref()); err != nil {
		return StartDeliveryResult{}, nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return StartDeliveryResult{}, nil, err
	}

	return StartDeliveryResult{
		OrderID:      o.ID(),
		PickupCode:   code.String(),
		BoardID:      target.BoardID(),
		LockerNumber: target.Number(),
		LockerIndex:  target.Index(),
	}, uow.CollectDomainEvents(), nil
}

func (h StartDeliveryCommandHandler) compensate(ctx context.Context, ref locker.Ref) {
	if err := h.lockers.Release(context.WithoutCancel(ctx), ref); err != nil {
		h.logger.ErrorContext(ctx, "failed to release locker after aborted delivery",
			"locker", ref.String(),
			"error", err,
		)
	}
}
