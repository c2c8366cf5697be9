package commands

import (
	"context"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/services"
	"parcellocker/internal/pkg/errs"
)

type (
	// InvoiceCreator issues an invoice for an order.
	InvoiceCreator interface {
		Handle(ctx context.Context, command CreateInvoiceCommand) (CreateInvoiceResult, error)
	}

	// PickupCompleter releases a paid parcel.
	PickupCompleter interface {
		Handle(ctx context.Context, command CompletePickupCommand) (CompletePickupResult, error)
	}
)

// RequestPickupResult either opens the door or tells the recipient how to pay.
type RequestPickupResult struct {
	OrderID         kernel.UUID
	Unlocked        bool
	BoardID         string
	LockerNumber    string
	LockerIndex     int
	PaymentRequired bool
	Amount          int64
	Invoice         *CreateInvoiceResult
}

// RequestPickupCommandHandler resolves a pickup code.
//
// Business rules:
//   - Unknown code: ObjectNotFoundError
//   - Order not WAITING: ConflictError
//   - Not paid yet: an invoice is issued for the container's price and
//     returned; the order itself is left unchanged
//   - Paid: the pickup completes and the door opens, unless a concurrent
//     request completed it first (ConflictError)
type RequestPickupCommandHandler struct {
	uowFactory UoWFactory
	invoices   InvoiceCreator
	pickups    PickupCompleter
	prices     services.PriceCalculator
}

func NewRequestPickupCommandHandler(
	uowFactory UoWFactory,
	invoices InvoiceCreator,
	pickups PickupCompleter,
	prices services.PriceCalculator,
) RequestPickupCommandHandler {
	return RequestPickupCommandHandler{
		uowFactory: uowFactory,
		invoices:   invoices,
		pickups:    pickups,
		prices:     prices,
	}
}

func (h RequestPickupCommandHandler) Handle(ctx context.Context, command RequestPickupCommand) (RequestPickupResult, error) {
	if err := command.Validate(); err != nil {
		return RequestPickupResult{}, err
	}

	snapshot, err := h.load(ctx, command)
	if err != nil {
		return RequestPickupResult{}, err
	}

	if snapshot.paid {
		cmd, cErr := NewCompletePickupCommand(snapshot.orderID)
		if cErr != nil {
			return RequestPickupResult{}, cErr
		}
		done, cErr := h.pickups.Handle(ctx, cmd)
		if cErr != nil {
			return RequestPickupResult{}, cErr
		}
		// Someone else opened the door between our read and the completion.
		if done.AlreadyCompleted {
			return RequestPickupResult{}, errs.NewConflictError("order", command.PickupCode().String(), "already picked up")
		}
		return RequestPickupResult{
			OrderID:      done.OrderID,
			Unlocked:     true,
			BoardID:      done.BoardID,
			LockerNumber: done.LockerNumber,
			LockerIndex:  done.LockerIndex,
		}, nil
	}

	cmd, err := NewCreateInvoiceCommand(snapshot.orderID, snapshot.price)
	if err != nil {
		return RequestPickupResult{}, err
	}
	invoice, err := h.invoices.Handle(ctx, cmd)
	if err != nil {
		return RequestPickupResult{}, err
	}

	return RequestPickupResult{
		OrderID:         snapshot.orderID,
		BoardID:         snapshot.boardID,
		LockerNumber:    snapshot.lockerNumber,
		LockerIndex:     snapshot.lockerIndex,
		PaymentRequired: true,
		Amount:          invoice.Amount,
		Invoice:         &invoice,
	}, nil
}

type pickupSnapshot struct {
	orderID      kernel.UUID
	boardID      string
	lockerNumber string
	lockerIndex  int
	paid         bool
	price        int64
}

func (h RequestPickupCommandHandler) load(ctx context.Context, command RequestPickupCommand) (pickupSnapshot, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return pickupSnapshot{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetByPickupCode(ctx, command.PickupCode())
	if err != nil {
		return pickupSnapshot{}, err
	}
	if err = o.EnsureAwaitingPickup(); err != nil {
		return pickupSnapshot{}, err
	}

	snapshot := pickupSnapshot{
		orderID:      o.ID(),
		boardID:      o.LockerRef().BoardID,
		lockerNumber: o.LockerRef().Number,
		lockerIndex:  o.LockerIndex(),
		paid:         o.IsPaid(),
	}
	if snapshot.paid {
		return snapshot, nil
	}

	container, err := uow.ContainerRepository().GetByBoardID(ctx, snapshot.boardID)
	if err != nil {
		return pickupSnapshot{}, err
	}
	snapshot.price = h.prices.Calculate(container)
	return snapshot, nil
}
