package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/core/ports"
	"parcellocker/internal/metrics"
	"parcellocker/internal/pkg/errs"
	"parcellocker/internal/pkg/guard"
)

var ErrReconcilePendingPaymentsCommandIsNotConstructed = errors.New(
	"ReconcilePendingPaymentsCommand must be created via NewReconcilePendingPaymentsCommand constructor",
)

const ExpiredInvoiceReason = "invoice expired"

// ReconcilePendingPaymentsCommand polls the gateway for invoiced payments the
// callback never reported, expires the ones left unpaid for too long, and
// completes paid orders whose pickup never ran.
type ReconcilePendingPaymentsCommand struct { //nolint:recvcheck //using for validation
	batchSize  int
	invoiceTTL time.Duration

	guard guard.ConstructorGuard
}

func NewReconcilePendingPaymentsCommand(batchSize int, invoiceTTL time.Duration) (ReconcilePendingPaymentsCommand, error) {
	if batchSize <= 0 {
		return ReconcilePendingPaymentsCommand{}, errs.NewValueIsOutOfRangeError("batchSize", batchSize, 1, "unbounded")
	}
	if invoiceTTL <= 0 {
		return ReconcilePendingPaymentsCommand{}, errs.NewValueIsInvalidError("invoiceTTL")
	}
	return ReconcilePendingPaymentsCommand{
		batchSize:  batchSize,
		invoiceTTL: invoiceTTL,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c ReconcilePendingPaymentsCommand) Validate() error {
	return c.guard.Validate(ErrReconcilePendingPaymentsCommandIsNotConstructed)
}

func (c ReconcilePendingPaymentsCommand) BatchSize() int {
	return c.batchSize
}

func (c ReconcilePendingPaymentsCommand) InvoiceTTL() time.Duration {
	return c.invoiceTTL
}

// ReconcileResult summarizes one pass.
type ReconcileResult struct {
	Checked   int
	Settled   int
	Expired   int
	Completed int
	Errors    int
}

// ReconcilePendingPaymentsCommandHandler runs one reconciliation pass. Errors
// on one payment are logged and counted; the pass carries on with the rest.
type ReconcilePendingPaymentsCommandHandler struct {
	uowFactory UoWFactory
	verifier   PaymentVerifier
	pickups    PickupCompleter
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

func NewReconcilePendingPaymentsCommandHandler(
	uowFactory UoWFactory,
	verifier PaymentVerifier,
	pickups PickupCompleter,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) ReconcilePendingPaymentsCommandHandler {
	return ReconcilePendingPaymentsCommandHandler{
		uowFactory: uowFactory,
		verifier:   verifier,
		pickups:    pickups,
		publisher:  publisher,
		logger:     logger.With("component", "payment-reconciler"),
	}
}

func (h ReconcilePendingPaymentsCommandHandler) Handle(
	ctx context.Context,
	command ReconcilePendingPaymentsCommand,
) (ReconcileResult, error) {
	if err := command.Validate(); err != nil {
		return ReconcileResult{}, err
	}

	pending, err := h.listPending(ctx, command.BatchSize())
	if err != nil {
		return ReconcileResult{}, err
	}

	var result ReconcileResult
	for _, p := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Checked++

		verify, vErr := NewVerifyPaymentCommand(p.ID(), p.OrderID())
		if vErr != nil {
			result.Errors++
			continue
		}

		verified, vErr := h.verifier.Handle(ctx, verify)
		if vErr != nil {
			result.Errors++
			h.logger.WarnContext(ctx, "pending payment check failed", "payment_id", p.ID().String(), "error", vErr)
			continue
		}
		if verified.IsPaid() {
			result.Settled++
			continue
		}

		if time.Since(p.CreatedAt()) < command.InvoiceTTL() {
			continue
		}
		if eErr := h.expire(ctx, p.ID()); eErr != nil {
			result.Errors++
			h.logger.WarnContext(ctx, "failed to expire payment", "payment_id", p.ID().String(), "error", eErr)
			continue
		}
		result.Expired++
	}

	if err = h.completePaid(ctx, command.BatchSize(), &result); err != nil {
		return result, err
	}
	return result, nil
}

// completePaid finishes orders that were settled but never picked up, which
// happens when the process stops between the settlement commit and its
// PaymentSettled handler.
func (h ReconcilePendingPaymentsCommandHandler) completePaid(ctx context.Context, limit int, result *ReconcileResult) error {
	paid, err := h.listPaidAwaitingPickup(ctx, limit)
	if err != nil {
		return err
	}

	for _, o := range paid {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		cmd, cErr := NewCompletePickupCommand(o.ID())
		if cErr != nil {
			result.Errors++
			continue
		}
		done, cErr := h.pickups.Handle(ctx, cmd)
		switch {
		case errors.Is(cErr, errs.ErrConflict):
			// completed concurrently by the settlement handler
			continue
		case cErr != nil:
			result.Errors++
			h.logger.WarnContext(ctx, "failed to complete paid pickup", "order_id", o.ID().String(), "error", cErr)
			continue
		case done.AlreadyCompleted:
			continue
		}
		result.Completed++
		h.logger.InfoContext(ctx, "completed paid pickup", "order_id", o.ID().String())
	}
	return nil
}

func (h ReconcilePendingPaymentsCommandHandler) listPaidAwaitingPickup(ctx context.Context, limit int) ([]*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()
	return uow.OrderRepository().ListPaidAwaitingPickup(ctx, limit)
}

func (h ReconcilePendingPaymentsCommandHandler) listPending(ctx context.Context, limit int) ([]*payment.Payment, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()
	return uow.PaymentRepository().ListPendingInvoiced(ctx, limit)
}

func (h ReconcilePendingPaymentsCommandHandler) expire(ctx context.Context, paymentID kernel.UUID) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	payments := uow.PaymentRepository()
	orders := uow.OrderRepository()

	p, err := payments.Get(ctx, paymentID)
	if err != nil {
		return err
	}
	if p.Status() != payment.Unpaid {
		return nil
	}
	if err = p.Fail(ExpiredInvoiceReason, time.Now()); err != nil {
		return err
	}
	if err = payments.Update(ctx, p); err != nil {
		return err
	}

	o, err := orders.Get(ctx, p.OrderID())
	if err != nil {
		return err
	}
	if o.PaymentStatus() == payment.Unpaid {
		if err = o.MarkPaymentFailed(); err != nil {
			return err
		}
		if err = orders.Update(ctx, o); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	metrics.PaymentsExpiredTotal.Inc()
	h.publisher.Publish(context.WithoutCancel(ctx), uow.CollectDomainEvents()...)
	return nil
}
