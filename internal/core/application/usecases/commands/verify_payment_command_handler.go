package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/core/ports"
	"parcellocker/internal/metrics"
	"parcellocker/internal/pkg/errs"
)

// VerifyPaymentResult is identical for every caller that observes a settled
// payment, whether it performed the settlement or not.
type VerifyPaymentResult struct {
	PaymentID kernel.UUID
	OrderID   kernel.UUID
	Status    payment.Status
	PaidAt    *time.Time
}

func (r VerifyPaymentResult) IsPaid() bool {
	return r.Status == payment.Paid
}

// VerifyPaymentCommandHandler settles payments exactly once.
//
// Business rules:
//   - PAID: success, no side effects
//   - FAILED: ConflictError
//   - Gateway error or timeout: ExternalServiceError, nothing is mutated
//   - Gateway reports nothing paid: UNPAID result, nothing is mutated
//   - Gateway reports paid: the payment moves UNPAID -> PAID and the order is
//     marked paid in one transaction guarded by optimistic versions. Only the
//     caller whose update wins publishes payment.Settled; concurrent callers
//     reload and return the same success result.
type VerifyPaymentCommandHandler struct {
	uowFactory UoWFactory
	gateway    ports.PaymentGateway
	publisher  ports.EventPublisher
	timeout    time.Duration
	logger     *slog.Logger
}

func NewVerifyPaymentCommandHandler(
	uowFactory UoWFactory,
	gateway ports.PaymentGateway,
	publisher ports.EventPublisher,
	timeout time.Duration,
	logger *slog.Logger,
) VerifyPaymentCommandHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return VerifyPaymentCommandHandler{
		uowFactory: uowFactory,
		gateway:    gateway,
		publisher:  publisher,
		timeout:    timeout,
		logger:     logger.With("component", "verify-payment"),
	}
}

func (h VerifyPaymentCommandHandler) Handle(ctx context.Context, command VerifyPaymentCommand) (VerifyPaymentResult, error) {
	if err := command.Validate(); err != nil {
		return VerifyPaymentResult{}, err
	}

	p, err := h.load(ctx, command)
	if err != nil {
		return VerifyPaymentResult{}, err
	}

	switch p.Status() {
	case payment.Paid:
		metrics.DuplicateSettlementsTotal.Inc()
		return verifyResult(p), nil
	case payment.Failed:
		return VerifyPaymentResult{}, errs.NewConflictError("payment", p.ID(), "payment has failed")
	}
	if !p.HasInvoice() {
		return VerifyPaymentResult{}, errs.NewConflictError("payment", p.ID(), "no invoice attached")
	}

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	started := time.Now()
	check, err := h.gateway.CheckPayment(callCtx, p.InvoiceID())
	metrics.GatewayRequestDuration.WithLabelValues("check_payment").Observe(time.Since(started).Seconds())
	if err != nil {
		h.logger.WarnContext(ctx, "payment check failed", "payment_id", p.ID().String(), "error", err)
		return VerifyPaymentResult{}, asExternal(err)
	}
	if !check.IsSettled() {
		return verifyResult(p), nil
	}

	settled, err := h.settle(ctx, command)
	if errors.Is(err, errs.ErrConflict) {
		return h.afterLostRace(ctx, command, err)
	}
	return settled, err
}

func (h VerifyPaymentCommandHandler) load(ctx context.Context, command VerifyPaymentCommand) (*payment.Payment, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	p, err := uow.PaymentRepository().Get(ctx, command.PaymentID())
	if err != nil {
		return nil, err
	}
	if !p.OrderID().IsEqual(command.OrderID()) {
		return nil, errs.NewObjectNotFoundError("payment", command.PaymentID())
	}
	return p, nil
}

func (h VerifyPaymentCommandHandler) settle(ctx context.Context, command VerifyPaymentCommand) (VerifyPaymentResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return VerifyPaymentResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	payments := uow.PaymentRepository()
	orders := uow.OrderRepository()

	p, err := payments.Get(ctx, command.PaymentID())
	if err != nil {
		return VerifyPaymentResult{}, err
	}
	if p.Status() == payment.Paid {
		metrics.DuplicateSettlementsTotal.Inc()
		return verifyResult(p), nil
	}
	if err = p.Settle(time.Now()); err != nil {
		return VerifyPaymentResult{}, err
	}
	if err = payments.Update(ctx, p); err != nil {
		return VerifyPaymentResult{}, err
	}

	o, err := orders.Get(ctx, command.OrderID())
	if err != nil {
		return VerifyPaymentResult{}, err
	}
	if err = o.MarkPaid(); err != nil {
		return VerifyPaymentResult{}, err
	}
	if err = orders.Update(ctx, o); err != nil {
		return VerifyPaymentResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return VerifyPaymentResult{}, err
	}

	metrics.PaymentsSettledTotal.Inc()
	h.logger.InfoContext(ctx, "payment settled",
		"payment_id", p.ID().String(),
		"order_id", o.ID().String(),
		"amount", p.Amount(),
	)
	h.publisher.Publish(context.WithoutCancel(ctx), uow.CollectDomainEvents()...)
	return verifyResult(p), nil
}

// afterLostRace reloads a payment whose settlement update lost to another
// writer. If that writer settled it, the caller gets the same success.
func (h VerifyPaymentCommandHandler) afterLostRace(
	ctx context.Context,
	command VerifyPaymentCommand,
	cause error,
) (VerifyPaymentResult, error) {
	p, err := h.load(ctx, command)
	if err != nil {
		return VerifyPaymentResult{}, err
	}
	if p.Status() == payment.Paid {
		metrics.DuplicateSettlementsTotal.Inc()
		return verifyResult(p), nil
	}
	return VerifyPaymentResult{}, cause
}

func verifyResult(p *payment.Payment) VerifyPaymentResult {
	return VerifyPaymentResult{
		PaymentID: p.ID(),
		OrderID:   p.OrderID(),
		Status:    p.Status(),
		PaidAt:    p.PaidAt(),
	}
}
