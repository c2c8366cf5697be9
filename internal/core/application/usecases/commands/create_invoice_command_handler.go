package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/core/ports"
	"parcellocker/internal/metrics"
	"parcellocker/internal/pkg/errs"
)

// InvoiceSettings configures how invoices are requested.
type InvoiceSettings struct {
	// CallbackBaseURL is the public base URL the gateway calls back on.
	CallbackBaseURL string
	ReceiverCode    string
	Timeout         time.Duration
}

// CreateInvoiceResult carries the payment instructions for the recipient.
type CreateInvoiceResult struct {
	PaymentID kernel.UUID
	OrderID   kernel.UUID
	Amount    int64
	Invoice   payment.Invoice
	Reused    bool
}

// CreateInvoiceCommandHandler issues a gateway invoice for a WAITING order.
//
// An order has at most one non-FAILED payment. An open UNPAID payment is
// reused, and when it already carries an invoice the stored instructions are
// returned without calling the gateway again. The payment row is committed
// before the gateway call so the callback URL can name it, and a gateway
// failure leaves it UNPAID for the next attempt.
type CreateInvoiceCommandHandler struct {
	uowFactory UoWFactory
	gateway    ports.PaymentGateway
	settings   InvoiceSettings
	logger     *slog.Logger
}

func NewCreateInvoiceCommandHandler(
	uowFactory UoWFactory,
	gateway ports.PaymentGateway,
	settings InvoiceSettings,
	logger *slog.Logger,
) CreateInvoiceCommandHandler {
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	return CreateInvoiceCommandHandler{
		uowFactory: uowFactory,
		gateway:    gateway,
		settings:   settings,
		logger:     logger.With("component", "create-invoice"),
	}
}

func (h CreateInvoiceCommandHandler) Handle(ctx context.Context, command CreateInvoiceCommand) (CreateInvoiceResult, error) {
	if err := command.Validate(); err != nil {
		return CreateInvoiceResult{}, err
	}

	p, o, err := h.prepare(ctx, command)
	if err != nil {
		return CreateInvoiceResult{}, err
	}
	if p.HasInvoice() {
		return invoiceResult(p, true), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, h.settings.Timeout)
	defer cancel()

	started := time.Now()
	invoice, err := h.gateway.CreateInvoice(callCtx, ports.InvoiceRequest{
		SenderInvoiceNo: p.ID().String(),
		ReceiverCode:    h.settings.ReceiverCode,
		Description:     fmt.Sprintf("Smart Locker %s, code %s", o.LockerRef(), o.PickupCode()),
		Amount:          p.Amount(),
		CallbackURL:     h.callbackURL(p),
	})
	metrics.GatewayRequestDuration.WithLabelValues("create_invoice").Observe(time.Since(started).Seconds())
	if err != nil {
		h.logger.WarnContext(ctx, "invoice request failed", "payment_id", p.ID().String(), "error", err)
		return CreateInvoiceResult{}, asExternal(err)
	}

	attached, err := h.attach(ctx, p.ID(), invoice)
	if err != nil {
		return CreateInvoiceResult{}, err
	}

	metrics.InvoicesCreatedTotal.Inc()
	return invoiceResult(attached, false), nil
}

func (h CreateInvoiceCommandHandler) prepare(
	ctx context.Context,
	command CreateInvoiceCommand,
) (*payment.Payment, *order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders := uow.OrderRepository()
	payments := uow.PaymentRepository()

	o, err := orders.Get(ctx, command.OrderID())
	if err != nil {
		return nil, nil, err
	}
	if err = o.EnsureAwaitingPickup(); err != nil {
		return nil, nil, err
	}
	if o.IsPaid() {
		return nil, nil, errs.NewConflictError("order", o.PickupCode().String(), "already paid")
	}

	p, err := payments.GetActiveByOrder(ctx, o.ID())
	switch {
	case err == nil:
		if p.Status() != payment.Unpaid {
			return nil, nil, errs.NewConflictError("payment", p.ID(), fmt.Sprintf("status is %s", p.Status()))
		}
		return p, o, nil
	case !errors.Is(err, errs.ErrObjectNotFound):
		return nil, nil, err
	}

	if o.PaymentStatus() == payment.Failed {
		if err = o.ReopenPayment(); err != nil {
			return nil, nil, err
		}
		if err = orders.Update(ctx, o); err != nil {
			return nil, nil, err
		}
	}

	p, err = payment.NewPayment(kernel.NewUUID(), o.ID(), command.Amount(), time.Now())
	if err != nil {
		return nil, nil, err
	}
	if err = payments.Add(ctx, p); err != nil {
		return nil, nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return p, o, nil
}

func (h CreateInvoiceCommandHandler) attach(
	ctx context.Context,
	paymentID kernel.UUID,
	invoice payment.Invoice,
) (*payment.Payment, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	payments := uow.PaymentRepository()
	p, err := payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	// A concurrent request may have attached its own invoice first.
	if p.HasInvoice() && p.InvoiceID() != invoice.ID {
		h.logger.WarnContext(ctx, "discarding duplicate invoice",
			"payment_id", paymentID.String(),
			"kept", p.InvoiceID(),
			"discarded", invoice.ID,
		)
		return p, nil
	}

	if err = p.AttachInvoice(invoice); err != nil {
		return nil, err
	}
	if err = payments.Update(ctx, p); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (h CreateInvoiceCommandHandler) callbackURL(p *payment.Payment) string {
	base := strings.TrimRight(h.settings.CallbackBaseURL, "/")
	return fmt.Sprintf("%s/api/v1/payments/verify/%s/%s", base, p.ID(), p.OrderID())
}

func invoiceResult(p *payment.Payment, reused bool) CreateInvoiceResult {
	return CreateInvoiceResult{
		PaymentID: p.ID(),
		OrderID:   p.OrderID(),
		Amount:    p.Amount(),
		Invoice:   p.Invoice(),
		Reused:    reused,
	}
}

// asExternal classifies a collaborator failure for callers.
func asExternal(err error) error {
	if errors.Is(err, errs.ErrExternalService) {
		return err
	}
	return errs.NewExternalServiceError("payment gateway", err)
}
