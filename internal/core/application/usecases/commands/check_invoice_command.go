package commands

import (
	"context"
	"errors"
	"strings"

	"parcellocker/internal/pkg/errs"
	"parcellocker/internal/pkg/guard"
)

var ErrCheckInvoiceCommandIsNotConstructed = errors.New(
	"CheckInvoiceCommand must be created via NewCheckInvoiceCommand constructor",
)

// CheckInvoiceCommand verifies a payment known only by the gateway's invoice id.
type CheckInvoiceCommand struct { //nolint:recvcheck //using for validation
	invoiceID string

	guard guard.ConstructorGuard
}

func NewCheckInvoiceCommand(invoiceID string) (CheckInvoiceCommand, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return CheckInvoiceCommand{}, errs.NewValueIsRequiredError("invoiceId")
	}
	return CheckInvoiceCommand{invoiceID: invoiceID, guard: guard.NewConstructorGuard()}, nil
}

func (c CheckInvoiceCommand) Validate() error {
	return c.guard.Validate(ErrCheckInvoiceCommandIsNotConstructed)
}

func (c CheckInvoiceCommand) InvoiceID() string {
	return c.invoiceID
}

// PaymentVerifier runs the settlement check of one payment.
type PaymentVerifier interface {
	Handle(ctx context.Context, command VerifyPaymentCommand) (VerifyPaymentResult, error)
}

// CheckInvoiceCommandHandler resolves the invoice to its payment and verifies it.
type CheckInvoiceCommandHandler struct {
	uowFactory UoWFactory
	verifier   PaymentVerifier
}

func NewCheckInvoiceCommandHandler(uowFactory UoWFactory, verifier PaymentVerifier) CheckInvoiceCommandHandler {
	return CheckInvoiceCommandHandler{uowFactory: uowFactory, verifier: verifier}
}

func (h CheckInvoiceCommandHandler) Handle(ctx context.Context, command CheckInvoiceCommand) (VerifyPaymentResult, error) {
	if err := command.Validate(); err != nil {
		return VerifyPaymentResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return VerifyPaymentResult{}, err
	}
	p, err := uow.PaymentRepository().GetByInvoiceID(ctx, command.InvoiceID())
	_ = uow.Rollback(ctx)
	if err != nil {
		return VerifyPaymentResult{}, err
	}

	verify, err := NewVerifyPaymentCommand(p.ID(), p.OrderID())
	if err != nil {
		return VerifyPaymentResult{}, err
	}
	return h.verifier.Handle(ctx, verify)
}
