package payment

import (
	"errors"
	"fmt"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/pkg/errs"
)

var ErrPaymentIsNotConstructed = errors.New("Payment must be created via NewPayment constructor")

// MaxAmount caps a single invoice, in MNT.
const MaxAmount int64 = 10_000_000

// Payment is a settlement request for a delivery order.
//
// Invariants:
//   - At most one non-Failed payment exists per order (enforced by storage)
//   - Status only moves forward, see Status
//   - The external invoice id is attached once and never replaced
//   - version is the optimistic concurrency token read from storage; every
//     persisted transition is conditional on it
type Payment struct {
	kernel.EventRecorder

	id        kernel.UUID
	orderID   kernel.UUID
	amount    int64
	status    Status
	invoice   Invoice
	version   int
	createdAt time.Time
	paidAt    *time.Time
	failedAt  *time.Time

	isConstructed bool
}

// NewPayment creates an Unpaid payment without an invoice.
func NewPayment(id, orderID kernel.UUID, amount int64, now time.Time) (*Payment, error) {
	p := &Payment{
		status:        Unpaid,
		createdAt:     storedTime(now),
		isConstructed: true,
	}

	if err := errors.Join(
		p.setID(id),
		p.setOrderID(orderID),
		p.setAmount(amount),
	); err != nil {
		return nil, err
	}
	return p, nil
}

// RestorePayment rebuilds a payment from storage without raising events.
func RestorePayment(
	id, orderID kernel.UUID,
	amount int64,
	status Status,
	invoice Invoice,
	version int,
	createdAt time.Time,
	paidAt, failedAt *time.Time,
) (*Payment, error) {
	p := &Payment{
		invoice:       invoice,
		version:       version,
		createdAt:     storedTime(createdAt),
		paidAt:        storedTimePtr(paidAt),
		failedAt:      storedTimePtr(failedAt),
		isConstructed: true,
	}

	if err := errors.Join(
		p.setID(id),
		p.setOrderID(orderID),
		p.setAmount(amount),
		p.setStatus(status),
	); err != nil {
		return nil, err
	}

	if status == Paid && paidAt == nil {
		return nil, errs.NewValueIsRequiredErrorWithCause("paidAt", fmt.Errorf("payment %s is PAID", id))
	}
	return p, nil
}

func (p *Payment) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrPaymentIsNotConstructed
	}
	return nil
}

func (p *Payment) ID() kernel.UUID { return p.id }
func (p *Payment) OrderID() kernel.UUID { return p.orderID }
func (p *Payment) Amount() int64 { return p.amount }
func (p *Payment) Status() Status { return p.status }
func (p *Payment) InvoiceID() string { return p.invoice.ID }
func (p *Payment) Invoice() Invoice { return p.invoice }
func (p *Payment) HasInvoice() bool { return p.invoice.ID != "" }
func (p *Payment) Version() int { return p.version }
func (p *Payment) CreatedAt() time.Time { return p.createdAt }
func (p *Payment) PaidAt() *time.Time { return p.paidAt }
func (p *Payment) FailedAt() *time.Time { return p.failedAt }

// AttachInvoice records the gateway's invoice. Attaching the same id again
// is a no-op; a different id or a terminal payment is a conflict.
func (p *Payment) AttachInvoice(invoice Invoice) error {
	if invoice.ID == "" {
		return errs.NewValueIsRequiredError("invoiceId")
	}
	if p.invoice.ID == invoice.ID {
		return nil
	}
	if p.invoice.ID != "" {
		return errs.NewConflictError("payment", p.id, "invoice already attached")
	}
	if p.status != Unpaid {
		return errs.NewConflictError("payment", p.id, fmt.Sprintf("cannot invoice a %s payment", p.status))
	}
	p.invoice = invoice
	return nil
}

// Settle transitions Unpaid -> Paid and raises Settled.
func (p *Payment) Settle(now time.Time) error {
	next, err := p.status.Settle()
	if err != nil {
		return errs.NewConflictError("payment", p.id, err.Error())
	}
	paidAt := storedTime(now)
	p.status = next
	p.paidAt = &paidAt
	p.Raise(Settled{
		PaymentID: p.id,
		OrderID:   p.orderID,
		InvoiceID: p.invoice.ID,
		Amount:    p.amount,
		PaidAt:    paidAt,
	})
	return nil
}

// Fail transitions Unpaid -> Failed and raises PaymentFailed.
func (p *Payment) Fail(reason string, now time.Time) error {
	next, err := p.status.Fail()
	if err != nil {
		return errs.NewConflictError("payment", p.id, err.Error())
	}
	failedAt := storedTime(now)
	p.status = next
	p.failedAt = &failedAt
	p.Raise(PaymentFailed{
		PaymentID: p.id,
		OrderID:   p.orderID,
		Reason:    reason,
		FailedAt:  failedAt,
	})
	return nil
}

// storedTime drops what a timestamptz column cannot hold, so a payment read
// back from storage reports the same instants as the one that was written.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func storedTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := storedTime(*t)
	return &v
}

func (p *Payment) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	p.id = id
	return nil
}

func (p *Payment) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	p.orderID = orderID
	return nil
}

func (p *Payment) setAmount(amount int64) error {
	if amount <= 0 || amount > MaxAmount {
		return errs.NewValueIsOutOfRangeError("amount", amount, 1, MaxAmount)
	}
	p.amount = amount
	return nil
}

func (p *Payment) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	p.status = status
	return nil
}
