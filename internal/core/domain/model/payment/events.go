package payment

import (
	"time"

	"parcellocker/internal/core/domain/model/kernel"
)

const (
	SettledEventName = "payment.settled"
	FailedEventName  = "payment.failed"
)

// Settled is raised exactly once per payment, by the transaction that won the
// Unpaid -> Paid update.
type Settled struct {
	PaymentID kernel.UUID
	OrderID   kernel.UUID
	InvoiceID string
	Amount    int64
	PaidAt    time.Time
}

func (Settled) EventName() string { return SettledEventName }

// PaymentFailed is raised when an unpaid invoice is abandoned.
type PaymentFailed struct {
	PaymentID kernel.UUID
	OrderID   kernel.UUID
	Reason    string
	FailedAt  time.Time
}

func (PaymentFailed) EventName() string { return FailedEventName }
