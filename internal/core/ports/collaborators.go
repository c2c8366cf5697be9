package ports

import (
	"context"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/payment"
)

// InvoiceRequest is what the core asks the payment gateway to bill.
type InvoiceRequest struct {
	SenderInvoiceNo string
	ReceiverCode    string
	Description     string
	Amount          int64
	CallbackURL     string
}

// PaymentCheck is the gateway's answer for one invoice.
type PaymentCheck struct {
	Count      int
	PaidAmount int64
}

// IsSettled reports whether at least one payment row exists for the invoice.
func (c PaymentCheck) IsSettled() bool {
	return c.Count > 0
}

// PaymentGateway issues invoices and reports their settlement state. Every
// failure, timeouts included, is an ExternalServiceError.
type PaymentGateway interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (payment.Invoice, error)
	CheckPayment(ctx context.Context, invoiceID string) (PaymentCheck, error)
}

// Notifier delivers text messages to recipients.
type Notifier interface {
	// Notify schedules a message and returns immediately. Delivery failures
	// are logged, never reported to the caller.
	Notify(ctx context.Context, to kernel.PhoneNumber, text string)

	// Send delivers synchronously and reports RateLimitedError or
	// ExternalServiceError.
	Send(ctx context.Context, to kernel.PhoneNumber, text string) error
}

// SMSResult is the transport's receipt for one message.
type SMSResult struct {
	ProviderID string
	Status     string
}

// SMSTransport talks to the SMS provider.
type SMSTransport interface {
	Send(ctx context.Context, to kernel.PhoneNumber, text string) (SMSResult, error)
}

// Audit statuses recorded by the dispatcher itself. Successful sends carry
// the provider's status instead.
const (
	SMSStatusFailed      = "failed"
	SMSStatusRateLimited = "rate_limited"
)

// SMSLogEntry is one audited send attempt.
type SMSLogEntry struct {
	ID         kernel.UUID
	Phone      string
	Text       string
	Status     string
	ProviderID string
	Error      string
	CreatedAt  time.Time
}

// SMSLogRepository appends audit entries.
type SMSLogRepository interface {
	Record(ctx context.Context, entry SMSLogEntry) error
}

// RateLimiter counts hits per key in a fixed window.
type RateLimiter interface {
	// Allow registers a hit and reports whether it is within limit, together
	// with the hit count of the current window.
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// UnlockCommand tells a locker controller to open one door.
type UnlockCommand struct {
	OrderID      kernel.UUID
	BoardID      string
	LockerNumber string
	LockerIndex  int
}

// UnlockPublisher delivers unlock commands to the controller of a board.
type UnlockPublisher interface {
	PublishUnlock(ctx context.Context, cmd UnlockCommand) error
}

// EventPublisher fans committed domain events out to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...kernel.DomainEvent)
}

// EventStream forwards domain events to an external log.
type EventStream interface {
	Append(ctx context.Context, event kernel.DomainEvent) error
}
