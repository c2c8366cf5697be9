package ports

import (
	"context"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/payment"
)

// PaymentRepository defines the persistence contract for payments.
type PaymentRepository interface {
	// Add persists a new payment. A second non-FAILED payment for the same
	// order is a ConflictError.
	Add(ctx context.Context, aggregate *payment.Payment) error

	// Update is version-guarded like OrderRepository.Update.
	Update(ctx context.Context, aggregate *payment.Payment) error

	Get(ctx context.Context, id kernel.UUID) (*payment.Payment, error)

	GetByInvoiceID(ctx context.Context, invoiceID string) (*payment.Payment, error)

	// GetActiveByOrder returns the non-FAILED payment of an order, or
	// ObjectNotFoundError when there is none.
	GetActiveByOrder(ctx context.Context, orderID kernel.UUID) (*payment.Payment, error)

	// ListPendingInvoiced returns UNPAID payments with an attached invoice,
	// oldest first.
	ListPendingInvoiced(ctx context.Context, limit int) ([]*payment.Payment, error)
}

// ProviderToken is a cached gateway credential.
type ProviderToken struct {
	Provider         string
	AccessToken      string
	RefreshToken     string
	ExpiresAt        time.Time
	RefreshExpiresAt time.Time
	Version          int
}

// IsUsable reports whether the access token is still valid at now, with a
// safety margin.
func (t ProviderToken) IsUsable(now time.Time, margin time.Duration) bool {
	return t.AccessToken != "" && now.Add(margin).Before(t.ExpiresAt)
}

// CanRefresh reports whether the refresh token is still valid at now.
func (t ProviderToken) CanRefresh(now time.Time) bool {
	return t.RefreshToken != "" && now.Before(t.RefreshExpiresAt)
}

// ProviderTokenRepository stores one token row per provider.
type ProviderTokenRepository interface {
	// Get returns ObjectNotFoundError when no token was ever stored.
	Get(ctx context.Context, provider string) (ProviderToken, error)

	// Save writes the token if the stored version still equals token.Version
	// (0 means "no row yet"). A lost race is a ConflictError.
	Save(ctx context.Context, token ProviderToken) error
}
