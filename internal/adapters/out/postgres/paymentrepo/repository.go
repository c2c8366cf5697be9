package paymentrepo

import (
	"context"
	"errors"
	"strings"

	"parcellocker/internal/adapters/out/postgres/pgerr"
	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormPaymentRepository implements ports.PaymentRepository using GORM.
type GormPaymentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormPaymentRepository(db *gorm.DB, tracker aggregateTracker) *GormPaymentRepository {
	return &GormPaymentRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new payment with version 1. The partial unique index on
// order_id turns a second open payment for the same order into a
// ConflictError.
func (r *GormPaymentRepository) Add(ctx context.Context, aggregate *payment.Payment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Version = 1
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgerr.IsUniqueViolation(err) {
			return errs.NewConflictError("payment", aggregate.OrderID().String(), "order already has an open payment")
		}
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes the payment if its stored version is still the one it was
// loaded with. Settling the same payment twice therefore succeeds only once.
func (r *GormPaymentRepository) Update(ctx context.Context, aggregate *payment.Payment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Version = aggregate.Version() + 1
	result := r.db.WithContext(ctx).
		Model(&PaymentDTO{}).
		Where("id = ? AND version = ?", dto.ID, aggregate.Version()).
		Updates(dto.mutableColumns())
	if result.Error != nil {
		if pgerr.IsUniqueViolation(result.Error) {
			return errs.NewConflictError("payment", aggregate.ID().String(), "order already has an open payment")
		}
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&PaymentDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("payment", aggregate.ID().String())
		}
		return errs.NewConflictError("payment", aggregate.ID().String(), "modified concurrently")
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormPaymentRepository) Get(ctx context.Context, id kernel.UUID) (*payment.Payment, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.take(ctx, "payment", id.String(), "id = ?", id.Bytes())
}

func (r *GormPaymentRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*payment.Payment, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, errs.NewValueIsRequiredError("invoiceId")
	}
	return r.take(ctx, "invoice", invoiceID, "invoice_id = ?", invoiceID)
}

func (r *GormPaymentRepository) GetActiveByOrder(ctx context.Context, orderID kernel.UUID) (*payment.Payment, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	return r.take(ctx, "payment for order", orderID.String(),
		"order_id = ? AND status <> ?", orderID.Bytes(), payment.Failed.String())
}

// ListPendingInvoiced returns up to limit UNPAID invoiced payments, oldest first.
func (r *GormPaymentRepository) ListPendingInvoiced(ctx context.Context, limit int) ([]*payment.Payment, error) {
	if limit <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}

	var dtos []PaymentDTO
	if err := r.db.WithContext(ctx).
		Where("status = ? AND invoice_id <> ''", payment.Unpaid.String()).
		Order("created_at ASC").
		Limit(limit).
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	payments := make([]*payment.Payment, 0, len(dtos))
	for _, dto := range dtos {
		p, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}

func (r *GormPaymentRepository) take(ctx context.Context, param string, id any, query string, args ...any) (*payment.Payment, error) {
	var dto PaymentDTO
	if err := r.db.WithContext(ctx).Where(query, args...).Take(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError(param, id)
		}
		return nil, err
	}
	return toDomain(dto)
}
