// Package orderrepo provides data transfer objects and mapping functions for
// delivery order persistence, and the registry of issued pickup codes.
package orderrepo

import (
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/domain/model/payment"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting delivery orders.
// Statuses are stored by name. The partial unique index allowing one active
// order per locker is created by the schema migration.
type OrderDTO struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	PickupCode     string    `gorm:"size:8;not null;uniqueIndex"`
	BoardID        string    `gorm:"size:64;not null;index:idx_orders_board_status,priority:1"`
	LockerNumber   string    `gorm:"size:16;not null"`
	LockerIndex    int       `gorm:"not null"`
	RecipientPhone string    `gorm:"size:20;not null"`
	Status         string    `gorm:"size:16;not null;index:idx_orders_board_status,priority:2"`
	PaymentStatus  string    `gorm:"size:16;not null"`
	CancelReason   string    `gorm:"size:255"`
	Version        int       `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	DeliveredAt    *time.Time
	PickedUpAt     *time.Time
	CancelledAt    *time.Time
}

// TableName keeps delivery orders apart from any payment side order tables.
func (OrderDTO) TableName() string {
	return "delivery_orders"
}

// PickupCodeDTO is one issued pickup code. Rows are never deleted, so a code
// is never handed out twice.
type PickupCodeDTO struct {
	Code      string    `gorm:"size:8;primaryKey"`
	ClaimedAt time.Time `gorm:"not null"`
}

func (PickupCodeDTO) TableName() string {
	return "pickup_codes"
}

func fromDomain(o *order.Order) OrderDTO {
	return OrderDTO{
		ID:             o.ID().Bytes(),
		PickupCode:     o.PickupCode().String(),
		BoardID:        o.LockerRef().BoardID,
		LockerNumber:   o.LockerRef().Number,
		LockerIndex:    o.LockerIndex(),
		RecipientPhone: o.Recipient().String(),
		Status:         o.Status().String(),
		PaymentStatus:  o.PaymentStatus().String(),
		CancelReason:   o.CancelReason(),
		Version:        o.Version(),
		CreatedAt:      o.CreatedAt(),
		DeliveredAt:    o.DeliveredAt(),
		PickedUpAt:     o.PickedUpAt(),
		CancelledAt:    o.CancelledAt(),
	}
}

// mutableColumns lists what Update may rewrite. Identity, code, locker and
// creation time are fixed at Add.
func (dto OrderDTO) mutableColumns() map[string]any {
	return map[string]any{
		"status":         dto.Status,
		"payment_status": dto.PaymentStatus,
		"cancel_reason":  dto.CancelReason,
		"delivered_at":   dto.DeliveredAt,
		"picked_up_at":   dto.PickedUpAt,
		"cancelled_at":   dto.CancelledAt,
		"version":        dto.Version,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	code, err := order.NewPickupCode(dto.PickupCode)
	if err != nil {
		return nil, err
	}
	ref, err := locker.NewRef(dto.BoardID, dto.LockerNumber)
	if err != nil {
		return nil, err
	}
	phone, err := kernel.NewPhoneNumber(dto.RecipientPhone)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	paymentStatus, err := payment.ParseStatus(dto.PaymentStatus)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.RestoreOrderParams{
		ID:            id,
		PickupCode:    code,
		LockerRef:     ref,
		LockerIndex:   dto.LockerIndex,
		Recipient:     phone,
		Status:        status,
		PaymentStatus: paymentStatus,
		CancelReason:  dto.CancelReason,
		Version:       dto.Version,
		CreatedAt:     dto.CreatedAt,
		DeliveredAt:   dto.DeliveredAt,
		PickedUpAt:    dto.PickedUpAt,
		CancelledAt:   dto.CancelledAt,
	})
}
