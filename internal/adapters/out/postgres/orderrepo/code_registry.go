package orderrepo

import (
	"context"
	"time"

	"parcellocker/internal/core/domain/model/order"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPickupCodeRegistry implements ports.PickupCodeRegistry on the
// pickup_codes table.
type GormPickupCodeRegistry struct {
	db *gorm.DB
}

func NewGormPickupCodeRegistry(db *gorm.DB) *GormPickupCodeRegistry {
	return &GormPickupCodeRegistry{db: db}
}

// Claim inserts the code unless it exists. Exactly one of several concurrent
// claims of the same code gets true.
func (r *GormPickupCodeRegistry) Claim(ctx context.Context, code order.PickupCode) (bool, error) {
	if err := code.Validate(); err != nil {
		return false, err
	}

	dto := PickupCodeDTO{Code: code.String(), ClaimedAt: time.Now().UTC()}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dto)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
