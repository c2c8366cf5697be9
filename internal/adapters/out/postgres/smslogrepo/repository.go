// Package smslogrepo keeps the audit trail of outgoing text messages.
package smslogrepo

import (
	"context"
	"time"

	"parcellocker/internal/core/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SMSMessageDTO is one send attempt, successful or not.
type SMSMessageDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Phone      string    `gorm:"size:20;not null;index"`
	Text       string    `gorm:"type:text;not null"`
	Status     string    `gorm:"size:16;not null"`
	ProviderID string    `gorm:"size:64"`
	Error      string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (SMSMessageDTO) TableName() string {
	return "sms_messages"
}

// GormSMSLogRepository implements ports.SMSLogRepository.
type GormSMSLogRepository struct {
	db *gorm.DB
}

func NewGormSMSLogRepository(db *gorm.DB) *GormSMSLogRepository {
	return &GormSMSLogRepository{db: db}
}

func (r *GormSMSLogRepository) Record(ctx context.Context, entry ports.SMSLogEntry) error {
	if err := entry.ID.Validate(); err != nil {
		return err
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	dto := SMSMessageDTO{
		ID:         entry.ID.Bytes(),
		Phone:      entry.Phone,
		Text:       entry.Text,
		Status:     entry.Status,
		ProviderID: entry.ProviderID,
		Error:      entry.Error,
		CreatedAt:  createdAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}

// CountSince returns how many send attempts were recorded for phone after
// since. Attempts refused by the rate limiter are not counted.
func (r *GormSMSLogRepository) CountSince(ctx context.Context, phone string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&SMSMessageDTO{}).
		Where("phone = ? AND created_at >= ? AND status <> ?", phone, since.UTC(), ports.SMSStatusRateLimited).
		Count(&count).Error
	return count, err
}
