package paymentrepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"parcellocker/internal/core/ports"
	"parcellocker/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProviderTokenDTO caches the credentials of one gateway. Several replicas
// share the row, so writes are version guarded.
type ProviderTokenDTO struct {
	Provider         string    `gorm:"size:32;primaryKey"`
	AccessToken      string    `gorm:"type:text;not null"`
	RefreshToken     string    `gorm:"type:text"`
	ExpiresAt        time.Time `gorm:"not null"`
	RefreshExpiresAt time.Time
	Version          int       `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

func (ProviderTokenDTO) TableName() string {
	return "provider_tokens"
}

// GormProviderTokenRepository implements ports.ProviderTokenRepository.
type GormProviderTokenRepository struct {
	db *gorm.DB
}

func NewGormProviderTokenRepository(db *gorm.DB) *GormProviderTokenRepository {
	return &GormProviderTokenRepository{db: db}
}

func (r *GormProviderTokenRepository) Get(ctx context.Context, provider string) (ports.ProviderToken, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return ports.ProviderToken{}, errs.NewValueIsRequiredError("provider")
	}

	var dto ProviderTokenDTO
	if err := r.db.WithContext(ctx).Take(&dto, "provider = ?", provider).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ProviderToken{}, errs.NewObjectNotFoundError("provider token", provider)
		}
		return ports.ProviderToken{}, err
	}

	return ports.ProviderToken{
		Provider:         dto.Provider,
		AccessToken:      dto.AccessToken,
		RefreshToken:     dto.RefreshToken,
		ExpiresAt:        dto.ExpiresAt,
		RefreshExpiresAt: dto.RefreshExpiresAt,
		Version:          dto.Version,
	}, nil
}

// Save inserts the first token of a provider (Version 0) or replaces the
// stored one if its version still equals token.Version.
func (r *GormProviderTokenRepository) Save(ctx context.Context, token ports.ProviderToken) error {
	if strings.TrimSpace(token.Provider) == "" {
		return errs.NewValueIsRequiredError("provider")
	}
	if token.AccessToken == "" {
		return errs.NewValueIsRequiredError("accessToken")
	}

	now := time.Now().UTC()
	if token.Version == 0 {
		dto := ProviderTokenDTO{
			Provider:         token.Provider,
			AccessToken:      token.AccessToken,
			RefreshToken:     token.RefreshToken,
			ExpiresAt:        token.ExpiresAt,
			RefreshExpiresAt: token.RefreshExpiresAt,
			Version:          1,
			UpdatedAt:        now,
		}
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&dto)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.NewConflictError("provider token", token.Provider, "stored concurrently")
		}
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&ProviderTokenDTO{}).
		Where("provider = ? AND version = ?", token.Provider, token.Version).
		Updates(map[string]any{
			"access_token":       token.AccessToken,
			"refresh_token":      token.RefreshToken,
			"expires_at":         token.ExpiresAt,
			"refresh_expires_at": token.RefreshExpiresAt,
			"version":            token.Version + 1,
			"updated_at":         now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewConflictError("provider token", token.Provider, "modified concurrently")
	}
	return nil
}
