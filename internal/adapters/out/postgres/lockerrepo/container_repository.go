package lockerrepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"parcellocker/internal/adapters/out/postgres/pgerr"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormContainerRepository implements ports.ContainerRepository using GORM.
type GormContainerRepository struct {
	db *gorm.DB
}

func NewGormContainerRepository(db *gorm.DB) *GormContainerRepository {
	return &GormContainerRepository{db: db}
}

// Add inserts a container. A second container with the same board id is a
// ConflictError.
func (r *GormContainerRepository) Add(ctx context.Context, c *locker.Container) error {
	if err := c.Validate(); err != nil {
		return err
	}

	dto := containerFromDomain(c)
	dto.CreatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgerr.IsUniqueViolation(err) {
			return errs.NewConflictError("container", c.BoardID(), "board already registered")
		}
		return err
	}
	return nil
}

func (r *GormContainerRepository) GetByBoardID(ctx context.Context, boardID string) (*locker.Container, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return nil, errs.NewValueIsRequiredError("boardId")
	}

	var dto ContainerDTO
	if err := r.db.WithContext(ctx).Take(&dto, "board_id = ?", boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("container", boardID)
		}
		return nil, err
	}

	return containerToDomain(dto)
}
