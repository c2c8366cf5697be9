package lockerrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parcellocker/internal/adapters/out/postgres/pgerr"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormLockerRepository implements ports.LockerRepository using GORM.
type GormLockerRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormLockerRepository(db *gorm.DB) *GormLockerRepository {
	return &GormLockerRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Add inserts a locker. A duplicate number on the same board is a ConflictError.
func (r *GormLockerRepository) Add(ctx context.Context, l *locker.Locker) error {
	if err := l.Validate(); err != nil {
		return err
	}

	dto := lockerFromDomain(l)
	dto.UpdatedAt = r.now()
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgerr.IsUniqueViolation(err) {
			return errs.NewConflictError("locker", l.Ref().String(), "locker already registered")
		}
		return err
	}
	return nil
}

func (r *GormLockerRepository) Get(ctx context.Context, ref locker.Ref) (*locker.Locker, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	dto, err := r.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	return lockerToDomain(dto)
}

// ListByBoard returns the lockers of a board ordered by door index. An unknown
// board yields an empty slice.
func (r *GormLockerRepository) ListByBoard(ctx context.Context, boardID string) ([]*locker.Locker, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return nil, errs.NewValueIsRequiredError("boardId")
	}

	var dtos []LockerDTO
	if err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("locker_index ASC").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	lockers := make([]*locker.Locker, 0, len(dtos))
	for _, dto := range dtos {
		l, err := lockerToDomain(dto)
		if err != nil {
			return nil, err
		}
		lockers = append(lockers, l)
	}
	return lockers, nil
}

func (r *GormLockerRepository) Reserve(ctx context.Context, ref locker.Ref) error {
	return r.transition(ctx, ref, locker.Pending, locker.Available)
}

func (r *GormLockerRepository) Occupy(ctx context.Context, ref locker.Ref) error {
	return r.transition(ctx, ref, locker.Occupied, locker.Pending)
}

// Release frees a PENDING or OCCUPIED locker. Any other status is left as is.
func (r *GormLockerRepository) Release(ctx context.Context, ref locker.Ref) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&LockerDTO{}).
		Where("board_id = ? AND number = ? AND status IN ?", ref.BoardID, ref.Number,
			[]string{locker.Pending.String(), locker.Occupied.String()}).
		Updates(map[string]any{
			"status":     locker.Available.String(),
			"updated_at": r.now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		_, err := r.find(ctx, ref)
		return err
	}
	return nil
}

// transition moves a locker to next only if it currently is in from.
func (r *GormLockerRepository) transition(ctx context.Context, ref locker.Ref, next, from locker.Status) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&LockerDTO{}).
		Where("board_id = ? AND number = ? AND status = ?", ref.BoardID, ref.Number, from.String()).
		Updates(map[string]any{
			"status":     next.String(),
			"updated_at": r.now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	current, err := r.find(ctx, ref)
	if err != nil {
		return err
	}
	return errs.NewConflictError("locker", ref.String(),
		fmt.Sprintf("status is %s, expected %s", current.Status, from))
}

func (r *GormLockerRepository) find(ctx context.Context, ref locker.Ref) (LockerDTO, error) {
	var dto LockerDTO
	err := r.db.WithContext(ctx).Take(&dto, "board_id = ? AND number = ?", ref.BoardID, ref.Number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LockerDTO{}, errs.NewObjectNotFoundError("locker", ref.String())
	}
	return dto, err
}
