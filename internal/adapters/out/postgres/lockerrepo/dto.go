// Package lockerrepo persists containers and their lockers.
//
// Locker status changes are issued as single conditional UPDATE statements so
// the database, not the caller, decides which of two racing requests wins a
// compartment.
package lockerrepo

import (
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/locker"

	"github.com/google/uuid"
)

// ContainerDTO is one cabinet row, addressed by the board id of its controller.
type ContainerDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BoardID   string    `gorm:"size:64;not null;uniqueIndex"`
	Location  string    `gorm:"size:255"`
	Status    string    `gorm:"size:16;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (ContainerDTO) TableName() string {
	return "containers"
}

// LockerDTO is one compartment row. (board_id, number) is unique.
type LockerDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	BoardID     string    `gorm:"size:64;not null;uniqueIndex:ux_lockers_board_number,priority:1"`
	Number      string    `gorm:"size:16;not null;uniqueIndex:ux_lockers_board_number,priority:2"`
	LockerIndex int       `gorm:"not null"`
	Status      string    `gorm:"size:16;not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (LockerDTO) TableName() string {
	return "lockers"
}

func containerFromDomain(c *locker.Container) ContainerDTO {
	return ContainerDTO{
		ID:       c.ID().Bytes(),
		BoardID:  c.BoardID(),
		Location: c.Location(),
		Status:   c.Status().String(),
	}
}

func containerToDomain(dto ContainerDTO) (*locker.Container, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	status, err := locker.ParseContainerStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	return locker.RestoreContainer(id, dto.BoardID, dto.Location, status)
}

func lockerFromDomain(l *locker.Locker) LockerDTO {
	return LockerDTO{
		ID:          l.ID().Bytes(),
		BoardID:     l.BoardID(),
		Number:      l.Number(),
		LockerIndex: l.Index(),
		Status:      l.Status().String(),
	}
}

func lockerToDomain(dto LockerDTO) (*locker.Locker, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	ref, err := locker.NewRef(dto.BoardID, dto.Number)
	if err != nil {
		return nil, err
	}
	status, err := locker.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	return locker.RestoreLocker(id, ref, dto.LockerIndex, status)
}
