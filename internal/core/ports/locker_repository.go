package ports

import (
	"context"

	"parcellocker/internal/core/domain/model/locker"
)

// ContainerRepository persists locker containers (boards).
type ContainerRepository interface {
	// Add persists a new container. A duplicate board id is a ConflictError.
	Add(ctx context.Context, container *locker.Container) error

	// GetByBoardID returns ObjectNotFoundError for an unknown board.
	GetByBoardID(ctx context.Context, boardID string) (*locker.Container, error)
}

// LockerRepository persists individual lockers.
//
// Reserve, Occupy and Release are single conditional statements. They never
// read-then-write, so two callers racing for the same locker cannot both win.
type LockerRepository interface {
	Add(ctx context.Context, l *locker.Locker) error

	Get(ctx context.Context, ref locker.Ref) (*locker.Locker, error)

	// ListByBoard returns the lockers of a board ordered by index.
	ListByBoard(ctx context.Context, boardID string) ([]*locker.Locker, error)

	// Reserve moves an AVAILABLE locker to PENDING. Any other status is a
	// ConflictError and leaves the row untouched.
	Reserve(ctx context.Context, ref locker.Ref) error

	// Occupy promotes a PENDING reservation to OCCUPIED.
	Occupy(ctx context.Context, ref locker.Ref) error

	// Release returns a PENDING or OCCUPIED locker to AVAILABLE. Releasing an
	// AVAILABLE or MAINTENANCE locker is a no-op.
	Release(ctx context.Context, ref locker.Ref) error
}
