package ports

import (
	"context"

	"parcellocker/internal/core/domain/model/kernel"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// Repositories obtained after Begin share its transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	ContainerRepository() ContainerRepository
	LockerRepository() LockerRepository
	OrderRepository() OrderRepository
	PaymentRepository() PaymentRepository

	// CollectDomainEvents drains the events raised by every aggregate written
	// through this unit of work. Call it after Commit; events of a rolled back
	// transaction must not be published.
	CollectDomainEvents() []kernel.DomainEvent
}
