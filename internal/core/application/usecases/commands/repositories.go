// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management,
// persistence, and publication of the domain events of the committed transaction.
package commands

import (
	"context"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// LockerRepoFactory provides access to container and locker repositories
	// within a transaction.
	LockerRepoFactory interface {
		ContainerRepository() ports.ContainerRepository
		LockerRepository() ports.LockerRepository
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// PaymentRepoFactory provides access to the payment repository within a transaction.
	PaymentRepoFactory interface {
		PaymentRepository() ports.PaymentRepository
	}

	// EventCollector drains the events raised by aggregates written in the
	// unit of work. Only called after a successful Commit.
	EventCollector interface {
		CollectDomainEvents() []kernel.DomainEvent
	}

	// LockerUoW manages transactions for locker-only operations.
	LockerUoW interface {
		TxManager
		LockerRepoFactory
	}

	// LockerUoWFactory creates new locker unit of work instances.
	LockerUoWFactory interface {
		Create() LockerUoW
	}

	// UoW manages transactions across lockers, orders and payments.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   o, err := uow.OrderRepository().GetByPickupCode(ctx, code)
	//   // ... mutate, Update, Release locker
	//
	//   err = uow.Commit(ctx)
	//   publisher.Publish(context.WithoutCancel(ctx), uow.CollectDomainEvents()...)
	UoW interface {
		TxManager
		LockerRepoFactory
		OrderRepoFactory
		PaymentRepoFactory
		EventCollector
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}
)
