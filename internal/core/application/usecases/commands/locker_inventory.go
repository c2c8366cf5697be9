package commands

import (
	"context"

	"parcellocker/internal/core/domain/model/locker"
)

// LockerInventory reserves and releases lockers, each call in its own
// transaction. The conditional update in the repository is the only
// serialization point: of N concurrent Reserve calls on one AVAILABLE locker
// exactly one succeeds and the rest get a ConflictError.
type LockerInventory struct {
	uowFactory LockerUoWFactory
}

func NewLockerInventory(uowFactory LockerUoWFactory) LockerInventory {
	return LockerInventory{uowFactory: uowFactory}
}

// Reserve moves the locker from AVAILABLE to PENDING.
func (i LockerInventory) Reserve(ctx context.Context, ref locker.Ref) error {
	return i.inTx(ctx, ref, func(repo lockerWriter) error {
		return repo.Reserve(ctx, ref)
	})
}

// Release returns the locker to AVAILABLE. Releasing an already available
// locker succeeds without effect.
func (i LockerInventory) Release(ctx context.Context, ref locker.Ref) error {
	return i.inTx(ctx, ref, func(repo lockerWriter) error {
		return repo.Release(ctx, ref)
	})
}

type lockerWriter interface {
	Reserve(ctx context.Context, ref locker.Ref) error
	Release(ctx context.Context, ref locker.Ref) error
}

func (i LockerInventory) inTx(ctx context.Context, ref locker.Ref, fn func(lockerWriter) error) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	uow := i.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := fn(uow.LockerRepository()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
