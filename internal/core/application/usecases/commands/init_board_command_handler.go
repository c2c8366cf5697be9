package commands

import (
	"context"
	"errors"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/pkg/errs"
)

// InitBoardResult reports what InitBoard created.
type InitBoardResult struct {
	BoardID        string
	LockersCreated int
	LockersTotal   int
}

// InitBoardCommandHandler creates the container when missing and adds the
// lockers it does not have yet. Running it twice is harmless.
type InitBoardCommandHandler struct {
	uowFactory LockerUoWFactory
}

func NewInitBoardCommandHandler(uowFactory LockerUoWFactory) InitBoardCommandHandler {
	return InitBoardCommandHandler{uowFactory: uowFactory}
}

func (h InitBoardCommandHandler) Handle(ctx context.Context, command InitBoardCommand) (InitBoardResult, error) {
	if err := command.Validate(); err != nil {
		return InitBoardResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return InitBoardResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	containers := uow.ContainerRepository()
	lockers := uow.LockerRepository()

	_, err := containers.GetByBoardID(ctx, command.BoardID())
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		container, cErr := locker.NewContainer(kernel.NewUUID(), command.BoardID(), command.Location())
		if cErr != nil {
			return InitBoardResult{}, cErr
		}
		if err = containers.Add(ctx, container); err != nil {
			return InitBoardResult{}, err
		}
	case err != nil:
		return InitBoardResult{}, err
	}

	existing, err := lockers.ListByBoard(ctx, command.BoardID())
	if err != nil {
		return InitBoardResult{}, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, l := range existing {
		known[l.Number()] = struct{}{}
	}

	created := 0
	for i := 0; i < command.LockerCount(); i++ {
		number := locker.NumberForIndex(i)
		if _, ok := known[number]; ok {
			continue
		}

		ref, rErr := locker.NewRef(command.BoardID(), number)
		if rErr != nil {
			return InitBoardResult{}, rErr
		}
		l, lErr := locker.NewLocker(kernel.NewUUID(), ref, i)
		if lErr != nil {
			return InitBoardResult{}, lErr
		}
		if err = lockers.Add(ctx, l); err != nil {
			return InitBoardResult{}, err
		}
		created++
	}

	if err = uow.Commit(ctx); err != nil {
		return InitBoardResult{}, err
	}

	return InitBoardResult{
		BoardID:        command.BoardID(),
		LockersCreated: created,
		LockersTotal:   len(existing) + created,
	}, nil
}
