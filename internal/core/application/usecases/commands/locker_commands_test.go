package commands_test

import (
	"errors"
	"testing"

	"parcellocker/internal/core/application/usecases/commands"
	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLockerInventory_Reserve(t *testing.T) {
	ctx := t.Context()
	ref := testRef(t)

	uow := newMockUoW()
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.lockers.On("Reserve", ctx, ref).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)
	factory := new(MockLockerUoWFactory)
	factory.On("Create").Return(uow).Once()

	err := commands.NewLockerInventory(factory).Reserve(ctx, ref)

	require.NoError(t, err)
	uow.assertAll(t)
}

func TestLockerInventory_ReserveConflictIsNotCommitted(t *testing.T) {
	ctx := t.Context()
	ref := testRef(t)

	uow := newMockUoW()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.lockers.On("Reserve", ctx, ref).Return(errs.NewConflictError("locker", ref.String(), "not available")).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	factory := new(MockLockerUoWFactory)
	factory.On("Create").Return(uow).Once()

	err := commands.NewLockerInventory(factory).Reserve(ctx, ref)

	require.ErrorIs(t, err, errs.ErrConflict)
	uow.AssertNotCalled(t, "Commit", ctx)
}

func TestLockerInventory_Release(t *testing.T) {
	ctx := t.Context()
	ref := testRef(t)

	uow := newMockUoW().expectTx(ctx)
	uow.lockers.On("Release", ctx, ref).Return(nil).Once()
	factory := new(MockLockerUoWFactory)
	factory.On("Create").Return(uow).Once()

	require.NoError(t, commands.NewLockerInventory(factory).Release(ctx, ref))
	uow.assertAll(t)
}

func TestLockerInventory_InvalidRef(t *testing.T) {
	factory := new(MockLockerUoWFactory)

	err := commands.NewLockerInventory(factory).Reserve(t.Context(), locker.Ref{})

	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	factory.AssertNotCalled(t, "Create")
}

func TestNewInitBoardCommand(t *testing.T) {
	cmd, err := commands.NewInitBoardCommand(" BOARD_001 ", " Central ", 4)
	require.NoError(t, err)
	assert.Equal(t, "BOARD_001", cmd.BoardID())
	assert.Equal(t, "Central", cmd.Location())
	assert.Equal(t, 4, cmd.LockerCount())

	_, err = commands.NewInitBoardCommand("", "x", 0)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)

	_, err = commands.NewInitBoardCommand("B", "x", locker.MaxIndex+2)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestInitBoardCommandHandler_CreatesContainerAndLockers(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewInitBoardCommand("BOARD_001", "Central Tower", 3)
	require.NoError(t, err)

	uow := newMockUoW().expectTx(ctx)
	uow.containers.On("GetByBoardID", ctx, "BOARD_001").
		Return(nil, errs.NewObjectNotFoundError("boardId", "BOARD_001")).Once()
	uow.containers.On("Add", ctx, mock.AnythingOfType("*locker.Container")).Return(nil).Once()
	uow.lockers.On("ListByBoard", ctx, "BOARD_001").Return([]*locker.Locker{}, nil).Once()

	var added []string
	uow.lockers.On("Add", ctx, mock.AnythingOfType("*locker.Locker")).
		Run(func(args mock.Arguments) {
			l := args.Get(1).(*locker.Locker)
			added = append(added, l.Number())
		}).
		Return(nil).Times(3)

	factory := new(MockLockerUoWFactory)
	factory.On("Create").Return(uow).Once()

	result, err := commands.NewInitBoardCommandHandler(factory).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, commands.InitBoardResult{BoardID: "BOARD_001", LockersCreated: 3, LockersTotal: 3}, result)
	assert.Equal(t, []string{"L001", "L002", "L003"}, added)
	uow.assertAll(t)
}

func TestInitBoardCommandHandler_IsIdempotent(t *testing.T) {
	ctx := t.Context()
	cmd, _ := commands.NewInitBoardCommand("BOARD_001", "", 2)

	existing := make([]*locker.Locker, 0, 2)
	for i := range 2 {
		ref, _ := locker.NewRef("BOARD_001", locker.NumberForIndex(i))
		l, err := locker.NewLocker(kernel.NewUUID(), ref, i)
		require.NoError(t, err)
		existing = append(existing, l)
	}

	uow := newMockUoW().expectTx(ctx)
	uow.containers.On("GetByBoardID", ctx, "BOARD_001").Return(testContainer(t, ""), nil).Once()
	uow.lockers.On("ListByBoard", ctx, "BOARD_001").Return(existing, nil).Once()

	factory := new(MockLockerUoWFactory)
	factory.On("Create").Return(uow).Once()

	result, err := commands.NewInitBoardCommandHandler(factory).Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, 0, result.LockersCreated)
	assert.Equal(t, 2, result.LockersTotal)
	uow.lockers.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	uow.containers.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestInitBoardCommandHandler_StorageError(t *testing.T) {
	ctx := t.Context()
	cmd, _ := commands.NewInitBoardCommand("BOARD_001", "", 1)

	uow := newMockUoW().expectTx(ctx)
	uow.containers.On("GetByBoardID", ctx, "BOARD_001").Return(nil, errors.New("db down")).Once()
	factory := new(MockLockerUoWFactory)
	factory.On("Create").Return(uow).Once()

	_, err := commands.NewInitBoardCommandHandler(factory).Handle(ctx, cmd)

	require.EqualError(t, err, "db down")
}

func TestInitBoardCommandHandler_NotConstructed(t *testing.T) {
	_, err := commands.NewInitBoardCommandHandler(new(MockLockerUoWFactory)).Handle(t.Context(), commands.InitBoardCommand{})
	require.ErrorIs(t, err, commands.ErrInitBoardCommandIsNotConstructed)
}
