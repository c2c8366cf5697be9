package lockerrepo_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"parcellocker/internal/adapters/out/postgres/lockerrepo"
	"parcellocker/internal/adapters/out/postgres/pgtest"
	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
)

type LockerRepositoryIntegrationTestSuite struct {
	suite.Suite
	pg         *pgtest.Database
	containers *lockerrepo.GormContainerRepository
	lockers    *lockerrepo.GormLockerRepository
}

func (suite *LockerRepositoryIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
}

func (suite *LockerRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.pg.Truncate())
	suite.containers = lockerrepo.NewGormContainerRepository(suite.pg.DB)
	suite.lockers = lockerrepo.NewGormLockerRepository(suite.pg.DB)
}

func (suite *LockerRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.pg != nil {
		suite.Require().NoError(suite.pg.Terminate(context.Background()))
	}
}

func (suite *LockerRepositoryIntegrationTestSuite) addLockers(boardID string, count int) {
	ctx := context.Background()
	for i := 0; i < count; i++ {
		ref, err := locker.NewRef(boardID, locker.NumberForIndex(i))
		suite.Require().NoError(err)
		l, err := locker.NewLocker(kernel.NewUUID(), ref, i)
		suite.Require().NoError(err)
		suite.Require().NoError(suite.lockers.Add(ctx, l))
	}
}

func (suite *LockerRepositoryIntegrationTestSuite) TestContainer_AddAndGet() {
	ctx := context.Background()
	c, err := locker.NewContainer(kernel.NewUUID(), "BOARD_001", "Central Tower")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.containers.Add(ctx, c))

	got, err := suite.containers.GetByBoardID(ctx, "BOARD_001")
	suite.Require().NoError(err)
	suite.True(c.ID().IsEqual(got.ID()))
	suite.Equal("Central Tower", got.Location())
	suite.Equal(locker.ContainerActive, got.Status())
}

func (suite *LockerRepositoryIntegrationTestSuite) TestContainer_DuplicateBoardIsConflict() {
	ctx := context.Background()
	first, err := locker.NewContainer(kernel.NewUUID(), "BOARD_001", "")
	suite.Require().NoError(err)
	second, err := locker.NewContainer(kernel.NewUUID(), "BOARD_001", "")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.containers.Add(ctx, first))
	err = suite.containers.Add(ctx, second)

	suite.Require().Error(err)
	suite.ErrorIs(err, errs.ErrConflict)
}

func (suite *LockerRepositoryIntegrationTestSuite) TestContainer_UnknownBoardIsNotFound() {
	_, err := suite.containers.GetByBoardID(context.Background(), "NOPE")

	suite.Require().Error(err)
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *LockerRepositoryIntegrationTestSuite) TestListByBoard_OrderedByIndex() {
	suite.addLockers("BOARD_001", 3)
	suite.addLockers("BOARD_002", 1)

	got, err := suite.lockers.ListByBoard(context.Background(), "BOARD_001")

	suite.Require().NoError(err)
	suite.Require().Len(got, 3)
	for i, l := range got {
		suite.Equal(i, l.Index())
		suite.Equal(locker.NumberForIndex(i), l.Number())
		suite.Equal(locker.Available, l.Status())
	}
}

func (suite *LockerRepositoryIntegrationTestSuite) TestAdd_DuplicateNumberIsConflict() {
	suite.addLockers("BOARD_001", 1)
	ref, _ := locker.NewRef("BOARD_001", "L001")
	l, err := locker.NewLocker(kernel.NewUUID(), ref, 5)
	suite.Require().NoError(err)

	err = suite.lockers.Add(context.Background(), l)

	suite.ErrorIs(err, errs.ErrConflict)
}

func (suite *LockerRepositoryIntegrationTestSuite) TestLifecycle() {
	ctx := context.Background()
	suite.addLockers("BOARD_001", 1)
	ref, _ := locker.NewRef("BOARD_001", "L001")

	suite.Require().NoError(suite.lockers.Reserve(ctx, ref))
	suite.requireStatus(ref, locker.Pending)

	suite.ErrorIs(suite.lockers.Reserve(ctx, ref), errs.ErrConflict)

	suite.Require().NoError(suite.lockers.Occupy(ctx, ref))
	suite.requireStatus(ref, locker.Occupied)

	suite.ErrorIs(suite.lockers.Occupy(ctx, ref), errs.ErrConflict)

	suite.Require().NoError(suite.lockers.Release(ctx, ref))
	suite.requireStatus(ref, locker.Available)

	// releasing twice is harmless
	suite.Require().NoError(suite.lockers.Release(ctx, ref))
	suite.requireStatus(ref, locker.Available)
}

func (suite *LockerRepositoryIntegrationTestSuite) TestOccupy_AvailableIsConflict() {
	suite.addLockers("BOARD_001", 1)
	ref, _ := locker.NewRef("BOARD_001", "L001")

	err := suite.lockers.Occupy(context.Background(), ref)

	suite.ErrorIs(err, errs.ErrConflict)
	suite.requireStatus(ref, locker.Available)
}

func (suite *LockerRepositoryIntegrationTestSuite) TestMaintenance_IsNeitherReservedNorReleased() {
	ctx := context.Background()
	suite.addLockers("BOARD_001", 1)
	ref, _ := locker.NewRef("BOARD_001", "L001")
	suite.Require().NoError(suite.pg.DB.Exec(
		"UPDATE lockers SET status = 'MAINTENANCE' WHERE board_id = ? AND number = ?", ref.BoardID, ref.Number).Error)

	suite.ErrorIs(suite.lockers.Reserve(ctx, ref), errs.ErrConflict)
	suite.Require().NoError(suite.lockers.Release(ctx, ref))
	suite.requireStatus(ref, locker.Maintenance)
}

func (suite *LockerRepositoryIntegrationTestSuite) TestUnknownLockerIsNotFound() {
	ctx := context.Background()
	ref, _ := locker.NewRef("BOARD_404", "L001")

	_, err := suite.lockers.Get(ctx, ref)
	suite.ErrorIs(err, errs.ErrObjectNotFound)
	suite.ErrorIs(suite.lockers.Reserve(ctx, ref), errs.ErrObjectNotFound)
	suite.ErrorIs(suite.lockers.Release(ctx, ref), errs.ErrObjectNotFound)
}

func (suite *LockerRepositoryIntegrationTestSuite) TestReserve_ConcurrentCallersOnlyOneWins() {
	suite.addLockers("BOARD_001", 1)
	ref, _ := locker.NewRef("BOARD_001", "L001")

	const callers = 10
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := suite.lockers.Reserve(context.Background(), ref)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, errs.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	suite.Equal(int32(1), wins.Load())
	suite.Equal(int32(callers-1), conflicts.Load())
	suite.requireStatus(ref, locker.Pending)
}

func (suite *LockerRepositoryIntegrationTestSuite) requireStatus(ref locker.Ref, want locker.Status) {
	got, err := suite.lockers.Get(context.Background(), ref)
	suite.Require().NoError(err)
	suite.Equal(want, got.Status())
}

func TestLockerRepositoryIntegration(t *testing.T) {
	suite.Run(t, new(LockerRepositoryIntegrationTestSuite))
}
