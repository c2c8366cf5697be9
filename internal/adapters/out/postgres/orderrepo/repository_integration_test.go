package orderrepo_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"parcellocker/internal/adapters/out/postgres/orderrepo"
	"parcellocker/internal/adapters/out/postgres/pgtest"
	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockAggregateTracker is a mock implementation of aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate interface{}) {
	m.Called(id, aggregate)
}

// OrderRepositoryIntegrationTestSuite verifies order persistence against a
// real PostgreSQL, including the constraints the schema migration creates.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	pg         *pgtest.Database
	repository *orderrepo.GormOrderRepository
	registry   *orderrepo.GormPickupCodeRegistry
	tracker    *MockAggregateTracker
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.pg.Truncate())

	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = orderrepo.NewGormOrderRepository(suite.pg.DB, suite.tracker)
	suite.registry = orderrepo.NewGormPickupCodeRegistry(suite.pg.DB)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.pg != nil {
		suite.Require().NoError(suite.pg.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_StoresAndTracksOrder() {
	ctx := context.Background()
	o := suite.newOrder("04718325", "L001")

	suite.Require().NoError(suite.repository.Add(ctx, o))

	suite.tracker.AssertCalled(suite.T(), "TrackAggregate", o.ID(), o)
	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(o.PickupCode(), got.PickupCode())
	suite.Equal(o.LockerRef(), got.LockerRef())
	suite.Equal(o.LockerIndex(), got.LockerIndex())
	suite.True(o.Recipient().IsEqual(got.Recipient()))
	suite.Equal(order.Waiting, got.Status())
	suite.Equal(payment.Unpaid, got.PaymentStatus())
	suite.Equal(1, got.Version())
	suite.Require().NotNil(got.DeliveredAt())
	suite.Empty(got.DomainEvents())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetByPickupCode() {
	ctx := context.Background()
	o := suite.newOrder("04718325", "L001")
	suite.Require().NoError(suite.repository.Add(ctx, o))

	got, err := suite.repository.GetByPickupCode(ctx, o.PickupCode())
	suite.Require().NoError(err)
	suite.True(o.ID().IsEqual(got.ID()))

	unknown, _ := order.NewPickupCode("99999999")
	_, err = suite.repository.GetByPickupCode(ctx, unknown)
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_UnknownIsNotFound() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_DuplicatePickupCodeIsConflict() {
	ctx := context.Background()
	suite.Require().NoError(suite.repository.Add(ctx, suite.newOrder("04718325", "L001")))

	err := suite.repository.Add(ctx, suite.newOrder("04718325", "L002"))

	suite.ErrorIs(err, errs.ErrConflict)
	suite.assertOrderCount(1)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_SecondActiveOrderOnLockerIsConflict() {
	ctx := context.Background()
	suite.Require().NoError(suite.repository.Add(ctx, suite.newOrder("04718325", "L001")))

	err := suite.repository.Add(ctx, suite.newOrder("11111111", "L001"))

	suite.ErrorIs(err, errs.ErrConflict)
	suite.assertOrderCount(1)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_LockerReusableAfterTerminalOrder() {
	ctx := context.Background()
	first := suite.newOrder("04718325", "L001")
	suite.Require().NoError(suite.repository.Add(ctx, first))

	stored, err := suite.repository.Get(ctx, first.ID())
	suite.Require().NoError(err)
	suite.Require().NoError(stored.Cancel("wrong locker", time.Now()))
	suite.Require().NoError(suite.repository.Update(ctx, stored))

	suite.Require().NoError(suite.repository.Add(ctx, suite.newOrder("11111111", "L001")))
	suite.assertOrderCount(2)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_PersistsChangesAndBumpsVersion() {
	ctx := context.Background()
	o := suite.newOrder("04718325", "L001")
	suite.Require().NoError(suite.repository.Add(ctx, o))

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Require().NoError(stored.MarkPaid())
	suite.Require().NoError(stored.CompletePickup(time.Now()))
	suite.Require().NoError(suite.repository.Update(ctx, stored))

	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.PickedUp, got.Status())
	suite.Equal(payment.Paid, got.PaymentStatus())
	suite.NotNil(got.PickedUpAt())
	suite.Equal(2, got.Version())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_StaleVersionIsConflict() {
	ctx := context.Background()
	o := suite.newOrder("04718325", "L001")
	suite.Require().NoError(suite.repository.Add(ctx, o))

	first, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	second, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)

	suite.Require().NoError(first.Cancel("first", time.Now()))
	suite.Require().NoError(suite.repository.Update(ctx, first))

	suite.Require().NoError(second.MarkPaid())
	err = suite.repository.Update(ctx, second)

	suite.ErrorIs(err, errs.ErrConflict)
	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Cancelled, got.Status())
	suite.Equal(payment.Unpaid, got.PaymentStatus())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_UnknownIsNotFound() {
	o := suite.newOrder("04718325", "L001")

	err := suite.repository.Update(context.Background(), o)

	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestListPaidAwaitingPickup() {
	ctx := context.Background()
	paidWaiting := suite.storeOrder("10000001", "L001", func(o *order.Order) {
		suite.Require().NoError(o.MarkPaid())
	})
	suite.storeOrder("10000002", "L002", nil)
	paidDelivered := suite.storeOrder("10000003", "L003", func(o *order.Order) {
		suite.Require().NoError(o.MarkPaid())
		suite.Require().NoError(o.ChangeStatus(order.Delivered, time.Now()))
	})
	suite.storeOrder("10000004", "L004", func(o *order.Order) {
		suite.Require().NoError(o.MarkPaid())
		suite.Require().NoError(o.CompletePickup(time.Now()))
	})

	got, err := suite.repository.ListPaidAwaitingPickup(ctx, 10)

	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.True(paidWaiting.ID().IsEqual(got[0].ID()))
	suite.True(paidDelivered.ID().IsEqual(got[1].ID()))

	limited, err := suite.repository.ListPaidAwaitingPickup(ctx, 1)
	suite.Require().NoError(err)
	suite.Len(limited, 1)

	_, err = suite.repository.ListPaidAwaitingPickup(ctx, 0)
	suite.ErrorIs(err, errs.ErrValueIsOutOfRange)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestRegistry_ClaimsOnce() {
	ctx := context.Background()
	code, _ := order.NewPickupCode("04718325")

	claimed, err := suite.registry.Claim(ctx, code)
	suite.Require().NoError(err)
	suite.True(claimed)

	claimed, err = suite.registry.Claim(ctx, code)
	suite.Require().NoError(err)
	suite.False(claimed)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestRegistry_ConcurrentClaimsOnlyOneWins() {
	code, _ := order.NewPickupCode("12345678")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := suite.registry.Claim(context.Background(), code)
			if err == nil && claimed {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	suite.Equal(int32(1), wins.Load())
}

func (suite *OrderRepositoryIntegrationTestSuite) newOrder(rawCode, number string) *order.Order {
	code, err := order.NewPickupCode(rawCode)
	suite.Require().NoError(err)
	ref, err := locker.NewRef("BOARD_001", number)
	suite.Require().NoError(err)
	phone, err := kernel.NewPhoneNumber("88118811")
	suite.Require().NoError(err)

	o, err := order.NewOrder(kernel.NewUUID(), code, ref, 0, phone, time.Now())
	suite.Require().NoError(err)
	return o
}

// storeOrder adds an order and, if mutate is given, applies it to the stored
// copy and writes it back.
func (suite *OrderRepositoryIntegrationTestSuite) storeOrder(rawCode, number string, mutate func(*order.Order)) *order.Order {
	ctx := context.Background()
	o := suite.newOrder(rawCode, number)
	suite.Require().NoError(suite.repository.Add(ctx, o))
	if mutate == nil {
		return o
	}

	stored, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)
	mutate(stored)
	suite.Require().NoError(suite.repository.Update(ctx, stored))
	return stored
}

// assertOrderCount verifies the number of orders in the database.
func (suite *OrderRepositoryIntegrationTestSuite) assertOrderCount(expected int) {
	var count int64
	err := suite.pg.DB.Model(&orderrepo.OrderDTO{}).Count(&count).Error
	suite.Require().NoError(err)
	suite.Equal(int64(expected), count)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
