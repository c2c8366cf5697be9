package commands_test

import (
	"context"
	"testing"
	"time"

	"parcellocker/internal/core/application/usecases/commands"
	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/domain/model/locker"
	"parcellocker/internal/core/domain/model/order"
	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockContainerRepository struct{ mock.Mock }

func (m *MockContainerRepository) Add(ctx context.Context, c *locker.Container) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContainerRepository) GetByBoardID(ctx context.Context, boardID string) (*locker.Container, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*locker.Container), args.Error(1)
}

type MockLockerRepository struct{ mock.Mock }

func (m *MockLockerRepository) Add(ctx context.Context, l *locker.Locker) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockLockerRepository) Get(ctx context.Context, ref locker.Ref) (*locker.Locker, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*locker.Locker), args.Error(1)
}

func (m *MockLockerRepository) ListByBoard(ctx context.Context, boardID string) ([]*locker.Locker, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*locker.Locker), args.Error(1)
}

func (m *MockLockerRepository) Reserve(ctx context.Context, ref locker.Ref) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *MockLockerRepository) Occupy(ctx context.Context, ref locker.Ref) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *MockLockerRepository) Release(ctx context.Context, ref locker.Ref) error {
	return m.Called(ctx, ref).Error(0)
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByPickupCode(ctx context.Context, code order.PickupCode) (*order.Order, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListPaidAwaitingPickup(ctx context.Context, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockPaymentRepository struct{ mock.Mock }

func (m *MockPaymentRepository) Add(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPaymentRepository) Get(ctx context.Context, id kernel.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(context.Context, kernel.UUID) *payment.Payment); ok {
		return fn(ctx, id), args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*payment.Payment, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetActiveByOrder(ctx context.Context, orderID kernel.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListPendingInvoiced(ctx context.Context, limit int) ([]*payment.Payment, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

// MockUoW hands out the same repository mocks for every call.
type MockUoW struct {
	mock.Mock

	containers *MockContainerRepository
	lockers    *MockLockerRepository
	orders     *MockOrderRepository
	payments   *MockPaymentRepository
}

func newMockUoW() *MockUoW {
	return &MockUoW{
		containers: new(MockContainerRepository),
		lockers:    new(MockLockerRepository),
		orders:     new(MockOrderRepository),
		payments:   new(MockPaymentRepository),
	}
}

func (m *MockUoW) Begin(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockUoW) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockUoW) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockUoW) ContainerRepository() ports.ContainerRepository { return m.containers }
func (m *MockUoW) LockerRepository() ports.LockerRepository       { return m.lockers }
func (m *MockUoW) OrderRepository() ports.OrderRepository         { return m.orders }
func (m *MockUoW) PaymentRepository() ports.PaymentRepository     { return m.payments }

func (m *MockUoW) CollectDomainEvents() []kernel.DomainEvent {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]kernel.DomainEvent)
}

// expectTx allows any number of Begin/Commit/Rollback calls.
func (m *MockUoW) expectTx(ctx any) *MockUoW {
	m.On("Begin", ctx).Return(nil).Maybe()
	m.On("Commit", ctx).Return(nil).Maybe()
	m.On("Rollback", ctx).Return(nil).Maybe()
	return m
}

func (m *MockUoW) assertAll(t *testing.T) {
	t.Helper()
	m.AssertExpectations(t)
	m.containers.AssertExpectations(t)
	m.lockers.AssertExpectations(t)
	m.orders.AssertExpectations(t)
	m.payments.AssertExpectations(t)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	return m.Called().Get(0).(commands.UoW)
}

type MockLockerUoWFactory struct{ mock.Mock }

func (m *MockLockerUoWFactory) Create() commands.LockerUoW {
	return m.Called().Get(0).(commands.LockerUoW)
}

type MockPaymentGateway struct{ mock.Mock }

func (m *MockPaymentGateway) CreateInvoice(ctx context.Context, req ports.InvoiceRequest) (payment.Invoice, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Invoice), args.Error(1)
}

func (m *MockPaymentGateway) CheckPayment(ctx context.Context, invoiceID string) (ports.PaymentCheck, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).(ports.PaymentCheck), args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, to kernel.PhoneNumber, text string) {
	m.Called(ctx, to, text)
}

func (m *MockNotifier) Send(ctx context.Context, to kernel.PhoneNumber, text string) error {
	return m.Called(ctx, to, text).Error(0)
}

// RecordingPublisher keeps everything it is given.
type RecordingPublisher struct {
	Events []kernel.DomainEvent
	// CtxErrs holds ctx.Err() as seen by each Publish call.
	CtxErrs []error
}

func (p *RecordingPublisher) Publish(ctx context.Context, events ...kernel.DomainEvent) {
	p.Events = append(p.Events, events...)
	p.CtxErrs = append(p.CtxErrs, ctx.Err())
}

type MockLockerReserver struct{ mock.Mock }

func (m *MockLockerReserver) Reserve(ctx context.Context, ref locker.Ref) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *MockLockerReserver) Release(ctx context.Context, ref locker.Ref) error {
	return m.Called(ctx, ref).Error(0)
}

type MockPickupCodeGenerator struct{ mock.Mock }

func (m *MockPickupCodeGenerator) Generate(ctx context.Context) (order.PickupCode, error) {
	args := m.Called(ctx)
	return args.Get(0).(order.PickupCode), args.Error(1)
}

type MockInvoiceCreator struct{ mock.Mock }

func (m *MockInvoiceCreator) Handle(ctx context.Context, cmd commands.CreateInvoiceCommand) (commands.CreateInvoiceResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.CreateInvoiceResult), args.Error(1)
}

type MockPickupCompleter struct{ mock.Mock }

func (m *MockPickupCompleter) Handle(ctx context.Context, cmd commands.CompletePickupCommand) (commands.CompletePickupResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.CompletePickupResult), args.Error(1)
}

type MockPaymentVerifier struct{ mock.Mock }

func (m *MockPaymentVerifier) Handle(ctx context.Context, cmd commands.VerifyPaymentCommand) (commands.VerifyPaymentResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.VerifyPaymentResult), args.Error(1)
}

// fixtures

const testCode = "04718325"

func testRef(t *testing.T) locker.Ref {
	t.Helper()
	ref, err := locker.NewRef("BOARD_001", "L001")
	require.NoError(t, err)
	return ref
}

func testPhone(t *testing.T) kernel.PhoneNumber {
	t.Helper()
	phone, err := kernel.NewPhoneNumber("+97688118811")
	require.NoError(t, err)
	return phone
}

func testPickupCode(t *testing.T) order.PickupCode {
	t.Helper()
	code, err := order.NewPickupCode(testCode)
	require.NoError(t, err)
	return code
}

func restoreOrder(t *testing.T, status order.Status, paymentStatus payment.Status) *order.Order {
	t.Helper()
	now := time.Now().UTC()
	o, err := order.RestoreOrder(order.RestoreOrderParams{
		ID:            kernel.NewUUID(),
		PickupCode:    testPickupCode(t),
		LockerRef:     testRef(t),
		LockerIndex:   0,
		Recipient:     testPhone(t),
		Status:        status,
		PaymentStatus: paymentStatus,
		Version:       1,
		CreatedAt:     now,
		DeliveredAt:   &now,
	})
	require.NoError(t, err)
	return o
}

func restorePayment(
	t *testing.T,
	orderID kernel.UUID,
	status payment.Status,
	invoiceID string,
	createdAt time.Time,
) *payment.Payment {
	t.Helper()
	var paidAt *time.Time
	if status == payment.Paid {
		at := time.Now().UTC()
		paidAt = &at
	}
	var invoice payment.Invoice
	if invoiceID != "" {
		invoice = payment.Invoice{ID: invoiceID, ShortURL: "https://s.qpay.mn/" + invoiceID}
	}
	p, err := payment.RestorePayment(kernel.NewUUID(), orderID, 100, status, invoice, 1, createdAt, paidAt, nil)
	require.NoError(t, err)
	return p
}

func testContainer(t *testing.T, location string) *locker.Container {
	t.Helper()
	c, err := locker.NewContainer(kernel.NewUUID(), "BOARD_001", location)
	require.NoError(t, err)
	return c
}

func factoryFor(uows ...*MockUoW) *MockUoWFactory {
	f := new(MockUoWFactory)
	for _, u := range uows {
		f.On("Create").Return(u).Once()
	}
	return f
}
