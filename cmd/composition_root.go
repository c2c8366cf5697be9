package cmd

import (
	"context"
	"errors"
	"log/slog"

	httpin "parcellocker/internal/adapters/in/http"
	"parcellocker/internal/adapters/out/kafka"
	"parcellocker/internal/adapters/out/postgres"
	"parcellocker/internal/adapters/out/postgres/orderrepo"
	"parcellocker/internal/adapters/out/postgres/paymentrepo"
	"parcellocker/internal/adapters/out/postgres/smslogrepo"
	"parcellocker/internal/adapters/out/qpay"
	"parcellocker/internal/adapters/out/rabbitmq"
	"parcellocker/internal/adapters/out/redis"
	"parcellocker/internal/adapters/out/sms"
	"parcellocker/internal/core/application/eventhandlers"
	"parcellocker/internal/core/application/events"
	"parcellocker/internal/core/application/usecases/commands"
	"parcellocker/internal/core/application/usecases/queries"
	"parcellocker/internal/core/domain/services"
	"parcellocker/internal/core/ports"
	"parcellocker/internal/jobs"

	"gorm.io/gorm"
)

// CompositionRoot owns the long-lived adapters and builds the use cases on
// top of them.
type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	logger     *slog.Logger

	bus        *events.Bus
	gateway    *qpay.Client
	dispatcher *sms.Dispatcher
	unlocks    *rabbitmq.UnlockPublisher
	stream     *kafka.EventStream
	limiter    *redis.RateLimiter
}

// NewCompositionRoot connects the messaging adapters and subscribes the event
// handlers. RabbitMQ is required. Without Kafka brokers events are not
// streamed, and without Redis the SMS quota is counted from the audit table.
func NewCompositionRoot(ctx context.Context, cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		logger:     logger,
		bus:        events.NewBus(logger),
	}

	unlocks, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		return nil, err
	}
	c.unlocks = unlocks

	var stream ports.EventStream
	if len(cfg.KafkaBrokers) > 0 {
		c.stream = kafka.NewEventStream(cfg.KafkaBrokers, cfg.KafkaTopic)
		stream = c.stream
	}

	c.gateway = qpay.NewClient(qpay.Config{
		BaseURL:     cfg.QPayBaseURL,
		Username:    cfg.QPayUsername,
		Password:    cfg.QPayPassword,
		InvoiceCode: cfg.QPayInvoiceCode,
		Timeout:     cfg.QPayTimeout,
	}, paymentrepo.NewGormProviderTokenRepository(gormDB), logger)

	c.dispatcher = sms.NewDispatcher(
		c.smsTransport(),
		c.smsLimiter(ctx),
		smslogrepo.NewGormSMSLogRepository(gormDB),
		sms.DispatcherConfig{Limit: cfg.SMSRateLimit, Window: cfg.SMSRateWindow},
		logger,
	)

	eventhandlers.Register(c.bus, eventhandlers.Dependencies{
		Pickups:  c.CreateCompletePickupCommandHandler(),
		Notifier: c.dispatcher,
		Unlocks:  c.unlocks,
		Stream:   stream,
		Logger:   logger,
	})
	return c, nil
}

func (c *CompositionRoot) smsTransport() ports.SMSTransport {
	if !c.cfg.TwilioEnabled() {
		c.logger.Warn("SMS credentials not configured, messages will only be logged")
		return sms.NewLogTransport(c.logger)
	}
	return sms.NewTwilioTransport(sms.TwilioConfig{
		BaseURL:    c.cfg.SMSBaseURL,
		AccountSID: c.cfg.SMSAccountSID,
		AuthToken:  c.cfg.SMSAuthToken,
		From:       c.cfg.SMSFrom,
	})
}

func (c *CompositionRoot) smsLimiter(ctx context.Context) ports.RateLimiter {
	if c.cfg.RedisAddr == "" {
		return sms.NewHistoryLimiter(smslogrepo.NewGormSMSLogRepository(c.gormDB))
	}

	c.limiter = redis.NewRateLimiter(c.cfg.RedisAddr)
	if err := c.limiter.Ping(ctx); err != nil {
		c.logger.Warn("redis unreachable at startup, SMS quota checks fail open", "addr", c.cfg.RedisAddr, "error", err)
	}
	return c.limiter
}

func (c *CompositionRoot) uow() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) lockerUoW() commands.LockerUoWFactory {
	return FuncLockerUoWFactory(func() commands.LockerUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateInitBoardCommandHandler() commands.InitBoardCommandHandler {
	return commands.NewInitBoardCommandHandler(c.lockerUoW())
}

func (c *CompositionRoot) CreateStartDeliveryCommandHandler() commands.StartDeliveryCommandHandler {
	return commands.NewStartDeliveryCommandHandler(
		c.uow(),
		commands.NewLockerInventory(c.lockerUoW()),
		services.NewPickupCodeGenerator(orderrepo.NewGormPickupCodeRegistry(c.gormDB)),
		c.dispatcher,
		c.bus,
		c.logger,
	)
}

func (c *CompositionRoot) CreateCompletePickupCommandHandler() commands.CompletePickupCommandHandler {
	return commands.NewCompletePickupCommandHandler(c.uow(), c.bus)
}

func (c *CompositionRoot) CreateCreateInvoiceCommandHandler() commands.CreateInvoiceCommandHandler {
	return commands.NewCreateInvoiceCommandHandler(c.uow(), c.gateway, commands.InvoiceSettings{
		CallbackBaseURL: c.cfg.PaymentCallbackURL,
		Timeout:         c.cfg.QPayTimeout,
	}, c.logger)
}

func (c *CompositionRoot) CreateVerifyPaymentCommandHandler() commands.VerifyPaymentCommandHandler {
	return commands.NewVerifyPaymentCommandHandler(c.uow(), c.gateway, c.bus, c.cfg.QPayTimeout, c.logger)
}

func (c *CompositionRoot) CreateRequestPickupCommandHandler() commands.RequestPickupCommandHandler {
	return commands.NewRequestPickupCommandHandler(
		c.uow(),
		c.CreateCreateInvoiceCommandHandler(),
		c.CreateCompletePickupCommandHandler(),
		services.NewPriceCalculator(c.cfg.DeliveryBasePrice, c.cfg.DeliveryCentralSurcharge),
	)
}

func (c *CompositionRoot) CreateCheckDeliveryPaymentCommandHandler() commands.CheckDeliveryPaymentCommandHandler {
	return commands.NewCheckDeliveryPaymentCommandHandler(c.uow(), c.CreateVerifyPaymentCommandHandler())
}

func (c *CompositionRoot) CreateCheckInvoiceCommandHandler() commands.CheckInvoiceCommandHandler {
	return commands.NewCheckInvoiceCommandHandler(c.uow(), c.CreateVerifyPaymentCommandHandler())
}

func (c *CompositionRoot) CreateCancelDeliveryCommandHandler() commands.CancelDeliveryCommandHandler {
	return commands.NewCancelDeliveryCommandHandler(c.uow(), c.bus)
}

func (c *CompositionRoot) CreateUpdateDeliveryStatusCommandHandler() commands.UpdateDeliveryStatusCommandHandler {
	return commands.NewUpdateDeliveryStatusCommandHandler(c.uow(), c.bus)
}

func (c *CompositionRoot) CreateSendSMSCommandHandler() commands.SendSMSCommandHandler {
	return commands.NewSendSMSCommandHandler(c.dispatcher)
}

func (c *CompositionRoot) CreateReconcilePendingPaymentsCommandHandler() commands.ReconcilePendingPaymentsCommandHandler {
	return commands.NewReconcilePendingPaymentsCommandHandler(
		c.uow(),
		c.CreateVerifyPaymentCommandHandler(),
		c.CreateCompletePickupCommandHandler(),
		c.bus,
		c.logger,
	)
}

func (c *CompositionRoot) CreateGetLockerStatusQueryHandler() queries.GetLockerStatusQueryHandler {
	return queries.NewGetLockerStatusQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetDeliveriesQueryHandler() queries.GetDeliveriesQueryHandler {
	return queries.NewGetDeliveriesQueryHandler(c.gormDB)
}

// HTTPHandlers bundles the use cases served by the HTTP adapter.
func (c *CompositionRoot) HTTPHandlers() httpin.Handlers {
	return httpin.Handlers{
		InitBoard:            c.CreateInitBoardCommandHandler(),
		StartDelivery:        c.CreateStartDeliveryCommandHandler(),
		RequestPickup:        c.CreateRequestPickupCommandHandler(),
		CheckDeliveryPayment: c.CreateCheckDeliveryPaymentCommandHandler(),
		CancelDelivery:       c.CreateCancelDeliveryCommandHandler(),
		UpdateDeliveryStatus: c.CreateUpdateDeliveryStatusCommandHandler(),
		CreateInvoice:        c.CreateCreateInvoiceCommandHandler(),
		VerifyPayment:        c.CreateVerifyPaymentCommandHandler(),
		CheckInvoice:         c.CreateCheckInvoiceCommandHandler(),
		SendSMS:              c.CreateSendSMSCommandHandler(),
		LockerStatus:         c.CreateGetLockerStatusQueryHandler(),
		Deliveries:           c.CreateGetDeliveriesQueryHandler(),
	}
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.CreateReconcilePendingPaymentsCommandHandler(), jobs.ReconcileConfig{
		Spec:       c.cfg.ReconcileCron,
		BatchSize:  c.cfg.ReconcileBatchSize,
		InvoiceTTL: c.cfg.InvoiceTTL,
	}, c.logger)
}

// Close waits for queued SMS and releases the broker connections.
func (c *CompositionRoot) Close() error {
	c.dispatcher.Wait()

	var errs []error
	errs = append(errs, c.unlocks.Close())
	if c.stream != nil {
		errs = append(errs, c.stream.Close())
	}
	if c.limiter != nil {
		errs = append(errs, c.limiter.Close())
	}
	return errors.Join(errs...)
}

type FuncLockerUoWFactory func() commands.LockerUoW

func (f FuncLockerUoWFactory) Create() commands.LockerUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
