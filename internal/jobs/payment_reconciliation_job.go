package jobs

import (
	"context"
	"log/slog"
	"time"

	"parcellocker/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

const (
	DefaultReconcileSpec = "*/30 * * * * *"
	DefaultBatchSize     = 50
	DefaultInvoiceTTL    = 30 * time.Minute

	// one pass must finish well before the next tick
	passTimeout = 25 * time.Second
)

// Reconciler runs one reconciliation pass over pending payments.
type Reconciler interface {
	Handle(ctx context.Context, command commands.ReconcilePendingPaymentsCommand) (commands.ReconcileResult, error)
}

// ReconcileConfig tunes PaymentReconciliationJob. Zero values fall back to
// the package defaults.
type ReconcileConfig struct {
	Spec       string
	BatchSize  int
	InvoiceTTL time.Duration
}

func (c ReconcileConfig) withDefaults() ReconcileConfig {
	if c.Spec == "" {
		c.Spec = DefaultReconcileSpec
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.InvoiceTTL <= 0 {
		c.InvoiceTTL = DefaultInvoiceTTL
	}
	return c
}

// PaymentReconciliationJob settles payments whose gateway callback never
// arrived and expires invoices nobody paid.
type PaymentReconciliationJob struct {
	handler Reconciler
	cfg     ReconcileConfig
	cron    *cron.Cron
	logger  *slog.Logger
}

func NewPaymentReconciliationJob(handler Reconciler, cfg ReconcileConfig, logger *slog.Logger) *PaymentReconciliationJob {
	return &PaymentReconciliationJob{
		handler: handler,
		cfg:     cfg.withDefaults(),
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger.With("component", "payment_reconciliation_job"),
	}
}

// Start schedules the job. Overlapping passes are skipped.
func (j *PaymentReconciliationJob) Start() error {
	if _, err := j.cron.AddFunc(j.cfg.Spec, j.run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Payment reconciliation job started",
		"spec", j.cfg.Spec, "batch_size", j.cfg.BatchSize, "invoice_ttl", j.cfg.InvoiceTTL)
	return nil
}

// Stop waits for a running pass to finish.
func (j *PaymentReconciliationJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Payment reconciliation job stopped")
}

func (j *PaymentReconciliationJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	cmd, err := commands.NewReconcilePendingPaymentsCommand(j.cfg.BatchSize, j.cfg.InvoiceTTL)
	if err != nil {
		j.logger.ErrorContext(ctx, "Invalid reconciliation settings", "error", err)
		return
	}

	res, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Payment reconciliation failed", "error", err)
		return
	}
	if res.Checked == 0 && res.Completed == 0 {
		return
	}
	j.logger.InfoContext(ctx, "Payment reconciliation pass",
		"checked", res.Checked, "settled", res.Settled, "expired", res.Expired,
		"completed", res.Completed, "errors", res.Errors)
}
