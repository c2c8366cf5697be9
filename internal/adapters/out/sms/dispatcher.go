// Package sms delivers text messages to recipients. The Dispatcher rate
// limits every recipient, sends through a provider transport and keeps an
// audit record of each attempt.
package sms

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/ports"
	"parcellocker/internal/metrics"
	"parcellocker/internal/pkg/errs"

	"github.com/pkg/errors"
)

const (
	DefaultLimit  = 10
	DefaultWindow = time.Hour

	keyPrefix   = "sms:"
	sendTimeout = 15 * time.Second
)

// DispatcherConfig sets the per-recipient quota.
type DispatcherConfig struct {
	Limit  int64
	Window time.Duration
}

// Dispatcher implements ports.Notifier.
type Dispatcher struct {
	transport ports.SMSTransport
	limiter   ports.RateLimiter
	audit     ports.SMSLogRepository
	cfg       DispatcherConfig
	logger    *slog.Logger
	now       func() time.Time

	wg sync.WaitGroup
}

func NewDispatcher(
	transport ports.SMSTransport,
	limiter ports.RateLimiter,
	audit ports.SMSLogRepository,
	cfg DispatcherConfig,
	logger *slog.Logger,
) *Dispatcher {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Dispatcher{
		transport: transport,
		limiter:   limiter,
		audit:     audit,
		cfg:       cfg,
		logger:    logger.With("component", "sms-dispatcher"),
		now:       time.Now,
	}
}

// Notify sends in the background. The message outlives the caller's
// request, so only the values of ctx are kept, not its cancellation.
func (d *Dispatcher) Notify(ctx context.Context, to kernel.PhoneNumber, text string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()

		if err := d.Send(sendCtx, to, text); err != nil {
			d.logger.WarnContext(sendCtx, "notification not delivered", "to", to.String(), "error", err)
		}
	}()
}

// Wait blocks until every message scheduled by Notify was handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) Send(ctx context.Context, to kernel.PhoneNumber, text string) error {
	if err := to.Validate(); err != nil {
		return err
	}

	key := keyPrefix + to.String()
	allowed, _, err := d.limiter.Allow(ctx, key, d.cfg.Limit, d.cfg.Window)
	switch {
	case err != nil:
		// Limiter outage does not silence pickup codes.
		d.logger.WarnContext(ctx, "rate limiter unavailable, sending anyway", "error", err)
	case !allowed:
		metrics.SMSMessagesTotal.WithLabelValues("rate_limited").Inc()
		d.record(ctx, to, text, ports.SMSResult{Status: ports.SMSStatusRateLimited}, nil)
		return errs.NewRateLimitedError(key, d.cfg.Limit, d.cfg.Window)
	}

	result, err := d.transport.Send(ctx, to, text)
	if err != nil {
		metrics.SMSMessagesTotal.WithLabelValues("failed").Inc()
		d.record(ctx, to, text, ports.SMSResult{Status: ports.SMSStatusFailed}, err)
		return errs.NewExternalServiceError("sms", err)
	}

	metrics.SMSMessagesTotal.WithLabelValues("sent").Inc()
	d.record(ctx, to, text, result, nil)
	return nil
}

func (d *Dispatcher) record(ctx context.Context, to kernel.PhoneNumber, text string, result ports.SMSResult, sendErr error) {
	entry := ports.SMSLogEntry{
		ID:         kernel.NewUUID(),
		Phone:      to.String(),
		Text:       text,
		Status:     result.Status,
		ProviderID: result.ProviderID,
		CreatedAt:  d.now(),
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	if entry.Status == "" {
		entry.Status = "sent"
	}
	if err := d.audit.Record(ctx, entry); err != nil {
		d.logger.ErrorContext(ctx, "sms audit record failed", "to", entry.Phone, "error", err)
	}
}

// SMSHistory counts past send attempts of a recipient.
type SMSHistory interface {
	CountSince(ctx context.Context, phone string, since time.Time) (int64, error)
}

// HistoryLimiter is a ports.RateLimiter over the audit log. It stands in for
// the Redis limiter when no Redis is configured and is only approximate
// under concurrent sends to the same recipient.
type HistoryLimiter struct {
	history SMSHistory
	now     func() time.Time
}

func NewHistoryLimiter(history SMSHistory) *HistoryLimiter {
	return &HistoryLimiter{history: history, now: time.Now}
}

var errForeignKey = errors.New("history limiter only understands sms keys")

func (l *HistoryLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	phone, ok := strings.CutPrefix(key, keyPrefix)
	if !ok || phone == "" {
		return false, 0, errForeignKey
	}
	count, err := l.history.CountSince(ctx, phone, l.now().Add(-window))
	if err != nil {
		return false, 0, errors.Wrap(err, "sms history count")
	}
	count++
	return count <= limit, count, nil
}
