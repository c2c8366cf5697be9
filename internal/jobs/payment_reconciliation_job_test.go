package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"parcellocker/internal/core/application/usecases/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	calls   atomic.Int32
	lastCmd atomic.Value
	err     error
}

func (f *fakeReconciler) Handle(ctx context.Context, cmd commands.ReconcilePendingPaymentsCommand) (commands.ReconcileResult, error) {
	f.calls.Add(1)
	f.lastCmd.Store(cmd)
	if _, ok := ctx.Deadline(); !ok {
		return commands.ReconcileResult{}, errors.New("pass without deadline")
	}
	return commands.ReconcileResult{Checked: 2, Settled: 1}, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReconcileConfig_Defaults(t *testing.T) {
	cfg := ReconcileConfig{}.withDefaults()

	assert.Equal(t, DefaultReconcileSpec, cfg.Spec)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultInvoiceTTL, cfg.InvoiceTTL)

	custom := ReconcileConfig{Spec: "0 * * * * *", BatchSize: 5, InvoiceTTL: time.Minute}.withDefaults()
	assert.Equal(t, "0 * * * * *", custom.Spec)
	assert.Equal(t, 5, custom.BatchSize)
	assert.Equal(t, time.Minute, custom.InvoiceTTL)
}

func TestPaymentReconciliationJob_RunBuildsCommand(t *testing.T) {
	rec := &fakeReconciler{}
	job := NewPaymentReconciliationJob(rec, ReconcileConfig{BatchSize: 7, InvoiceTTL: 10 * time.Minute}, discardLogger())

	job.run()

	require.EqualValues(t, 1, rec.calls.Load())
	cmd := rec.lastCmd.Load().(commands.ReconcilePendingPaymentsCommand)
	require.NoError(t, cmd.Validate())
	assert.Equal(t, 7, cmd.BatchSize())
	assert.Equal(t, 10*time.Minute, cmd.InvoiceTTL())
}

func TestPaymentReconciliationJob_RunSurvivesHandlerError(t *testing.T) {
	rec := &fakeReconciler{err: errors.New("database is down")}
	job := NewPaymentReconciliationJob(rec, ReconcileConfig{}, discardLogger())

	assert.NotPanics(t, job.run)
	assert.EqualValues(t, 1, rec.calls.Load())
}

func TestPaymentReconciliationJob_StartRejectsBadSpec(t *testing.T) {
	job := NewPaymentReconciliationJob(&fakeReconciler{}, ReconcileConfig{Spec: "every now and then"}, discardLogger())

	assert.Error(t, job.Start())
}

func TestJobManager_StartAndStop(t *testing.T) {
	rec := &fakeReconciler{}
	jm := NewJobManager(rec, ReconcileConfig{Spec: "* * * * * *"}, discardLogger())

	require.NoError(t, jm.StartAll())
	assert.Eventually(t, func() bool { return rec.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	jm.StopAll()

	after := rec.calls.Load()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, after, rec.calls.Load())
}
