package metrics_test

import (
	"testing"

	"parcellocker/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegister_IsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.Register()
		metrics.Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(metrics.PaymentsSettledTotal)
	metrics.PaymentsSettledTotal.Inc()
	assert.InDelta(t, before+1, testutil.ToFloat64(metrics.PaymentsSettledTotal), 0.0001)

	metrics.SMSMessagesTotal.WithLabelValues("sent").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.SMSMessagesTotal.WithLabelValues("sent")), 1.0)
}
