package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics of the parcel locker service
var (
	DeliveriesStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parcellocker_deliveries_started_total",
			Help: "Total number of deliveries placed into a locker",
		},
	)

	PickupsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parcellocker_pickups_completed_total",
			Help: "Total number of parcels released to recipients",
		},
	)

	InvoicesCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parcellocker_invoices_created_total",
			Help: "Total number of invoices issued by the payment gateway",
		},
	)

	PaymentsSettledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parcellocker_payments_settled_total",
			Help: "Total number of payments moved to PAID",
		},
	)

	DuplicateSettlementsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parcellocker_duplicate_settlements_total",
			Help: "Total number of settlement attempts that found the payment already PAID",
		},
	)

	PaymentsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "parcellocker_payments_expired_total",
			Help: "Total number of unpaid invoices marked FAILED after their time to live",
		},
	)

	SMSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parcellocker_sms_messages_total",
			Help: "Total number of SMS send attempts by outcome",
		},
		[]string{"outcome"},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parcellocker_gateway_request_duration_seconds",
			Help:    "Duration of payment gateway requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

var registerOnce sync.Once

// Register registers all Prometheus metrics with the default registerer.
// Calling it more than once is a no-op.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(DeliveriesStartedTotal)
		prometheus.MustRegister(PickupsCompletedTotal)
		prometheus.MustRegister(InvoicesCreatedTotal)
		prometheus.MustRegister(PaymentsSettledTotal)
		prometheus.MustRegister(DuplicateSettlementsTotal)
		prometheus.MustRegister(PaymentsExpiredTotal)
		prometheus.MustRegister(SMSMessagesTotal)
		prometheus.MustRegister(GatewayRequestDuration)
	})
}
