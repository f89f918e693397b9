package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeEnrolled     = "enrolled"
	OutcomeReplayed     = "replayed"
	OutcomeRejected     = "rejected"
	OutcomeFailed       = "failed"
	OutcomeUnauthorized = "unauthenticated"
)

var (
	Verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Number of payment verification calls by outcome",
		},
		[]string{"outcome"},
	)

	ProcessorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_processor_request_duration_seconds",
			Help:    "Latency of transaction verification calls to the payment processor",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	EarningsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrollment_earnings_recorded_total",
			Help: "Sum of verified amounts committed to the earnings summary, in major currency units",
		},
	)

	OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollment_outbox_events_total",
			Help: "Enrollment events handled by the outbox relay by result",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Verifications, ProcessorRequestDuration, EarningsRecorded, OutboxPublished)
	})
}
