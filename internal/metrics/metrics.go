// Package metrics exposes Prometheus collectors for the wage ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wageledger"

// Rejection reasons for payments.
const (
	ReasonInvalidAmount = "invalid_amount"
	ReasonOverpayment   = "overpayment"
	ReasonNotFound      = "employee_not_found"
	ReasonOverflow      = "balance_overflow"
	ReasonStorage       = "storage"
)

// Metrics holds the ledger collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	attendanceMarked  prometheus.Counter
	paymentsApplied   prometheus.Counter
	amountAllocated   prometheus.Counter
	paymentRejections *prometheus.CounterVec
	schemaVersion     prometheus.Gauge
	migrationDuration prometheus.Histogram
}

// New registers the ledger collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		attendanceMarked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_marked_total",
			Help:      "Attendance records created.",
		}),
		paymentsApplied: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_applied_total",
			Help:      "Payments committed to the ledger.",
		}),
		amountAllocated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "amount_allocated_total",
			Help:      "Minor currency units allocated to whole attendance days.",
		}),
		paymentRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_rejections_total",
			Help:      "Payments refused, by reason.",
		}, []string{"reason"}),
		schemaVersion: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schema_version",
			Help:      "Persisted record schema version.",
		}),
		migrationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "migration_duration_seconds",
			Help:      "Time spent bringing the store to the current schema version.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) AttendanceMarked() {
	if m == nil {
		return
	}
	m.attendanceMarked.Inc()
}

func (m *Metrics) PaymentApplied(allocated int64) {
	if m == nil {
		return
	}
	m.paymentsApplied.Inc()
	m.amountAllocated.Add(float64(allocated))
}

func (m *Metrics) PaymentRejected(reason string) {
	if m == nil {
		return
	}
	m.paymentRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) Migrated(version int, took time.Duration) {
	if m == nil {
		return
	}
	m.schemaVersion.Set(float64(version))
	m.migrationDuration.Observe(took.Seconds())
}
