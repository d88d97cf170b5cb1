package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts payment lifecycle events. It satisfies payment.Observer.
type Metrics struct {
	paymentsCreated   prometheus.Counter
	memoCollisions    prometheus.Counter
	paymentsConfirmed *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		paymentsCreated: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "topup",
				Subsystem: "payments",
				Name:      "created_total",
				Help:      "Total pending payments created.",
			},
		),
		memoCollisions: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "topup",
				Subsystem: "payments",
				Name:      "memo_collisions_total",
				Help:      "Total memo collisions rejected by the ledger.",
			},
		),
		paymentsConfirmed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "topup",
				Subsystem: "payments",
				Name:      "confirmed_total",
				Help:      "Total confirmations partitioned by result.",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) PaymentCreated() { m.paymentsCreated.Inc() }

func (m *Metrics) MemoCollision() { m.memoCollisions.Inc() }

func (m *Metrics) PaymentConfirmed(alreadyCompleted bool) {
	result := "completed"
	if alreadyCompleted {
		result = "already_completed"
	}
	m.paymentsConfirmed.WithLabelValues(result).Inc()
}

// NewRegistry returns a registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
