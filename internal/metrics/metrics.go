// Package metrics exposes Prometheus counters for scheduled deliveries and commands,
// plus correlation id helpers for log lines.
package metrics

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	Ticks            prometheus.Counter
	Deliveries       *prometheus.CounterVec
	DeliveriesSkip   *prometheus.CounterVec
	Commands         *prometheus.CounterVec
	StoreErrors      *prometheus.CounterVec
	DeliveryDuration prometheus.Observer
	BreakerState     prometheus.Gauge
)

// Init registers metrics with the default registry. It is idempotent.
func Init() {
	once.Do(func() {
		Ticks = promauto.NewCounter(prometheus.CounterOpts{
			Name: "quotebot_ticks_total",
			Help: "Number of scheduler ticks evaluated",
		})
		Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quotebot_deliveries_total",
			Help: "Scheduled quote deliveries by result",
		}, []string{"result"})
		DeliveriesSkip = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quotebot_deliveries_skipped_total",
			Help: "Matching chats skipped during a tick by reason",
		}, []string{"reason"})
		Commands = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quotebot_commands_total",
			Help: "Commands handled by name",
		}, []string{"command"})
		StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quotebot_store_errors_total",
			Help: "Preference store failures by operation",
		}, []string{"op"})
		DeliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "quotebot_delivery_duration_seconds",
			Help:    "Duration of a single scheduled delivery",
			Buckets: prometheus.DefBuckets,
		})
		BreakerState = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "quotebot_delivery_breaker_state",
			Help: "Delivery circuit breaker state: 0 closed, 1 half-open, 2 open",
		})
	})
}

// IncTick counts one scheduler tick.
func IncTick() {
	if Ticks != nil {
		Ticks.Inc()
	}
}

// IncDelivery counts a delivery outcome, "sent" or "failed".
func IncDelivery(result string) {
	if Deliveries != nil {
		Deliveries.WithLabelValues(result).Inc()
	}
}

// IncSkipped counts a matching chat that was not delivered.
func IncSkipped(reason string) {
	if DeliveriesSkip != nil {
		DeliveriesSkip.WithLabelValues(reason).Inc()
	}
}

// IncCommand counts a handled command.
func IncCommand(name string) {
	if Commands != nil {
		Commands.WithLabelValues(name).Inc()
	}
}

// IncStoreError counts a failed store operation.
func IncStoreError(op string) {
	if StoreErrors != nil {
		StoreErrors.WithLabelValues(op).Inc()
	}
}

// ObserveDelivery records how long a delivery took, in seconds.
func ObserveDelivery(seconds float64) {
	if DeliveryDuration != nil {
		DeliveryDuration.Observe(seconds)
	}
}

// SetBreakerState records the delivery breaker state.
func SetBreakerState(state int) {
	if BreakerState != nil {
		BreakerState.Set(float64(state))
	}
}

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns ctx carrying a fresh correlation id, and the id.
func WithCorrelation(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, corrKey, id), id
}

// Correlation returns the correlation id carried by ctx, or "".
func Correlation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}
