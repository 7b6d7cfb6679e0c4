// Package observability provides Prometheus metrics and structured logging.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"market-sim-lab/internal/domain"
)

// Metrics holds all Prometheus metrics of a simulation process.
// It satisfies execution.Recorder and scenario.Recorder.
type Metrics struct {
	// Execution metrics
	OrdersSubmitted *prometheus.CounterVec
	OrdersFilled    *prometheus.CounterVec
	OrdersCancelled *prometheus.CounterVec
	FillErrors      *prometheus.CounterVec
	TickLatency     *prometheus.HistogramVec
	AccountBalance  prometheus.Gauge
	PendingOrders   prometheus.Gauge

	// Scenario metrics
	ScenariosApplied *prometheus.CounterVec

	// Replay metrics
	RecordsReplayed prometheus.Counter
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates metrics registered on reg. A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "market_sim"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		OrdersSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "orders_submitted_total",
			Help:      "Total number of accepted orders by symbol",
		}, []string{"symbol"}),
		OrdersFilled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "orders_filled_total",
			Help:      "Total number of filled orders by symbol",
		}, []string{"symbol"}),
		OrdersCancelled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "orders_cancelled_total",
			Help:      "Total number of cancelled orders by reason",
		}, []string{"reason"}),
		FillErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "fill_errors_total",
			Help:      "Total number of orders dropped by fill errors",
		}, []string{"symbol"}),
		TickLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "tick_processing_seconds",
			Help:      "Wall time spent processing one tick",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"symbol"}),
		AccountBalance: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "account_balance",
			Help:      "Current simulated account balance",
		}),
		PendingOrders: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "pending_orders",
			Help:      "Number of orders waiting in the latency queue",
		}),

		ScenariosApplied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "applied_total",
			Help:      "Total number of records transformed by scenario",
		}, []string{"scenario"}),

		RecordsReplayed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "records_total",
			Help:      "Total number of records replayed",
		}),
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by status",
		}, []string{"status"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "run_duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   []float64{0.01, 0.1, 1, 5, 10, 30, 60, 300},
		}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint of g.
// A nil g serves the default registry.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderSubmitted(symbol string) {
	m.OrdersSubmitted.WithLabelValues(symbol).Inc()
}

func (m *Metrics) OrderCancelled(reason domain.CancelReason) {
	m.OrdersCancelled.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) OrderFilled(symbol string) {
	m.OrdersFilled.WithLabelValues(symbol).Inc()
}

func (m *Metrics) FillError(symbol string) {
	m.FillErrors.WithLabelValues(symbol).Inc()
}

func (m *Metrics) TickProcessed(symbol string, elapsed time.Duration) {
	m.TickLatency.WithLabelValues(symbol).Observe(elapsed.Seconds())
}

func (m *Metrics) Balance(balance float64) {
	m.AccountBalance.Set(balance)
}

func (m *Metrics) QueueDepth(depth int) {
	m.PendingOrders.Set(float64(depth))
}

func (m *Metrics) ScenarioApplied(name string) {
	m.ScenariosApplied.WithLabelValues(name).Inc()
}

// RecordRun records a finished run and the number of records it replayed.
func (m *Metrics) RecordRun(status string, records int, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	m.RecordsReplayed.Add(float64(records))
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, elapsed time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(elapsed.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
