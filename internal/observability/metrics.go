// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Round metrics
	RoundsResolved  *prometheus.CounterVec
	BetsPlaced      prometheus.Counter
	CommandFailures prometheus.Counter
	CommandRetries  prometheus.Counter

	// Session state gauges
	CurrentBalance prometheus.Gauge
	CurrentBet     prometheus.Gauge
	LossStreak     prometheus.Gauge
	NetProfit      prometheus.Gauge

	// Lifecycle metrics
	SessionsStarted prometheus.Counter
	SessionsStopped *prometheus.CounterVec
	PausesTotal     *prometheus.CounterVec

	// Gateway metrics
	Reconnects     prometheus.Counter
	ResultLatency  prometheus.Histogram
	ResultTimeouts prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "coinflip_pilot"
	}

	return &Metrics{
		// Round metrics
		RoundsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "rounds_resolved_total",
			Help:      "Total number of resolved rounds by result",
		}, []string{"result"}),
		BetsPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "bets_placed_total",
			Help:      "Total number of bet commands sent",
		}),
		CommandFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "command_failures_total",
			Help:      "Total number of bet commands that never resolved",
		}),
		CommandRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "command_retries_total",
			Help:      "Total number of bet command retries after a failure",
		}),

		// Session state gauges
		CurrentBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "current_balance",
			Help:      "Current session balance",
		}),
		CurrentBet: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "current_bet",
			Help:      "Amount wagered on the pending round",
		}),
		LossStreak: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "consecutive_losses",
			Help:      "Current consecutive loss streak",
		}),
		NetProfit: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "net_profit",
			Help:      "Balance change since session start",
		}),

		// Lifecycle metrics
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "sessions_started_total",
			Help:      "Total number of sessions started",
		}),
		SessionsStopped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "sessions_stopped_total",
			Help:      "Total number of sessions stopped by reason",
		}, []string{"reason"}),
		PausesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "pauses_total",
			Help:      "Total number of pauses by reason",
		}, []string{"reason"}),

		// Gateway metrics
		Reconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "reconnects_total",
			Help:      "Total number of websocket reconnects",
		}),
		ResultLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "result_latency_seconds",
			Help:      "Time from bet command to resolved result in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ResultTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "result_timeouts_total",
			Help:      "Total number of bet commands that timed out waiting for a result",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRound updates round counters and state gauges from a resolved round.
func RecordRound(result string, balance, netProfit float64, lossStreak int) {
	DefaultMetrics.RoundsResolved.WithLabelValues(result).Inc()
	DefaultMetrics.CurrentBalance.Set(balance)
	DefaultMetrics.NetProfit.Set(netProfit)
	DefaultMetrics.LossStreak.Set(float64(lossStreak))
}

// RecordBet records a placed bet and updates the pending bet gauge.
func RecordBet(amount float64) {
	DefaultMetrics.BetsPlaced.Inc()
	DefaultMetrics.CurrentBet.Set(amount)
}

// RecordSessionStarted increments the sessions started counter.
func RecordSessionStarted() {
	DefaultMetrics.SessionsStarted.Inc()
}

// RecordSessionStopped records a session stop by reason.
func RecordSessionStopped(reason string) {
	DefaultMetrics.SessionsStopped.WithLabelValues(reason).Inc()
}

// RecordPause records a pause by reason.
func RecordPause(reason string) {
	DefaultMetrics.PausesTotal.WithLabelValues(reason).Inc()
}

// RecordCommandFailure increments the command failure counter.
func RecordCommandFailure() {
	DefaultMetrics.CommandFailures.Inc()
}

// RecordCommandRetry increments the command retry counter.
func RecordCommandRetry() {
	DefaultMetrics.CommandRetries.Inc()
}

// RecordReconnect increments the websocket reconnect counter.
func RecordReconnect() {
	DefaultMetrics.Reconnects.Inc()
}

// RecordResultLatency records time from bet command to resolved result.
func RecordResultLatency(seconds float64) {
	DefaultMetrics.ResultLatency.Observe(seconds)
}

// RecordResultTimeout increments the result timeout counter.
func RecordResultTimeout() {
	DefaultMetrics.ResultTimeouts.Inc()
}
