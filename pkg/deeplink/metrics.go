package deeplink

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "deeplink"

	outcomeSuccess  = "success"
	outcomeNotReady = "not_ready"
	outcomeBlocked  = "blocked"
	outcomeGaveUp   = "gave_up"
)

// Metrics records reconciliation activity. A nil *Metrics is a no-op.
type Metrics struct {
	reconciliations *prometheus.CounterVec
	presentCalls    prometheus.Counter
	dismissCalls    *prometheus.CounterVec
	retries         *prometheus.CounterVec
	pendingRoute    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		reconciliations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "reconciliations_total",
				Help:      "Reconciliation attempts by outcome",
			},
			[]string{"outcome"},
		),
		presentCalls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "present_calls_total",
				Help:      "Present calls issued to nodes during build-up",
			},
		),
		dismissCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "dismiss_calls_total",
				Help:      "Dismiss calls issued to nodes during tear-down",
			},
			[]string{"handled"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "deferred_retries_total",
				Help:      "Retries of the deferred route by outcome",
			},
			[]string{"outcome"},
		),
		pendingRoute: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "pending_route",
				Help:      "1 while a deferred route is waiting for retry",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.reconciliations, m.presentCalls, m.dismissCalls, m.retries, m.pendingRoute} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) reconciled(outcome string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) presentCall() {
	if m == nil {
		return
	}
	m.presentCalls.Inc()
}

func (m *Metrics) dismissCall(handled bool) {
	if m == nil {
		return
	}
	m.dismissCalls.WithLabelValues(strconv.FormatBool(handled)).Inc()
}

func (m *Metrics) retried(outcome string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) setPending(pending bool) {
	if m == nil {
		return
	}
	if pending {
		m.pendingRoute.Set(1)
		return
	}
	m.pendingRoute.Set(0)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case IsNotReady(err):
		return outcomeNotReady
	case IsBlocked(err):
		return outcomeBlocked
	default:
		return outcomeGaveUp
	}
}
