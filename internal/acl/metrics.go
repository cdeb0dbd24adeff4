package acl

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records access control activity in Prometheus. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	decisions      *prometheus.CounterVec
	duration       prometheus.Histogram
	decodeFailures *prometheus.CounterVec
	cachedACIs     prometheus.Gauge
	reloads        *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace and registers them with
// reg. Collectors that are already registered are reused.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Access control decisions by operation and outcome",
			},
			[]string{"operation", "outcome"}, // outcome: "allow", "deny"
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Time spent evaluating one access check",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
		),
		decodeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_failures_total",
				Help:      "ACI values that failed to decode by message id",
			},
			[]string{"message_id"},
		),
		cachedACIs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cached_acis",
				Help:      "Number of ACIs held by the rule cache, global ACIs included",
			},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reloads_total",
				Help:      "Bootstrap ACI reloads by result",
			},
			[]string{"result"}, // "success", "failure"
		),
	}
	if reg != nil {
		m.decisions = register(reg, m.decisions)
		m.duration = register(reg, m.duration)
		m.decodeFailures = register(reg, m.decodeFailures)
		m.cachedACIs = register(reg, m.cachedACIs)
		m.reloads = register(reg, m.reloads)
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// ObserveDecision records the outcome and duration of one access check.
func (m *Metrics) ObserveDecision(op Operation, allowed bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.decisions.WithLabelValues(op.String(), outcome).Inc()
	m.duration.Observe(d.Seconds())
}

// RecordDecodeFailure counts an ACI value that failed to decode.
func (m *Metrics) RecordDecodeFailure(id MessageID) {
	if m == nil {
		return
	}
	m.decodeFailures.WithLabelValues(string(id)).Inc()
}

// SetCachedACIs reports the size of the rule cache.
func (m *Metrics) SetCachedACIs(n int) {
	if m == nil {
		return
	}
	m.cachedACIs.Set(float64(n))
}

// RecordReload counts a bootstrap reload.
func (m *Metrics) RecordReload(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.reloads.WithLabelValues(result).Inc()
}
