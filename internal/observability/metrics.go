// Package observability exposes prometheus collectors for calculations and
// external estimator calls.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "footprint"

var (
	estimationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "estimations_total",
		Help:      "Per-record estimations by category, method and outcome.",
	}, []string{"category", "method", "outcome"})

	externalDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "external",
		Name:      "call_duration_seconds",
		Help:      "Latency of external estimator calls, per attempt.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	externalRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "external",
		Name:      "retries_total",
		Help:      "External estimator calls retried after a transport failure.",
	})

	calculationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "calculations_total",
		Help:      "Completed calculations, labelled partial when any record failed.",
	}, []string{"result"})

	lastTotalGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "last_total_kg",
		Help:      "Total kg CO2e of the most recent calculation.",
	})
)

func init() {
	prometheus.MustRegister(estimationsCounter, externalDuration, externalRetries, calculationsCounter, lastTotalGauge)
}

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
)

// RecordEstimation counts one record. outcome is OutcomeOK, OutcomeSkipped
// or a failure kind name.
func RecordEstimation(category, method, outcome string) {
	estimationsCounter.WithLabelValues(category, method, outcome).Inc()
}

// ObserveExternalCall records the latency of one external attempt.
func ObserveExternalCall(d time.Duration, outcome string) {
	externalDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordRetry counts one retried external attempt.
func RecordRetry() {
	externalRetries.Inc()
}

// RecordCalculation counts a finished calculation and tracks its total.
func RecordCalculation(totalKg float64, partial bool) {
	result := "complete"
	if partial {
		result = "partial"
	}
	calculationsCounter.WithLabelValues(result).Inc()
	lastTotalGauge.Set(totalKg)
}
