// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package metrics provides Prometheus instrumentation for the ingest path,
// the anomaly refresh cycle and the brief synthesis cascade. Metrics are
// exposed at /metrics in Prometheus text format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsIngested counts events accepted through the ingest API.
	EventsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meridian_events_ingested_total",
			Help: "Total number of events accepted by the ingest API",
		},
	)

	// EventsRejected counts events that failed schema validation.
	EventsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meridian_events_rejected_total",
			Help: "Total number of events rejected by schema validation",
		},
	)

	// AnomalySignals tracks the signal count from the latest detection run.
	AnomalySignals = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meridian_anomaly_signals",
			Help: "Anomaly signals in the latest detection run, by tier",
		},
		[]string{"tier"}, // "elevated", "significant", "critical"
	)

	// DetectionDuration observes how long one detection run takes.
	DetectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meridian_detection_duration_seconds",
			Help:    "Duration of anomaly detection runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CascadeAttempts counts provider attempts by classified outcome.
	CascadeAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_brief_attempts_total",
			Help: "Total brief cascade provider attempts by outcome",
		},
		[]string{"outcome"}, // "success", "retryable", "fatal", "empty"
	)

	// BriefsGenerated counts finished briefs by provenance.
	BriefsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_briefs_total",
			Help: "Total briefs produced, by provenance",
		},
		[]string{"provenance"}, // "ai", "local"
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
