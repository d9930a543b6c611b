// Package metrics exposes Prometheus instruments for the captioning pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChunksTotal counts audio chunks by how their pipeline run ended.
	// Labels: outcome (empty/failed/duplicate/translated/degraded/panicked)
	ChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livecaption_chunks_total",
			Help: "Total number of audio chunks processed, by outcome",
		},
		[]string{"outcome"},
	)

	// ChunksRejected counts chunks refused before processing (draining, bad payload).
	ChunksRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livecaption_chunks_rejected_total",
			Help: "Total number of audio chunks rejected at submission, by reason",
		},
		[]string{"reason"},
	)

	// TranscriptionRetries counts retried transcription attempts.
	TranscriptionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livecaption_transcription_retries_total",
			Help: "Total number of transcription requests retried after a transient failure",
		},
	)

	// ChunksInFlight is the number of chunks currently being processed.
	ChunksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livecaption_chunks_in_flight",
			Help: "Number of audio chunks currently in the pipeline",
		},
	)

	// StageDuration observes how long each remote stage takes.
	// Labels: stage (transcribe/translate)
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "livecaption_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"stage"},
	)

	// EstimatedCostCents accumulates estimated provider spend.
	// Labels: service (transcription/translation)
	EstimatedCostCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livecaption_estimated_cost_cents_total",
			Help: "Estimated provider spend in US cents, by service",
		},
		[]string{"service"},
	)

	// Subscribers is the number of connected websocket subscribers.
	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "livecaption_ws_subscribers",
			Help: "Number of connected websocket subscribers",
		},
	)
)

// RecordOutcome records how a chunk's pipeline run ended.
func RecordOutcome(outcome string) {
	ChunksTotal.WithLabelValues(outcome).Inc()
}

// RecordRejected records a chunk refused at submission.
func RecordRejected(reason string) {
	ChunksRejected.WithLabelValues(reason).Inc()
}

// RecordStage records the duration of a pipeline stage in seconds.
func RecordStage(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordCost adds an estimated spend in cents for a service.
func RecordCost(service string, cents float64) {
	if cents <= 0 {
		return
	}
	EstimatedCostCents.WithLabelValues(service).Add(cents)
}
