package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderCallsTotal tracks provider invocations per capability
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castforge_provider_calls_total",
			Help: "Total number of provider invocations",
		},
		[]string{"capability", "provider"},
	)

	// ProviderErrorsTotal tracks classified provider failures
	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castforge_provider_errors_total",
			Help: "Total number of classified provider failures",
		},
		[]string{"capability", "provider", "code"},
	)

	// RetriesTotal tracks retry attempts beyond the first
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castforge_retries_total",
			Help: "Total number of retry attempts",
		},
		[]string{"capability"},
	)

	// FallbacksTotal tracks calls served by a non-preferred provider
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castforge_fallbacks_total",
			Help: "Total number of calls served by a fallback provider",
		},
		[]string{"capability"},
	)

	// SynthesisDuration tracks end-to-end synthesis latency
	SynthesisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "castforge_synthesis_duration_seconds",
			Help:    "End-to-end synthesis pipeline latency in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// SynthesisChunks tracks the chunk count per synthesis request
	SynthesisChunks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "castforge_synthesis_chunks",
			Help:    "Number of text chunks per synthesis request",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	// QueueDepth tracks pending synthesis jobs in the queue
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "castforge_queue_depth",
			Help: "Number of synthesis jobs waiting in the queue",
		},
	)

	// EpisodesTotal tracks finished episodes by terminal status
	EpisodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castforge_episodes_total",
			Help: "Total number of episodes by terminal status",
		},
		[]string{"status"},
	)
)
