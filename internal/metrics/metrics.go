// Package metrics exposes Prometheus instrumentation for warp callers. The
// kernel in pkg/warp stays pure; the API and CLI record around it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SelectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warp_topk_selections_total",
		Help: "Top-k selections by resolved backend",
	}, []string{"backend"})

	SelectionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warp_topk_duration_seconds",
		Help:    "Top-k selection latency",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	}, []string{"backend"})

	CandidatesIn = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "warp_candidates_in",
		Help:    "Candidate set size before warping",
		Buckets: []float64{16, 256, 4096, 32768, 131072, 262144},
	})

	CandidatesOut = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "warp_candidates_out",
		Help:    "Candidate set size after warping",
		Buckets: []float64{1, 8, 40, 100, 1000, 10000},
	})

	SamplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warp_samples_total",
		Help: "Tokens drawn by the sampler",
	})

	RequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warp_api_request_errors_total",
		Help: "Rejected API requests by route",
	}, []string{"route"})
)

// ObserveSelection records one top-k call.
func ObserveSelection(backend string, in, out int, elapsed time.Duration) {
	SelectionsTotal.WithLabelValues(backend).Inc()
	SelectionDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
	CandidatesIn.Observe(float64(in))
	CandidatesOut.Observe(float64(out))
}

// ObserveWarp records a warper chain run without a specific backend.
func ObserveWarp(in, out int) {
	CandidatesIn.Observe(float64(in))
	CandidatesOut.Observe(float64(out))
}
