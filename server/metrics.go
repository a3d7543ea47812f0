package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProofRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_prover_proof_requests_total",
			Help: "Total number of proof generation requests by circuit type",
		},
		[]string{"circuit_type"},
	)

	ProofGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compliance_prover_proof_generation_duration_seconds",
			Help:    "Duration of proof generation in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 15),
		},
		[]string{"circuit_type"},
	)

	ProofGenerationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_prover_proof_generation_errors_total",
			Help: "Total number of proof generation errors by circuit type",
		},
		[]string{"circuit_type", "error_type"},
	)

	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_prover_verifications_total",
			Help: "Total number of verification requests by circuit type and outcome",
		},
		[]string{"circuit_type", "result"},
	)

	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_prover_jobs_processed_total",
			Help: "Total number of queued jobs processed",
		},
		[]string{"status"},
	)

	ActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "compliance_prover_active_jobs",
			Help: "Number of currently active proof generation jobs",
		},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "compliance_prover_queue_depth",
			Help: "Number of jobs waiting per queue",
		},
		[]string{"queue"},
	)
)

// observeProof records the standard metric set around one proof attempt.
func observeProof(circuitType string, start time.Time, err error) {
	ProofRequestsTotal.WithLabelValues(circuitType).Inc()
	ProofGenerationDuration.WithLabelValues(circuitType).Observe(time.Since(start).Seconds())
	if err != nil {
		ProofGenerationErrors.WithLabelValues(circuitType, errorType(err)).Inc()
	}
}
