package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	verificationRunsTotal      *prometheus.CounterVec
	verificationStepSeconds    *prometheus.HistogramVec
	verificationStepFailsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the API and the
// verification pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terra_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terra_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terra_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		verificationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terra_verification_runs_total",
			Help: "Completed verification pipelines by outcome (pass, review, reject, failed).",
		}, []string{"outcome"})

		verificationStepSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terra_verification_step_seconds",
			Help:    "Duration distribution of individual verification steps.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		}, []string{"step"})

		verificationStepFailsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "terra_verification_step_failures_total",
			Help: "Verification step failures by step name.",
		}, []string{"step"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			verificationRunsTotal,
			verificationStepSeconds,
			verificationStepFailsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// VerificationRuns exposes the counter for completed pipelines by outcome.
func VerificationRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return verificationRunsTotal
}

// VerificationStepDuration exposes the per-step duration histogram.
func VerificationStepDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return verificationStepSeconds
}

// VerificationStepFailures exposes the per-step failure counter.
func VerificationStepFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return verificationStepFailsTotal
}
