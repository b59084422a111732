package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	answersGradedTotal     *prometheus.CounterVec
	gradingDurationSeconds *prometheus.HistogramVec
	divergencesTotal       prometheus.Counter
	arbitrationsTotal      prometheus.Counter
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the grading pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		answersGradedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_answers_total",
			Help: "Total number of answers run through the grading pipeline.",
		}, []string{"status"})

		gradingDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grading_answer_duration_seconds",
			Help:    "Latency distribution for grading one answer end to end.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"divergent"})

		divergencesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_divergences_total",
			Help: "Number of examiner disagreements that exceeded the threshold.",
		})

		arbitrationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_arbitrations_total",
			Help: "Number of arbiter invocations.",
		})

		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests handled, by method, route and status.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request latency distribution.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_request_errors_total",
			Help: "HTTP requests that ended in a 4xx or 5xx status.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(
			answersGradedTotal, gradingDurationSeconds, divergencesTotal, arbitrationsTotal,
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
		)
	})
}

// AnswersGraded exposes the per-status counter for graded answers.
func AnswersGraded() *prometheus.CounterVec {
	RegisterMetrics()
	return answersGradedTotal
}

// GradingDuration exposes the per-answer latency histogram.
func GradingDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return gradingDurationSeconds
}

// Divergences exposes the divergence counter.
func Divergences() prometheus.Counter {
	RegisterMetrics()
	return divergencesTotal
}

// Arbitrations exposes the arbitration counter.
func Arbitrations() prometheus.Counter {
	RegisterMetrics()
	return arbitrationsTotal
}

// APIRequests exposes the per-route request counter.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the per-route latency histogram.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the per-route error counter.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}
