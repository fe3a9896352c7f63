package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Generation requests
	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizgen_generations_total",
			Help: "Generation requests by mode and result",
		},
		[]string{"mode", "result"}, // result: ok|validation|service_error
	)
	GenerationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bizgen_generation_duration_seconds",
			Help:    "Duration of the model call per mode",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s..64s
		},
		[]string{"mode"},
	)

	// LLM
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizgen_llm_requests_total",
			Help: "Number of LLM requests by provider/model",
		},
		[]string{"provider", "model"},
	)

	// Documents
	DocumentsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizgen_documents_extracted_total",
			Help: "Supplementary documents processed by result",
		},
		[]string{"result"}, // result: ok|excerpted|failed
	)

	// HTTP
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizgen_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	HTTPDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bizgen_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizgen_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		Generations,
		GenerationDurationSeconds,
		LLMRequests,
		DocumentsExtracted,
		HTTPRequests,
		HTTPDurationSeconds,
		Errors,
	)
}

// Generations
func IncGeneration(mode, result string) {
	Generations.WithLabelValues(mode, result).Inc()
}

func ObserveGenerationDuration(mode string, d time.Duration) {
	GenerationDurationSeconds.WithLabelValues(mode).Observe(d.Seconds())
}

// LLM
func IncLLMRequest(provider, model string) {
	LLMRequests.WithLabelValues(provider, model).Inc()
}

// Documents
func IncDocument(result string) {
	DocumentsExtracted.WithLabelValues(result).Inc()
}

// HTTP
func ObserveHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
