package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation metrics exported to Prometheus
var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "food_recommendations_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "food_recommendation_duration_seconds",
			Help:    "Recommendation latency including dataset lookup",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	RecommendationRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "food_recommendation_rows",
			Help:    "Number of rows returned per recommendation",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
	)

	DatasetReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "food_dataset_reloads_total",
			Help: "Total number of explicit dataset reloads by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Outcome labels
const (
	OutcomeSuccess         = "success"
	OutcomeEmpty           = "empty"
	OutcomeInvalidCriteria = "invalid_criteria"
	OutcomeDataSourceError = "data_source_error"
	OutcomeError           = "error"
)
