package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Prediction metrics
	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productivity_predictions_total",
			Help: "Total number of predictions",
		},
		[]string{"flow", "status"}, // flow: quick|calendar, status: success|error|skipped
	)

	PredictionScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productivity_prediction_score",
			Help:    "Distribution of clipped productivity scores",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
		[]string{"flow"},
	)

	// Store metrics
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productivity_store_operations_total",
			Help: "Total number of record store operations",
		},
		[]string{"operation", "status"}, // operation: load|append|delete
	)

	StoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productivity_store_duration_seconds",
			Help:    "Record store operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productivity_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		Predictions,
		PredictionScore,
		StoreOperations,
		StoreDuration,
		HTTPRequests,
	)
}

// RecordPrediction records the outcome of one prediction
func RecordPrediction(flow, status string, score float64) {
	Predictions.WithLabelValues(flow, status).Inc()
	if status == "success" {
		PredictionScore.WithLabelValues(flow).Observe(score)
	}
}

// RecordStoreOperation records a store call and its duration
func RecordStoreOperation(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreOperations.WithLabelValues(operation, status).Inc()
	StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}
