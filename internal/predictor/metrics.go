package predictor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noshow_predictions_total",
		Help: "Total number of predictions served, by risk tier.",
	}, []string{"tier"})
	predictionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noshow_predictions_failed_total",
		Help: "Total number of failed predictions, by reason.",
	}, []string{"reason"})
	mirrorFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noshow_log_mirror_failed_total",
		Help: "Total number of records a mirror sink failed to accept.",
	}, []string{"sink"})
	predictDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "noshow_predict_duration_seconds",
		Help:    "Duration of a full predict request including log append.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
	})
)
