package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expirytrack_notification_runs_total",
			Help: "Total daily notification runs by result.",
		},
		[]string{"result"},
	)
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expirytrack_notifications_total",
			Help: "Notification candidates by outcome.",
		},
		[]string{"status"},
	)
	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "expirytrack_notification_run_duration_seconds",
			Help:    "Duration of daily notification runs.",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)
)
