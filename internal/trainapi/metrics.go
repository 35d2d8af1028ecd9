package trainapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	remoteRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tunelab",
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the training service",
		},
		[]string{"op", "status"},
	)

	remoteRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tunelab",
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Duration of training service requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op", "status"},
	)
)

func init() {
	prometheus.MustRegister(remoteRequestsTotal, remoteRequestDuration)
}

func observe(op, status string, d time.Duration) {
	remoteRequestsTotal.WithLabelValues(op, status).Inc()
	remoteRequestDuration.WithLabelValues(op, status).Observe(d.Seconds())
}
