package workflow

import "github.com/prometheus/client_golang/prometheus"

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tunelab",
			Subsystem: "workflow",
			Name:      "submissions_total",
			Help:      "Submissions by outcome (success or failure kind)",
		},
		[]string{"outcome"},
	)

	uploadsReusedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tunelab",
			Subsystem: "workflow",
			Name:      "uploads_reused_total",
			Help:      "Submissions that reused an already uploaded dataset",
		},
	)

	inFlightGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tunelab",
			Subsystem: "workflow",
			Name:      "submission_in_flight",
			Help:      "1 while a submission is running",
		},
	)
)

func init() {
	prometheus.MustRegister(submissionsTotal, uploadsReusedTotal, inFlightGauge)
}

func recordOutcome(err error) {
	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "unknown"
		}
	}
	submissionsTotal.WithLabelValues(outcome).Inc()
}
