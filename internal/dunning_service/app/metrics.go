package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dunningEvaluationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dunning",
			Name:      "evaluations_total",
			Help:      "Total number of per-customer dunning evaluations.",
		},
		[]string{"status"}, // SUCCESS, FAILED, SKIPPED
	)

	dunningEscalationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dunning",
			Name:      "escalations_total",
			Help:      "Total number of status escalations applied.",
		},
		[]string{"action"}, // NOTIFY, THROTTLE, BAR_OUTGOING, DEACTIVATE
	)

	dunningBatchDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dunning",
			Name:      "batch_duration_seconds",
			Help:      "Duration of batch dunning runs.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	notificationsSentCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dunning",
			Name:      "notifications_sent_total",
			Help:      "Total number of notification dispatch attempts.",
		},
		[]string{"channel", "status"}, // channel=SMS|EMAIL|APP, status=sent|failed
	)

	curingActionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "curing",
			Name:      "actions_total",
			Help:      "Total number of curing evaluations.",
		},
		[]string{"outcome"}, // restored, partial, noop, failed
	)
)
