package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coliving",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result (hit or miss)",
		},
		[]string{"cache", "result"},
	)

	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coliving",
			Subsystem: "cache",
			Name:      "refresh_total",
			Help:      "Backing fetches by outcome",
		},
		[]string{"cache", "status"},
	)

	refreshShared = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coliving",
			Subsystem: "cache",
			Name:      "refresh_shared_total",
			Help:      "Refresh callers that joined an in-flight fetch",
		},
		[]string{"cache"},
	)

	refreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coliving",
			Subsystem: "cache",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of backing fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"cache"},
	)
)
