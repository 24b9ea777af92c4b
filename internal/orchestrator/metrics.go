package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planetsync_cycles_total",
			Help: "Number of completed update cycles by result.",
		},
		[]string{"result"},
	)
	metricDownloadError = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planetsync_download_errors_total",
			Help: "Number of errors encountered while downloading the planet artifact.",
		},
	)
	metricUpdateError = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planetsync_update_errors_total",
			Help: "Number of errors encountered while applying an update.",
		},
	)
	metricRollback = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "planetsync_rollbacks_total",
			Help: "Number of updates rolled back after a failed restart or verification.",
		},
	)
	metricLastCheck = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "planetsync_last_check_timestamp_seconds",
			Help: "Unix timestamp of the last completed change check.",
		},
	)
	metricLastUpdate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "planetsync_last_update_timestamp_seconds",
			Help: "Unix timestamp of the last successful planet update.",
		},
	)
)
