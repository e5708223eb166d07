package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viralreels_jobs_processed_total",
		Help: "Total number of render jobs processed",
	}, []string{"status"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "viralreels_job_duration_seconds",
		Help:    "End-to-end duration of render jobs in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"status"})
)
