package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "viralreels_pipeline_stage_duration_seconds",
		Help:    "Duration of each pipeline stage in seconds",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"stage"})

	sectionsSynthesized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viralreels_pipeline_sections_synthesized_total",
		Help: "Total number of narration sections synthesized",
	})

	slidesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viralreels_pipeline_slides_rendered_total",
		Help: "Total number of slide clips rendered",
	})
)
