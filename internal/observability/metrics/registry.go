// Package metrics provides centralized Prometheus metrics for the content
// pipeline. HTTP-level metrics live with the HTTP middleware; this package
// owns the business counters recorded by the usecase layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Content pipeline metrics track generation, photo lookup, and publishing
var (
	// PipelineRequestsTotal counts generation operations by stage and result
	PipelineRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_requests_total",
			Help: "Total number of content generation operations",
		},
		[]string{"operation", "status"},
	)

	// PipelineStepDuration measures time per generation operation
	PipelineStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_step_duration_seconds",
			Help:    "Time taken per content generation operation",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"operation"},
	)

	// PhotoLookupsTotal counts featured photo lookups by result
	PhotoLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_lookups_total",
			Help: "Total number of featured photo lookups",
		},
		[]string{"status"},
	)

	// PublishImageStepsTotal counts featured-image workflow steps by result
	PublishImageStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_image_steps_total",
			Help: "Total number of featured image workflow steps",
		},
		[]string{"step", "status"},
	)

	// PostsPublishedTotal counts posts created on the CMS by requested status
	PostsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_published_total",
			Help: "Total number of posts created on the CMS",
		},
		[]string{"status"},
	)
)
