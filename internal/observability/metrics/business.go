package metrics

import (
	"time"
)

// RecordPipelineRequest records the result of a content generation operation.
// Operation identifies the stage: "ideas", "select", "outline", or "article".
// Status is either "success" or "failure".
func RecordPipelineRequest(operation string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	PipelineRequestsTotal.WithLabelValues(operation, status).Inc()
}

// RecordPipelineDuration records the time taken by a content generation operation.
// This helps identify performance issues with the AI provider per stage.
func RecordPipelineDuration(operation string, duration time.Duration) {
	PipelineStepDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPhotoLookup records the result of a featured photo lookup.
func RecordPhotoLookup(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	PhotoLookupsTotal.WithLabelValues(status).Inc()
}

// RecordPublishImageStep records the result of one featured-image workflow step.
// Step is one of "download", "upload", "alt_text", "attach", "credit".
func RecordPublishImageStep(step string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	PublishImageStepsTotal.WithLabelValues(step, status).Inc()
}

// RecordPostPublished records a post created on the CMS with its requested status.
func RecordPostPublished(status string) {
	PostsPublishedTotal.WithLabelValues(status).Inc()
}
