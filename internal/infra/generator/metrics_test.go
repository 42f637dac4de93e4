package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrometheusGenerationMetrics(t *testing.T) {
	metrics := NewPrometheusGenerationMetrics()

	require.NotNil(t, metrics)
	assert.NotNil(t, metrics.lengthHistogram)
	assert.NotNil(t, metrics.durationHistogram)
	assert.NotNil(t, metrics.failureCounter)
}

func TestNewPrometheusGenerationMetrics_Singleton(t *testing.T) {
	// Get first instance
	metrics1 := NewPrometheusGenerationMetrics()

	// Get second instance
	metrics2 := NewPrometheusGenerationMetrics()

	// Should be the same instance (singleton pattern)
	assert.Equal(t, metrics1, metrics2)
}

func TestPrometheusGenerationMetrics_Recording(t *testing.T) {
	metrics := NewPrometheusGenerationMetrics()

	tasks := []GenerationTask{TaskIdeas, TaskSelect, TaskOutline, TaskArticle}

	for _, task := range tasks {
		t.Run(string(task), func(t *testing.T) {
			// Should not panic
			assert.NotPanics(t, func() {
				metrics.RecordLength(string(task), providerOpenAI, 1200)
				metrics.RecordDuration(string(task), providerOpenAI, 2*time.Second)
				metrics.RecordTokens(string(task), providerOpenAI, 850)
				metrics.RecordFailure(string(task), providerClaude)
			})
		})
	}
}

func TestPrometheusGenerationMetrics_EdgeValues(t *testing.T) {
	metrics := NewPrometheusGenerationMetrics()

	assert.NotPanics(t, func() {
		metrics.RecordLength("ideas", providerOpenAI, 0)
		metrics.RecordDuration("ideas", providerOpenAI, 0)
		metrics.RecordLength("article", providerClaude, 100000)
	})
}
