package generator

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// ProviderConfig is a common interface for provider configuration.
// Both OpenAI and Claude implementations should implement this interface
// to ensure consistent validation and configuration behavior.
type ProviderConfig interface {
	// GetModel returns the model identifier used for generation calls.
	GetModel() string

	// Validate validates the configuration and returns an error if invalid.
	Validate() error
}

const (
	// minMaxTokens is the minimum allowed response token budget.
	minMaxTokens = 256

	// maxMaxTokens is the maximum allowed response token budget.
	maxMaxTokens = 8192

	// defaultMaxTokens is the response token budget used when
	// GENERATOR_MAX_TOKENS is unset or invalid.
	defaultMaxTokens = 4096

	// defaultCallTimeout bounds a single generation API call. Article
	// generation is the slowest task and sets the ceiling.
	defaultCallTimeout = 120 * time.Second
)

// Provider label values used in metrics and logs.
const (
	providerOpenAI = "openai"
	providerClaude = "claude"
)

// ValidateMaxTokens validates that the token budget is within the valid
// range (256-8192). Returns a descriptive error if the budget is out of range.
//
// Example:
//
//	err := ValidateMaxTokens(4096) // nil (valid)
//	err := ValidateMaxTokens(100)  // error: "max tokens 100 is below minimum 256"
func ValidateMaxTokens(tokens int) error {
	if tokens < minMaxTokens {
		return fmt.Errorf("max tokens %d is below minimum %d", tokens, minMaxTokens)
	}
	if tokens > maxMaxTokens {
		return fmt.Errorf("max tokens %d exceeds maximum %d", tokens, maxMaxTokens)
	}
	return nil
}

// loadMaxTokensFromEnv reads GENERATOR_MAX_TOKENS with fallback to the
// default. Invalid or out-of-range values log a warning and use the default.
func loadMaxTokensFromEnv() int {
	maxTokens := defaultMaxTokens

	if envTokens := os.Getenv("GENERATOR_MAX_TOKENS"); envTokens != "" {
		parsed, err := strconv.Atoi(envTokens)
		if err != nil {
			slog.Warn("Invalid GENERATOR_MAX_TOKENS format, using default",
				slog.String("value", envTokens),
				slog.Int("default", defaultMaxTokens),
				slog.String("error", err.Error()))
		} else if parsed < minMaxTokens || parsed > maxMaxTokens {
			slog.Warn("GENERATOR_MAX_TOKENS out of valid range, using default",
				slog.Int("value", parsed),
				slog.Int("min", minMaxTokens),
				slog.Int("max", maxMaxTokens),
				slog.Int("default", defaultMaxTokens))
		} else {
			maxTokens = parsed
		}
	}

	return maxTokens
}

// truncatePrompt bounds a prompt before it is sent to a provider. Outline
// and article prompts embed prior stage output which can grow without limit.
func truncatePrompt(requestID string, task GenerationTask, prompt string) string {
	const maxPromptChars = 12000
	if len(prompt) <= maxPromptChars {
		return prompt
	}

	slog.Warn("prompt truncated for generation api",
		slog.String("request_id", requestID),
		slog.String("task", string(task)),
		slog.Int("original_length", len(prompt)),
		slog.Int("truncated_length", maxPromptChars))

	return prompt[:maxPromptChars]
}
