// Package generator provides the AI text-generation providers behind the
// content pipeline. It includes adapters for Claude (Anthropic) and OpenAI
// APIs with reliability patterns, plus a deterministic no-op provider for
// development. Each provider covers the four pipeline tasks (idea
// generation, idea selection, outline generation, article writing) with
// comprehensive observability through structured logging and Prometheus
// metrics.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"blogsmith/internal/resilience/circuitbreaker"
	"blogsmith/internal/resilience/retry"
	"blogsmith/internal/utils/text"
)

// ClaudeConfig holds configuration parameters for the Claude provider.
// Configuration is loaded from environment variables with fallback to defaults.
type ClaudeConfig struct {
	// Model is the Claude API model identifier used for all pipeline tasks.
	// Loaded from GENERATOR_MODEL environment variable.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	// Loaded from GENERATOR_MAX_TOKENS environment variable.
	// Valid range: 256-8192 tokens. Default: 4096.
	MaxTokens int

	// Timeout is the maximum duration for a single generation API call.
	// Article generation is the slowest task, so this is sized for it.
	Timeout time.Duration
}

// GetModel implements ProviderConfig interface.
func (c *ClaudeConfig) GetModel() string {
	return c.Model
}

// Validate implements ProviderConfig interface.
func (c *ClaudeConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if err := ValidateMaxTokens(c.MaxTokens); err != nil {
		return fmt.Errorf("invalid max tokens: %w", err)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	return nil
}

// LoadClaudeConfig loads configuration from environment variables.
// Invalid GENERATOR_MAX_TOKENS values fall back to the default (4096)
// with a warning log.
//
// Environment variables:
//   - GENERATOR_MODEL: Claude model identifier (default: claude-sonnet-4-5)
//   - GENERATOR_MAX_TOKENS: Response token budget (default: 4096, range: 256-8192)
//
// Returns ClaudeConfig with validated settings.
func LoadClaudeConfig() ClaudeConfig {
	model := string(anthropic.ModelClaudeSonnet4_5_20250929)
	if envModel := os.Getenv("GENERATOR_MODEL"); envModel != "" {
		model = envModel
	}

	return ClaudeConfig{
		Model:     model,
		MaxTokens: loadMaxTokensFromEnv(),
		Timeout:   defaultCallTimeout,
	}
}

// Claude implements the pipeline generation tasks using Anthropic's Claude API.
// It includes circuit breaker and retry logic for improved reliability.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          ClaudeConfig
	metricsRecorder GenerationMetricsRecorder
}

// NewClaude creates a new Claude provider with the given API key.
// It automatically configures circuit breaker, retry logic, and metrics
// recording.
func NewClaude(apiKey string) *Claude {
	config := LoadClaudeConfig()

	slog.Info("Initialized Claude generator with configuration",
		slog.String("model", config.Model),
		slog.Int("max_tokens", config.MaxTokens))

	return &Claude{
		client:          anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:     retry.AIAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusGenerationMetrics(),
	}
}

// Breaker returns the provider's circuit breaker for health reporting.
func (c *Claude) Breaker() *circuitbreaker.CircuitBreaker {
	return c.circuitBreaker
}

// GenerateIdeas produces raw idea text for a genre. The caller parses the
// numbered list into individual ideas.
func (c *Claude) GenerateIdeas(ctx context.Context, genre string) (string, error) {
	return c.generate(ctx, TaskIdeas, ideasPrompt(genre))
}

// SelectIdea asks the model to pick the strongest idea from the list and
// returns its text.
func (c *Claude) SelectIdea(ctx context.Context, ideas []string) (string, error) {
	return c.generate(ctx, TaskSelect, selectPrompt(ideas))
}

// GenerateOutline produces an outline for the idea sized to the length type.
func (c *Claude) GenerateOutline(ctx context.Context, idea, lengthType string) (string, error) {
	return c.generate(ctx, TaskOutline, outlinePrompt(idea, lengthType))
}

// GenerateArticle expands the outline into a full post in the requested
// style and length.
func (c *Claude) GenerateArticle(ctx context.Context, outline, writingStyle, lengthType string) (string, error) {
	return c.generate(ctx, TaskArticle, articlePrompt(outline, writingStyle, lengthType))
}

// generate runs one task through retry and circuit breaker layers.
func (c *Claude) generate(ctx context.Context, task GenerationTask, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result string

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doGenerate(ctx, task, prompt)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("task", string(task)),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}

		result = cbResult.(string)
		return nil
	})

	if retryErr != nil {
		return "", fmt.Errorf("claude %s generation failed after retries: %w", task, retryErr)
	}

	return result, nil
}

// doGenerate performs the actual API call without retry or circuit breaker.
// It includes structured logging and metrics recording for observability.
func (c *Claude) doGenerate(ctx context.Context, task GenerationTask, prompt string) (string, error) {
	// Generate unique request ID for tracing
	requestID := uuid.New().String()

	prompt = truncatePrompt(requestID, task, prompt)

	slog.InfoContext(ctx, "Starting text generation",
		slog.String("request_id", requestID),
		slog.String("task", string(task)),
		slog.String("model", c.config.Model),
		slog.Int("prompt_length", text.CountRunes(prompt)))

	start := time.Now()

	// Call Claude API. The role instruction is prepended to the user turn.
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(systemPrompt(task) + "\n\n" + prompt),
			),
		},
	})

	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Text generation failed",
			slog.String("request_id", requestID),
			slog.String("task", string(task)),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		c.metricsRecorder.RecordFailure(string(task), providerClaude)
		return "", fmt.Errorf("claude api error: %w", err)
	}

	// Validate response structure
	if len(message.Content) == 0 {
		slog.ErrorContext(ctx, "Claude API returned empty response",
			slog.String("request_id", requestID),
			slog.String("task", string(task)),
			slog.Duration("duration", duration))
		c.metricsRecorder.RecordFailure(string(task), providerClaude)
		return "", fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		slog.ErrorContext(ctx, "Claude API returned unexpected response type",
			slog.String("request_id", requestID),
			slog.String("task", string(task)),
			slog.Duration("duration", duration))
		c.metricsRecorder.RecordFailure(string(task), providerClaude)
		return "", fmt.Errorf("claude api returned unexpected response type")
	}

	output := textBlock.Text
	outputLength := text.CountRunes(output)

	slog.InfoContext(ctx, "Text generation completed",
		slog.String("request_id", requestID),
		slog.String("task", string(task)),
		slog.Int("output_length", outputLength),
		slog.Int("output_words", text.CountWords(output)),
		slog.Duration("duration", duration))

	c.metricsRecorder.RecordLength(string(task), providerClaude, outputLength)
	c.metricsRecorder.RecordDuration(string(task), providerClaude, duration)
	if tokens := message.Usage.InputTokens + message.Usage.OutputTokens; tokens > 0 {
		c.metricsRecorder.RecordTokens(string(task), providerClaude, int(tokens))
	}

	return output, nil
}
