package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"blogsmith/internal/resilience/circuitbreaker"
	"blogsmith/internal/resilience/retry"
	"blogsmith/internal/utils/text"
)

// defaultOpenAIModel is the chat model used when GENERATOR_MODEL is not set.
const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig holds configuration parameters for the OpenAI provider.
// Configuration is loaded from environment variables with fallback to defaults.
type OpenAIConfig struct {
	// Model is the OpenAI API model identifier used for all pipeline tasks.
	// Loaded from GENERATOR_MODEL environment variable.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	// Loaded from GENERATOR_MAX_TOKENS environment variable.
	// Valid range: 256-8192 tokens. Default: 4096.
	MaxTokens int

	// Temperature controls output randomness. Higher values produce more
	// varied ideas; generation tasks share one setting.
	Temperature float32

	// Timeout is the maximum duration for a single generation API call.
	Timeout time.Duration
}

// GetModel implements ProviderConfig interface.
// Returns the configured chat model identifier.
func (c *OpenAIConfig) GetModel() string {
	return c.Model
}

// Validate implements ProviderConfig interface.
// Validates the configuration and returns an error if invalid.
func (c *OpenAIConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	// Validate token budget using shared helper
	if err := ValidateMaxTokens(c.MaxTokens); err != nil {
		return fmt.Errorf("invalid max tokens: %w", err)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	return nil
}

// LoadOpenAIConfig loads configuration from environment variables.
// Invalid GENERATOR_MAX_TOKENS values fall back to the default (4096) with
// a warning log. Returns an error if the assembled configuration is invalid.
//
// Environment variables:
//   - GENERATOR_MODEL: Chat model identifier (default: gpt-4o-mini)
//   - GENERATOR_MAX_TOKENS: Response token budget (default: 4096, range: 256-8192)
func LoadOpenAIConfig() (*OpenAIConfig, error) {
	config := &OpenAIConfig{
		Model:       defaultOpenAIModel,
		MaxTokens:   loadMaxTokensFromEnv(),
		Temperature: 0.7,
		Timeout:     defaultCallTimeout,
	}

	if envModel := os.Getenv("GENERATOR_MODEL"); envModel != "" {
		config.Model = envModel
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid openai generator config: %w", err)
	}

	return config, nil
}

// OpenAI implements the pipeline generation tasks using OpenAI's chat
// completions API. It includes circuit breaker and retry logic for improved
// reliability, with comprehensive observability through structured logging
// and Prometheus metrics.
type OpenAI struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          *OpenAIConfig
	metricsRecorder GenerationMetricsRecorder
}

// NewOpenAI creates a new OpenAI provider with the given API key and
// validated configuration. It automatically configures circuit breaker,
// retry logic, and metrics recording.
func NewOpenAI(apiKey string, config *OpenAIConfig) *OpenAI {
	slog.Info("Initialized OpenAI generator with configuration",
		slog.String("model", config.Model),
		slog.Int("max_tokens", config.MaxTokens))

	return &OpenAI{
		client:          openai.NewClient(apiKey),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:     retry.AIAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusGenerationMetrics(),
	}
}

// Breaker returns the provider's circuit breaker for health reporting.
func (o *OpenAI) Breaker() *circuitbreaker.CircuitBreaker {
	return o.circuitBreaker
}

// GenerateIdeas produces raw idea text for a genre. The caller parses the
// numbered list into individual ideas.
func (o *OpenAI) GenerateIdeas(ctx context.Context, genre string) (string, error) {
	return o.generate(ctx, TaskIdeas, ideasPrompt(genre))
}

// SelectIdea asks the model to pick the strongest idea from the list and
// returns its text.
func (o *OpenAI) SelectIdea(ctx context.Context, ideas []string) (string, error) {
	return o.generate(ctx, TaskSelect, selectPrompt(ideas))
}

// GenerateOutline produces an outline for the idea sized to the length type.
func (o *OpenAI) GenerateOutline(ctx context.Context, idea, lengthType string) (string, error) {
	return o.generate(ctx, TaskOutline, outlinePrompt(idea, lengthType))
}

// GenerateArticle expands the outline into a full post in the requested
// style and length.
func (o *OpenAI) GenerateArticle(ctx context.Context, outline, writingStyle, lengthType string) (string, error) {
	return o.generate(ctx, TaskArticle, articlePrompt(outline, writingStyle, lengthType))
}

// generate runs one task through retry and circuit breaker layers.
func (o *OpenAI) generate(ctx context.Context, task GenerationTask, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result string

	// Wrap with retry logic
	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		// Execute through circuit breaker
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doGenerate(ctx, task, prompt)
		})

		// Handle circuit breaker open state
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("service", "openai-api"),
					slog.String("task", string(task)),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}

		result = cbResult.(string)
		return nil
	})

	if retryErr != nil {
		return "", fmt.Errorf("openai %s generation failed after retries: %w", task, retryErr)
	}

	return result, nil
}

// doGenerate performs the actual API call without retry or circuit breaker.
// It includes structured logging and metrics recording for observability.
func (o *OpenAI) doGenerate(ctx context.Context, task GenerationTask, prompt string) (string, error) {
	// Generate unique request ID for tracing
	requestID := uuid.New().String()

	prompt = truncatePrompt(requestID, task, prompt)

	slog.InfoContext(ctx, "Starting text generation",
		slog.String("request_id", requestID),
		slog.String("task", string(task)),
		slog.String("model", o.config.Model),
		slog.Int("prompt_length", text.CountRunes(prompt)))

	start := time.Now()

	resp, err := o.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: o.config.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt(task),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   o.config.MaxTokens,
			Temperature: o.config.Temperature,
		},
	)

	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Text generation failed",
			slog.String("request_id", requestID),
			slog.String("task", string(task)),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		o.metricsRecorder.RecordFailure(string(task), providerOpenAI)
		return "", fmt.Errorf("openai api error: %w", err)
	}

	// Validate response structure
	if len(resp.Choices) == 0 {
		slog.ErrorContext(ctx, "OpenAI API returned empty response",
			slog.String("request_id", requestID),
			slog.String("task", string(task)),
			slog.Duration("duration", duration))
		o.metricsRecorder.RecordFailure(string(task), providerOpenAI)
		return "", fmt.Errorf("openai api returned empty response")
	}

	output := resp.Choices[0].Message.Content
	outputLength := text.CountRunes(output)

	slog.InfoContext(ctx, "Text generation completed",
		slog.String("request_id", requestID),
		slog.String("task", string(task)),
		slog.Int("output_length", outputLength),
		slog.Int("output_words", text.CountWords(output)),
		slog.Duration("duration", duration))

	o.metricsRecorder.RecordLength(string(task), providerOpenAI, outputLength)
	o.metricsRecorder.RecordDuration(string(task), providerOpenAI, duration)
	if resp.Usage.TotalTokens > 0 {
		o.metricsRecorder.RecordTokens(string(task), providerOpenAI, resp.Usage.TotalTokens)
	}

	return output, nil
}
