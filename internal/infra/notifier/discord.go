package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"blogsmith/internal/domain/entity"

	"github.com/google/uuid"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	Enabled bool

	// WebhookURL includes the authentication token, so it must never be
	// echoed into logs or error messages.
	WebhookURL string

	// Timeout is the HTTP request timeout for Discord API calls.
	Timeout time.Duration

	// OnRateLimitWait, when set, receives the time each send spent blocked
	// on the webhook rate limiter
	OnRateLimitWait func(wait time.Duration)
}

// DiscordNotifier sends draft review notifications via Discord webhook.
type DiscordNotifier struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewDiscordNotifier builds the notifier. The local rate limiter runs
// at 0.5 req/s with a burst of 3, under Discord's webhook limit of 30
// requests per minute.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	rateLimiter := NewRateLimiter(0.5, 3)
	if config.OnRateLimitWait != nil {
		rateLimiter.SetWaitObserver(config.OnRateLimitWait)
	}

	return &DiscordNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: rateLimiter,
	}
}

// DiscordWebhookPayload is the JSON body posted to the webhook.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed is one embed message.
type DiscordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	URL         string             `json:"url,omitempty"`
	Color       int                `json:"color"`
	Footer      DiscordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp"`
}

type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	// Discord embed limits
	maxTitleLength       = 256
	maxDescriptionLength = 4096
	truncationSuffix     = "..."

	// Discord blue (#5865F2)
	discordBlueColor = 5793266
)

// reviewCallToAction is the lead line of every review notification.
const reviewCallToAction = "New draft ready for review"

// buildEmbedPayload renders a review as a single Discord-blue embed:
// post title (linked to the CMS edit screen when available), the call
// to action plus genre, and the post ID in the footer.
func (d *DiscordNotifier) buildEmbedPayload(review *entity.DraftReview) DiscordWebhookPayload {
	title := review.Title
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}

	description := reviewCallToAction
	if review.Genre != "" {
		description = fmt.Sprintf("%s\nGenre: %s", reviewCallToAction, review.Genre)
	}
	description = truncateText(description, maxDescriptionLength, truncationSuffix)

	embed := DiscordEmbed{
		Title:       title,
		Description: description,
		URL:         review.EditLink,
		Color:       discordBlueColor,
		Footer: DiscordEmbedFooter{
			Text: fmt.Sprintf("Post ID %d", review.PostID),
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return DiscordWebhookPayload{
		Embeds: []DiscordEmbed{embed},
	}
}

// sendWebhookRequest posts one embed payload and classifies the outcome
// into the shared error taxonomy (RateLimitError, ClientError,
// ServerError).
func (d *DiscordNotifier) sendWebhookRequest(ctx context.Context, review *entity.DraftReview) error {
	return postJSONWebhook(ctx, d.httpClient, d.config.WebhookURL, d.buildEmbedPayload(review), "Discord")
}

// sendWebhookRequestWithRetry applies the shared webhook retry policy
// to Discord sends.
func (d *DiscordNotifier) sendWebhookRequestWithRetry(ctx context.Context, review *entity.DraftReview) error {
	return sendWebhookWithRetry(ctx, "Discord", review, func(ctx context.Context) error {
		return d.sendWebhookRequest(ctx, review)
	})
}

// NotifyDraft implements Notifier: tag the context with a fresh request
// ID, wait on the local rate limiter, then send with retries.
func (d *DiscordNotifier) NotifyDraft(ctx context.Context, review *entity.DraftReview) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("Starting Discord notification",
		slog.String("request_id", requestID),
		slog.Int64("post_id", review.PostID),
		slog.String("title", review.Title))

	if err := d.rateLimiter.Allow(ctx); err != nil {
		slog.Error("Rate limiter error",
			slog.String("request_id", requestID),
			slog.Int64("post_id", review.PostID),
			slog.Any("error", err))
		return fmt.Errorf("rate limiter error: %w", err)
	}

	return d.sendWebhookRequestWithRetry(ctx, review)
}
