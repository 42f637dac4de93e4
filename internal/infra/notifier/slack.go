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

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	Enabled bool

	// WebhookURL is the Incoming Webhook URL; it embeds the token, so it
	// must never be echoed into logs or error messages.
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls.
	Timeout time.Duration

	// OnRateLimitWait, when set, receives the time each send spent blocked
	// on the webhook rate limiter
	OnRateLimitWait func(wait time.Duration)
}

// SlackNotifier sends draft review notifications via Slack Incoming
// Webhook using Block Kit formatting.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewSlackNotifier builds the notifier. The local rate limiter runs at
// 1 req/s with a burst of 1, matching Slack's one-message-per-second
// webhook limit.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	rateLimiter := NewRateLimiter(1.0, 1)
	if config.OnRateLimitWait != nil {
		rateLimiter.SetWaitObserver(config.OnRateLimitWait)
	}

	return &SlackNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: rateLimiter,
	}
}

// SlackWebhookPayload is the Block Kit body posted to the webhook.
type SlackWebhookPayload struct {
	Text   string       `json:"text"` // fallback text shown in notifications
	Blocks []SlackBlock `json:"blocks"`
}

// SlackBlock is one Block Kit block ("section" or "context" here).
type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

// SlackTextObject is a Block Kit text object.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"`
}

// Block Kit limits.
const (
	maxSectionTextLength = 3000
	maxContextTextLength = 2000
	maxFallbackLength    = 150

	slackTruncationSuffix = "..."
)

// buildBlockKitPayload renders a review as a section block (title
// linked to the CMS edit screen plus the call to action) followed by a
// context block (post ID, genre when known, timestamp). Each piece is
// truncated to its Block Kit limit.
func (s *SlackNotifier) buildBlockKitPayload(review *entity.DraftReview) SlackWebhookPayload {
	fallbackText := fmt.Sprintf("%s: %s", reviewCallToAction, review.Title)
	if len(fallbackText) > maxFallbackLength {
		fallbackText = fallbackText[:maxFallbackLength-len(slackTruncationSuffix)] + slackTruncationSuffix
	}

	// *<edit link|title>*\n\nNew draft ready for review
	titleText := fmt.Sprintf("*%s*", review.Title)
	if review.EditLink != "" {
		titleText = fmt.Sprintf("*<%s|%s>*", review.EditLink, review.Title)
	}
	sectionText := truncateText(fmt.Sprintf("%s\n\n%s", titleText, reviewCallToAction), maxSectionTextLength, slackTruncationSuffix)

	contextText := fmt.Sprintf("Post ID %d • %s", review.PostID, time.Now().UTC().Format(time.RFC3339))
	if review.Genre != "" {
		contextText = fmt.Sprintf("Post ID %d • %s • %s", review.PostID, review.Genre, time.Now().UTC().Format(time.RFC3339))
	}
	contextText = truncateText(contextText, maxContextTextLength, slackTruncationSuffix)

	return SlackWebhookPayload{
		Text: fallbackText,
		Blocks: []SlackBlock{
			{
				Type: "section",
				Text: &SlackTextObject{
					Type: "mrkdwn",
					Text: sectionText,
				},
			},
			{
				Type: "context",
				Elements: []SlackTextObject{
					{
						Type: "mrkdwn",
						Text: contextText,
					},
				},
			},
		},
	}
}

// sendWebhookRequest posts one Block Kit payload and classifies the
// outcome into the shared error taxonomy (RateLimitError, ClientError,
// ServerError).
func (s *SlackNotifier) sendWebhookRequest(ctx context.Context, review *entity.DraftReview) error {
	return postJSONWebhook(ctx, s.httpClient, s.config.WebhookURL, s.buildBlockKitPayload(review), "Slack")
}

// sendWebhookRequestWithRetry applies the shared webhook retry policy
// to Slack sends.
func (s *SlackNotifier) sendWebhookRequestWithRetry(ctx context.Context, review *entity.DraftReview) error {
	return sendWebhookWithRetry(ctx, "Slack", review, func(ctx context.Context) error {
		return s.sendWebhookRequest(ctx, review)
	})
}

// NotifyDraft implements Notifier: tag the context with a fresh request
// ID, wait on the local rate limiter, then send with retries.
func (s *SlackNotifier) NotifyDraft(ctx context.Context, review *entity.DraftReview) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("Starting Slack notification",
		slog.String("request_id", requestID),
		slog.Int64("post_id", review.PostID),
		slog.String("title", review.Title))

	if err := s.rateLimiter.Allow(ctx); err != nil {
		slog.Error("Rate limiter error",
			slog.String("request_id", requestID),
			slog.Int64("post_id", review.PostID),
			slog.Any("error", err))
		return fmt.Errorf("rate limiter error: %w", err)
	}

	return s.sendWebhookRequestWithRetry(ctx, review)
}
