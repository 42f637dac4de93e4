package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/observability/metrics"
	"blogsmith/internal/usecase/notify"
)

// featuredImageContentType is sent with every media upload. The image
// downloader stores candidates as JPEG temp files.
const featuredImageContentType = "image/jpeg"

// Poster is the CMS interface for the publish workflow, implemented by the
// WordPress client.
type Poster interface {
	CreatePost(ctx context.Context, title, content, status string) (int64, error)
	UploadMedia(ctx context.Context, path, contentType string) (int64, error)
	UpdateAltText(ctx context.Context, mediaID int64, altText string) error
	SetFeaturedMedia(ctx context.Context, postID, mediaID int64) (string, error)
	UpdateContent(ctx context.Context, postID int64, content string) error
	EditLink(postID int64) string
}

// ExcerptPoster is implemented by CMS clients that accept an excerpt on
// post creation. When the content renderer is enabled and the poster
// supports it, the derived excerpt is sent with the create call.
type ExcerptPoster interface {
	CreatePostWithExcerpt(ctx context.Context, title, content, status, excerpt string) (int64, error)
}

// ImageFetcher downloads a remote image to a local temp file. The cleanup
// func removes the file and is safe to call more than once.
type ImageFetcher interface {
	Download(ctx context.Context, imageURL string) (path string, cleanup func(), err error)
}

// Service publishes posts to the CMS. Poster and Images are required;
// Renderer and Notifier are optional and disabled when nil.
type Service struct {
	Poster   Poster
	Images   ImageFetcher
	Renderer *ContentRenderer
	Notifier notify.Service
}

// Publish creates the post and, when the request carries a featured image
// URL, runs the image workflow: download, upload, alt text, attach, credit.
// The post exists once CreatePost returns, so image steps degrade the
// result but never fail the call. Each attempted step is recorded in the
// result's StepResults.
func (s *Service) Publish(ctx context.Context, req entity.PublishRequest) (entity.PublishedPost, error) {
	if err := req.Validate(); err != nil {
		return entity.PublishedPost{}, err
	}

	requestID := uuid.New().String()

	content, excerpt := req.Content, ""
	if s.Renderer != nil {
		content, excerpt = s.Renderer.Render(req.Content)
	}

	postID, err := s.createPost(ctx, req, content, excerpt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return entity.PublishedPost{}, err
		}
		slog.ErrorContext(ctx, "Post creation failed",
			slog.String("request_id", requestID),
			slog.String("title", req.Title),
			slog.String("status", req.Status),
			slog.String("error", err.Error()))
		return entity.PublishedPost{}, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	slog.InfoContext(ctx, "Post created",
		slog.String("request_id", requestID),
		slog.Int64("post_id", postID),
		slog.String("status", req.Status),
		slog.Bool("has_image", req.HasImage()))
	metrics.RecordPostPublished(req.Status)

	post := entity.PublishedPost{PostID: postID, ImageStatus: entity.ImageNone}
	if req.HasImage() {
		s.attachImage(ctx, requestID, &post, req)
	}

	// The post exists; a client disconnect must not lose the notification.
	s.announce(context.WithoutCancel(ctx), requestID, req.Title, postID)

	return post, nil
}

// createPost sends the create call, including the excerpt when the poster
// supports it.
func (s *Service) createPost(ctx context.Context, req entity.PublishRequest, content, excerpt string) (int64, error) {
	if ep, ok := s.Poster.(ExcerptPoster); ok && excerpt != "" {
		return ep.CreatePostWithExcerpt(ctx, req.Title, content, req.Status, excerpt)
	}
	return s.Poster.CreatePost(ctx, req.Title, content, req.Status)
}

// attachImage runs the featured-image workflow and updates post in place.
// The status starts at ImageFailed and is promoted to ImageAttached once
// the attach step succeeds; the credit step cannot demote it.
func (s *Service) attachImage(ctx context.Context, requestID string, post *entity.PublishedPost, req entity.PublishRequest) {
	post.ImageStatus = entity.ImageFailed

	path, cleanup, err := s.Images.Download(ctx, req.FeaturedImageURL)
	s.recordStep(ctx, requestID, post, entity.StepDownload, err)
	if err != nil {
		return
	}
	defer cleanup()

	mediaID, err := s.Poster.UploadMedia(ctx, path, featuredImageContentType)
	s.recordStep(ctx, requestID, post, entity.StepUpload, err)
	if err != nil {
		return
	}

	// Alt text is cosmetic; a failure here never blocks the attach.
	s.recordStep(ctx, requestID, post, entity.StepAltText,
		s.Poster.UpdateAltText(ctx, mediaID, altText(req)))

	rendered, err := s.Poster.SetFeaturedMedia(ctx, post.PostID, mediaID)
	s.recordStep(ctx, requestID, post, entity.StepAttach, err)
	if err != nil {
		return
	}

	post.ImageStatus = entity.ImageAttached
	post.FeaturedImageURL = req.FeaturedImageURL

	s.recordStep(ctx, requestID, post, entity.StepCredit,
		s.Poster.UpdateContent(ctx, post.PostID, rendered+creditHTML(req.PhotographerLink, req.PhotographerName)))
}

// recordStep appends the step outcome to the result, logs failures, and
// feeds the image step metrics.
func (s *Service) recordStep(ctx context.Context, requestID string, post *entity.PublishedPost, step entity.ImageStep, err error) {
	if err != nil {
		slog.ErrorContext(ctx, "Featured image step failed",
			slog.String("request_id", requestID),
			slog.Int64("post_id", post.PostID),
			slog.String("step", string(step)),
			slog.String("error", err.Error()))
		post.Steps = append(post.Steps, entity.StepResult{Step: step, Status: entity.StepFailed, Reason: err.Error()})
		metrics.RecordPublishImageStep(string(step), false)
		return
	}
	post.Steps = append(post.Steps, entity.StepResult{Step: step, Status: entity.StepSuccess})
	metrics.RecordPublishImageStep(string(step), true)
}

// announce dispatches the review notification when a notifier is wired.
func (s *Service) announce(ctx context.Context, requestID, title string, postID int64) {
	if s.Notifier == nil {
		return
	}
	review := &entity.DraftReview{
		Title:    title,
		PostID:   postID,
		EditLink: s.Poster.EditLink(postID),
	}
	// The notify service handles goroutines internally, no need for go func() here.
	if err := s.Notifier.NotifyDraftReady(ctx, review); err != nil {
		slog.Warn("Failed to dispatch review notification",
			slog.String("request_id", requestID),
			slog.Int64("post_id", postID),
			slog.Any("error", err))
	}
}

// altText builds the media alt text: "<image URL> by <photographer>", or
// just the URL when no photographer name was supplied.
func altText(req entity.PublishRequest) string {
	if req.PhotographerName != "" {
		return fmt.Sprintf("%s by %s", req.FeaturedImageURL, req.PhotographerName)
	}
	return req.FeaturedImageURL
}

// creditHTML renders the attribution paragraph appended to the post after
// a successful attach. The photographer fields are inserted verbatim.
func creditHTML(link, name string) string {
	return fmt.Sprintf(`<p style="font-size:small;">Photo by <a href="%s" target="_blank" rel="noopener">%s</a> on <a href="https://unsplash.com" target="_blank" rel="noopener">Unsplash</a>.</p>`, link, name)
}
