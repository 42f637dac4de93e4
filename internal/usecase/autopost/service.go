package autopost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/usecase/publish"
)

// DefaultStatus is the post status used when the service is configured
// without one. Unattended drafts always go through editorial review.
const DefaultStatus = "draft"

// Generator runs the staged text generation calls. Implemented by the
// pipeline service.
type Generator interface {
	GenerateIdeas(ctx context.Context, genre string) ([]string, error)
	SelectIdea(ctx context.Context, ideas []string) (string, error)
	GenerateOutline(ctx context.Context, idea, lengthType string) (string, error)
	GenerateArticle(ctx context.Context, outline, writingStyle, lengthType string) (string, error)
}

// PhotoFinder picks a featured image candidate for a genre. Implemented
// by the photo service.
type PhotoFinder interface {
	RandomPhoto(ctx context.Context, query string) (entity.PhotoCandidate, error)
}

// Publisher creates the post on the CMS. Implemented by the publish
// service, which also dispatches the review notification.
type Publisher interface {
	Publish(ctx context.Context, req entity.PublishRequest) (entity.PublishedPost, error)
}

// Service drafts one post per configured genre. Generator and Publisher
// are required; Photos is optional and nil disables the featured-image
// lookup.
type Service struct {
	Generator Generator
	Photos    PhotoFinder
	Publisher Publisher

	// Genres drafted on each run, one post per genre.
	Genres []string
	// LengthType for outlines and articles; empty selects the provider's
	// medium word target.
	LengthType string
	// Status for created posts; empty falls back to DefaultStatus.
	Status string
	// MaxConcurrent caps the number of genre pipelines running at once.
	// Values below 1 are treated as 1.
	MaxConcurrent int
}

// RunStats contains statistics about one autopost run.
type RunStats struct {
	Genres             int
	Drafted            int64
	PhotoFailures      int64
	GenerationFailures int64
	PublishFailures    int64
	Duration           time.Duration
}

// Draft is the outcome of one genre pipeline.
type Draft struct {
	Genre string
	// Title is the selected idea the post was written from.
	Title string
	Post  entity.PublishedPost
	// PhotoFailed reports that a featured image was wanted but the draft
	// went out without one, because the lookup or the attach failed.
	PhotoFailed bool
}

// Run drafts one post per configured genre, with genres running
// concurrently up to MaxConcurrent. A failed genre is logged and counted
// and the run continues with the remaining genres; only context
// cancellation aborts the whole run. The returned stats are valid even
// when err is non-nil.
func (s *Service) Run(ctx context.Context) (*RunStats, error) {
	logger := slog.Default()
	start := time.Now()
	stats := &RunStats{Genres: len(s.Genres)}

	if len(s.Genres) == 0 {
		return stats, ErrNoGenres
	}

	parallelism := s.MaxConcurrent
	if parallelism < 1 {
		parallelism = 1
	}
	sem := make(chan struct{}, parallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	for _, genre := range s.Genres {
		g := genre
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			return s.runGenre(egCtx, g, stats)
		})
	}

	if err := eg.Wait(); err != nil {
		stats.Duration = time.Since(start)
		return stats, err
	}

	stats.Duration = time.Since(start)
	logger.Info("autopost run completed",
		slog.Int("genres", stats.Genres),
		slog.Int64("drafted", atomic.LoadInt64(&stats.Drafted)),
		slog.Int64("photo_failures", atomic.LoadInt64(&stats.PhotoFailures)),
		slog.Int64("generation_failures", atomic.LoadInt64(&stats.GenerationFailures)),
		slog.Int64("publish_failures", atomic.LoadInt64(&stats.PublishFailures)),
		slog.Duration("duration", stats.Duration),
	)

	return stats, nil
}

// runGenre drafts a single genre and updates the run stats atomically.
// Failures are counted and swallowed so one genre cannot abort the run;
// context cancellation propagates to stop the errgroup.
func (s *Service) runGenre(ctx context.Context, genre string, stats *RunStats) error {
	draft, err := s.DraftGenre(ctx, genre)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if errors.Is(err, publish.ErrPublishFailed) {
			atomic.AddInt64(&stats.PublishFailures, 1)
		} else {
			atomic.AddInt64(&stats.GenerationFailures, 1)
		}
		slog.Warn("genre draft failed, continuing with remaining genres",
			slog.String("genre", genre),
			slog.Any("error", err))
		return nil
	}

	atomic.AddInt64(&stats.Drafted, 1)
	if draft.PhotoFailed {
		atomic.AddInt64(&stats.PhotoFailures, 1)
	}
	return nil
}

// DraftGenre runs the staged pipeline for one genre: ideas, selection,
// outline, article, then the best-effort photo lookup and the publish
// call. The selected idea becomes the post title. Photo failures never
// fail the draft; the post goes out without an image instead.
func (s *Service) DraftGenre(ctx context.Context, genre string) (Draft, error) {
	start := time.Now()

	ideas, err := s.Generator.GenerateIdeas(ctx, genre)
	if err != nil {
		return Draft{Genre: genre}, fmt.Errorf("generate ideas: %w", err)
	}
	idea, err := s.Generator.SelectIdea(ctx, ideas)
	if err != nil {
		return Draft{Genre: genre}, fmt.Errorf("select idea: %w", err)
	}
	outline, err := s.Generator.GenerateOutline(ctx, idea, s.LengthType)
	if err != nil {
		return Draft{Genre: genre}, fmt.Errorf("generate outline: %w", err)
	}
	article, err := s.Generator.GenerateArticle(ctx, outline, "", s.LengthType)
	if err != nil {
		return Draft{Genre: genre}, fmt.Errorf("generate article: %w", err)
	}

	req := entity.PublishRequest{
		Title:   idea,
		Content: article,
		Status:  s.status(),
	}
	photoFailed := s.lookupPhoto(ctx, genre, &req)

	post, err := s.Publisher.Publish(ctx, req)
	if err != nil {
		return Draft{Genre: genre}, fmt.Errorf("publish draft: %w", err)
	}
	if post.ImageStatus == entity.ImageFailed {
		photoFailed = true
	}

	slog.Info("genre draft created",
		slog.String("genre", genre),
		slog.Int64("post_id", post.PostID),
		slog.String("status", req.Status),
		slog.String("image_status", string(post.ImageStatus)),
		slog.Duration("duration", time.Since(start)))

	return Draft{Genre: genre, Title: idea, Post: post, PhotoFailed: photoFailed}, nil
}

// status returns the configured post status or the draft default.
func (s *Service) status() string {
	if s.Status != "" {
		return s.Status
	}
	return DefaultStatus
}

// lookupPhoto fills in the featured-image fields when a photo finder is
// wired. A failed lookup leaves the request imageless and reports true;
// cancellation is left for the publish call to surface.
func (s *Service) lookupPhoto(ctx context.Context, genre string, req *entity.PublishRequest) bool {
	if s.Photos == nil {
		return false
	}
	candidate, err := s.Photos.RandomPhoto(ctx, genre)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		slog.Warn("photo lookup failed, drafting without image",
			slog.String("genre", genre),
			slog.Any("error", err))
		return true
	}
	req.FeaturedImageURL = candidate.ImageURL
	req.PhotographerName = candidate.PhotographerName
	req.PhotographerLink = candidate.PhotographerLink
	return false
}
