package photo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/observability/metrics"
)

// Finder looks up one random photo matching a query. Implemented by the
// Unsplash client.
type Finder interface {
	RandomPhoto(ctx context.Context, query string) (entity.PhotoCandidate, error)
}

// Service provides the random photo use case.
type Service struct {
	Finder Finder
}

// RandomPhoto returns one random landscape photo matching the genre, with
// photographer attribution when the provider supplies it. The caller is
// expected to echo the candidate back in a later publish request; nothing
// is stored here.
func (s *Service) RandomPhoto(ctx context.Context, genre string) (entity.PhotoCandidate, error) {
	if strings.TrimSpace(genre) == "" {
		return entity.PhotoCandidate{}, &entity.ValidationError{Field: "genre", Message: "genre is required"}
	}

	// The server starts without an Unsplash key; only this lookup fails.
	if s.Finder == nil {
		metrics.RecordPhotoLookup(false)
		return entity.PhotoCandidate{}, fmt.Errorf("%w: photo provider not configured", ErrPhotoLookupFailed)
	}

	candidate, err := s.Finder.RandomPhoto(ctx, genre)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return entity.PhotoCandidate{}, err
		}
		metrics.RecordPhotoLookup(false)
		return entity.PhotoCandidate{}, fmt.Errorf("%w: %v", ErrPhotoLookupFailed, err)
	}

	metrics.RecordPhotoLookup(true)
	return candidate, nil
}
