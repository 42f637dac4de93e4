package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogsmith/internal/domain/entity"
	"blogsmith/internal/observability/metrics"
)

// DefaultWritingStyle is applied when an article request leaves the
// writing style empty.
const DefaultWritingStyle = "Professional, engaging, and informative"

// TextGenerator is the provider interface for the four generation tasks.
// Implemented by the generator infrastructure (OpenAI, Claude, NoOp).
type TextGenerator interface {
	GenerateIdeas(ctx context.Context, genre string) (string, error)
	SelectIdea(ctx context.Context, ideas []string) (string, error)
	GenerateOutline(ctx context.Context, idea, lengthType string) (string, error)
	GenerateArticle(ctx context.Context, outline, writingStyle, lengthType string) (string, error)
}

// Service provides the staged blog generation use cases.
// It handles input validation and idea-list parsing and delegates the
// actual text generation to the provider.
type Service struct {
	Generator TextGenerator
}

// GenerateIdeas asks the provider for blog post ideas in the given genre
// and parses the raw output into one idea per element. List markers are
// stripped so callers always see bare idea text.
func (s *Service) GenerateIdeas(ctx context.Context, genre string) ([]string, error) {
	if strings.TrimSpace(genre) == "" {
		return nil, &entity.ValidationError{Field: "genre", Message: "genre is required"}
	}

	start := time.Now()
	raw, err := s.Generator.GenerateIdeas(ctx, genre)
	observe("ideas", start, err)
	if err != nil {
		return nil, wrapGenerationError(err)
	}

	ideas := parseIdeas(raw)
	if len(ideas) == 0 {
		return nil, fmt.Errorf("%w: provider returned no usable ideas", ErrGenerationFailed)
	}
	return ideas, nil
}

// SelectIdea asks the provider to pick the most promising idea from the
// list. A single-element list short-circuits without a provider call.
func (s *Service) SelectIdea(ctx context.Context, ideas []string) (string, error) {
	cleaned := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		if trimmed := strings.TrimSpace(idea); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return "", &entity.ValidationError{Field: "ideas", Message: "at least one idea is required"}
	}
	if len(cleaned) == 1 {
		return cleaned[0], nil
	}

	start := time.Now()
	selected, err := s.Generator.SelectIdea(ctx, cleaned)
	observe("select", start, err)
	if err != nil {
		return "", wrapGenerationError(err)
	}
	return strings.TrimSpace(selected), nil
}

// GenerateOutline produces a structured outline for the idea. The length
// type is passed through to the provider, which maps unknown values to the
// medium word target.
func (s *Service) GenerateOutline(ctx context.Context, idea, lengthType string) (string, error) {
	if strings.TrimSpace(idea) == "" {
		return "", &entity.ValidationError{Field: "idea", Message: "idea is required"}
	}

	start := time.Now()
	outline, err := s.Generator.GenerateOutline(ctx, idea, lengthType)
	observe("outline", start, err)
	if err != nil {
		return "", wrapGenerationError(err)
	}
	return outline, nil
}

// GenerateArticle writes the full post from an outline. An empty writing
// style falls back to DefaultWritingStyle.
func (s *Service) GenerateArticle(ctx context.Context, outline, writingStyle, lengthType string) (string, error) {
	if strings.TrimSpace(outline) == "" {
		return "", &entity.ValidationError{Field: "outline", Message: "outline is required"}
	}
	if strings.TrimSpace(writingStyle) == "" {
		writingStyle = DefaultWritingStyle
	}

	start := time.Now()
	article, err := s.Generator.GenerateArticle(ctx, outline, writingStyle, lengthType)
	observe("article", start, err)
	if err != nil {
		return "", wrapGenerationError(err)
	}
	return article, nil
}

// observe feeds the pipeline metrics for one provider call. Canceled calls
// are not recorded; the caller passes the error through unchanged.
func observe(operation string, start time.Time, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	metrics.RecordPipelineRequest(operation, err == nil)
	metrics.RecordPipelineDuration(operation, time.Since(start))
}

// wrapGenerationError folds a provider failure into ErrGenerationFailed.
// Cancellation is passed through unchanged so callers can tell a client
// disconnect from an upstream failure.
func wrapGenerationError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrGenerationFailed, err)
}

// parseIdeas splits raw provider output into individual idea lines,
// dropping blanks and stripping numbered-list and bullet markers.
func parseIdeas(raw string) []string {
	var ideas []string
	for _, line := range strings.Split(raw, "\n") {
		if idea := stripListMarker(strings.TrimSpace(line)); idea != "" {
			ideas = append(ideas, idea)
		}
	}
	return ideas
}

// stripListMarker removes a leading "1." / "1)" numbering or a bullet
// marker from an idea line. A line that is nothing but a marker strips
// to empty so parseIdeas drops it instead of treating it as an idea.
func stripListMarker(line string) string {
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits < len(line) && (line[digits] == '.' || line[digits] == ')') {
		return strings.TrimSpace(line[digits+1:])
	}
	for _, marker := range []string{"-", "*", "•"} {
		rest, ok := strings.CutPrefix(line, marker)
		if ok && (rest == "" || rest[0] == ' ') {
			return strings.TrimSpace(rest)
		}
	}
	return line
}
