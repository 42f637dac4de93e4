// Package generator provides the AI text-generation providers behind the
// content pipeline.
package generator

import (
	"context"
	"fmt"

	"blogsmith/internal/domain/entity"
)

// NoOp is a generator that returns deterministic canned text without calling
// any external API. This is useful for testing and development when real
// generation is not needed.
type NoOp struct{}

// NewNoOp creates a new NoOp generator.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// GenerateIdeas returns three fixed ideas built from the genre, formatted
// as the numbered list the pipeline expects.
func (n *NoOp) GenerateIdeas(_ context.Context, genre string) (string, error) {
	return fmt.Sprintf(
		"1. The Beginner's Guide to %s\n"+
			"2. 10 Common %s Mistakes and How to Avoid Them\n"+
			"3. Why %s Matters More Than Ever",
		genre, genre, genre), nil
}

// SelectIdea returns the first idea. A deterministic choice keeps repeated
// runs stable.
func (n *NoOp) SelectIdea(_ context.Context, ideas []string) (string, error) {
	if len(ideas) == 0 {
		return "", fmt.Errorf("no ideas to select from")
	}
	return ideas[0], nil
}

// GenerateOutline returns a fixed three-section outline for the idea.
func (n *NoOp) GenerateOutline(_ context.Context, idea, lengthType string) (string, error) {
	return fmt.Sprintf(
		"Outline for: %s\n"+
			"1. Introduction\n"+
			"2. Main Points\n"+
			"3. Conclusion\n"+
			"Target: about %d words",
		idea, entity.WordTarget(lengthType)), nil
}

// GenerateArticle returns the outline wrapped in a short deterministic body.
func (n *NoOp) GenerateArticle(_ context.Context, outline, writingStyle, lengthType string) (string, error) {
	return fmt.Sprintf(
		"This draft was produced by the no-op generator in a %s tone, aiming for about %d words.\n\n%s",
		writingStyle, entity.WordTarget(lengthType), outline), nil
}
