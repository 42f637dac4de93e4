package generator

import (
	"fmt"
	"strings"

	"blogsmith/internal/domain/entity"
)

// GenerationTask identifies one stage of the content pipeline. Task names
// appear as metric labels and log fields.
type GenerationTask string

const (
	TaskIdeas   GenerationTask = "ideas"
	TaskSelect  GenerationTask = "select"
	TaskOutline GenerationTask = "outline"
	TaskArticle GenerationTask = "article"
)

// systemPrompt returns the role instruction for a task.
func systemPrompt(task GenerationTask) string {
	switch task {
	case TaskIdeas:
		return "You are an SEO content strategist who proposes blog post ideas with strong search intent."
	case TaskSelect:
		return "You are an editorial reviewer who picks the single strongest blog post idea from a list."
	case TaskOutline:
		return "You are a content planner who writes SEO-optimized blog post outlines."
	case TaskArticle:
		return "You are a professional blog writer."
	default:
		return "You are a helpful writing assistant."
	}
}

// ideasPrompt asks for exactly three SEO-optimized post ideas as a numbered
// list so the pipeline can split them back into individual ideas.
func ideasPrompt(genre string) string {
	return fmt.Sprintf(
		"Generate exactly 3 SEO-optimized blog post ideas for the genre %q. "+
			"Return them as a numbered list (1. 2. 3.), one idea per line, "+
			"with no introduction or closing commentary.",
		genre)
}

// selectPrompt asks the model to pick the best idea and answer with the
// chosen idea text only.
func selectPrompt(ideas []string) string {
	var b strings.Builder
	b.WriteString("Pick the single best blog post idea from the list below, " +
		"judged by SEO potential and reader appeal. " +
		"Respond with the chosen idea text only, nothing else.\n\n")
	for i, idea := range ideas {
		fmt.Fprintf(&b, "%d. %s\n", i+1, idea)
	}
	return b.String()
}

// outlinePrompt asks for an outline sized to the length type's word target.
func outlinePrompt(idea, lengthType string) string {
	return fmt.Sprintf(
		"Write an SEO-optimized outline for a blog post on the idea below. "+
			"The finished post will be about %d words, so size the sections accordingly. "+
			"Use short headings with a one-line description each.\n\nIdea: %s",
		entity.WordTarget(lengthType), idea)
}

// articlePrompt asks for the complete post in the requested style and length.
func articlePrompt(outline, writingStyle, lengthType string) string {
	return fmt.Sprintf(
		"Write a complete blog post following the outline below. "+
			"Writing style: %s. Target length: about %d words. "+
			"Return the post body only, without a preamble.\n\nOutline:\n%s",
		writingStyle, entity.WordTarget(lengthType), outline)
}
