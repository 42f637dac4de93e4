package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

/* ───────── Prompt Construction Tests ───────── */

func TestIdeasPrompt(t *testing.T) {
	prompt := ideasPrompt("travel")

	assert.Contains(t, prompt, `"travel"`)
	assert.Contains(t, prompt, "exactly 3")
	assert.Contains(t, prompt, "numbered list")
}

func TestSelectPrompt(t *testing.T) {
	ideas := []string{
		"The Beginner's Guide to Travel",
		"10 Common Travel Mistakes",
		"Why Travel Matters",
	}

	prompt := selectPrompt(ideas)

	// Every candidate appears with its position number
	assert.Contains(t, prompt, "1. The Beginner's Guide to Travel")
	assert.Contains(t, prompt, "2. 10 Common Travel Mistakes")
	assert.Contains(t, prompt, "3. Why Travel Matters")
	assert.Contains(t, prompt, "chosen idea text only")
}

func TestOutlinePrompt_WordTargets(t *testing.T) {
	tests := []struct {
		name       string
		lengthType string
		wantWords  string
	}{
		{"short maps to 500", "short", "500"},
		{"medium maps to 1000", "medium", "1000"},
		{"long maps to 2000", "long", "2000"},
		{"unknown falls back to medium", "novella", "1000"},
		{"empty falls back to medium", "", "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := outlinePrompt("A travel idea", tt.lengthType)

			assert.Contains(t, prompt, tt.wantWords+" words")
			assert.Contains(t, prompt, "A travel idea")
		})
	}
}

func TestArticlePrompt(t *testing.T) {
	outline := "1. Introduction\n2. Main Points\n3. Conclusion"
	style := "Professional, engaging, and informative"

	prompt := articlePrompt(outline, style, "long")

	assert.Contains(t, prompt, outline)
	assert.Contains(t, prompt, style)
	assert.Contains(t, prompt, "2000 words")
}

func TestSystemPrompt_AllTasks(t *testing.T) {
	tasks := []GenerationTask{TaskIdeas, TaskSelect, TaskOutline, TaskArticle}

	seen := map[string]bool{}
	for _, task := range tasks {
		p := systemPrompt(task)
		assert.NotEmpty(t, p, "task %s has no system prompt", task)
		assert.False(t, seen[p], "task %s reuses another task's system prompt", task)
		seen[p] = true
	}

	// Unknown tasks still get a usable instruction
	assert.NotEmpty(t, systemPrompt(GenerationTask("unknown")))
}

/* ───────── Prompt Truncation Tests ───────── */

func TestTruncatePrompt(t *testing.T) {
	const maxPromptChars = 12000

	tests := []struct {
		name        string
		inputLength int
		wantLength  int
	}{
		{"short prompt unchanged", 100, 100},
		{"exactly at limit", maxPromptChars, maxPromptChars},
		{"over limit truncated", maxPromptChars + 5000, maxPromptChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := strings.Repeat("a", tt.inputLength)

			got := truncatePrompt("test-request-id", TaskArticle, input)

			assert.Len(t, got, tt.wantLength)
		})
	}
}
