package publish

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"blogsmith/internal/pkg/config"
)

const (
	// renderMarkdownEnv toggles Markdown rendering of publish content.
	// Disabled by default so raw HTML passes through verbatim.
	renderMarkdownEnv = "PUBLISH_RENDER_MARKDOWN"

	// excerptWordLimit is the number of plain-text words kept for the
	// post excerpt, matching the CMS default trim length.
	excerptWordLimit = 55
)

// ContentRenderer converts Markdown post content to sanitized HTML and
// derives a plain-text excerpt for the create call.
type ContentRenderer struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewContentRenderer returns a renderer with GFM Markdown and a UGC
// sanitization policy.
func NewContentRenderer() *ContentRenderer {
	return &ContentRenderer{
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// NewContentRendererFromEnv returns a renderer when PUBLISH_RENDER_MARKDOWN
// is true, nil otherwise. A nil renderer leaves publish content untouched.
func NewContentRendererFromEnv() *ContentRenderer {
	result := config.LoadEnvBool(renderMarkdownEnv, false)
	for _, warning := range result.Warnings {
		slog.Warn("Configuration fallback applied",
			slog.String("field", "RenderMarkdown"),
			slog.String("warning", warning))
	}
	if result.Value.(bool) {
		return NewContentRenderer()
	}
	return nil
}

// Render converts Markdown to sanitized HTML and derives the excerpt from
// the first words of the plain text. A conversion failure falls back to
// the raw content so a publish is never blocked by formatting.
func (r *ContentRenderer) Render(content string) (html, excerpt string) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(content), &buf); err != nil {
		slog.Warn("Markdown conversion failed, publishing content as-is",
			slog.String("error", err.Error()))
		return content, ""
	}

	safe := r.sanitizer.Sanitize(buf.String())
	return safe, excerptText(safe, excerptWordLimit)
}

// excerptText strips tags and keeps the first limit words, appending an
// ellipsis when the text was truncated.
func excerptText(html string, limit int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	words := strings.Fields(doc.Text())
	if len(words) == 0 {
		return ""
	}
	if len(words) > limit {
		return strings.Join(words[:limit], " ") + "…"
	}
	return strings.Join(words, " ")
}
