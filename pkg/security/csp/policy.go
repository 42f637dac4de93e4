// Package csp builds Content-Security-Policy header values.
//
// The API server serves two very different surfaces: JSON pipeline
// endpoints, which should carry the strictest possible policy, and the
// Swagger UI, which needs inline scripts and CDN assets to render at all.
// The builder here produces both from one vocabulary.
package csp

import "strings"

// renderOrder fixes the order directives appear in the header so the
// output is stable regardless of the order setters were called in.
var renderOrder = []string{
	"default-src",
	"script-src",
	"style-src",
	"img-src",
	"font-src",
	"connect-src",
	"frame-ancestors",
	"form-action",
	"base-uri",
	"object-src",
	"report-uri",
}

// CSPBuilder accumulates CSP directives and renders them as a header value.
//
//	policy := NewCSPBuilder().
//	    DefaultSrc("'self'").
//	    ScriptSrc("'self'", "https://cdn.example.com").
//	    Build()
//	// "default-src 'self'; script-src 'self' https://cdn.example.com"
//
// Not safe for concurrent use; build policies once at startup and share
// the resulting strings.
type CSPBuilder struct {
	directives map[string][]string
	reportOnly bool
}

// NewCSPBuilder returns an empty builder.
func NewCSPBuilder() *CSPBuilder {
	return &CSPBuilder{directives: make(map[string][]string)}
}

// set replaces the source list for a directive. Calling a setter twice
// overwrites, it does not append.
func (b *CSPBuilder) set(directive string, sources []string) *CSPBuilder {
	b.directives[directive] = sources
	return b
}

// DefaultSrc sets default-src, the fallback for fetch directives that are
// not set explicitly.
func (b *CSPBuilder) DefaultSrc(sources ...string) *CSPBuilder {
	return b.set("default-src", sources)
}

// ScriptSrc sets script-src. The main XSS lever: keep this as tight as the
// page allows.
func (b *CSPBuilder) ScriptSrc(sources ...string) *CSPBuilder {
	return b.set("script-src", sources)
}

// StyleSrc sets style-src.
func (b *CSPBuilder) StyleSrc(sources ...string) *CSPBuilder {
	return b.set("style-src", sources)
}

// ImgSrc sets img-src.
func (b *CSPBuilder) ImgSrc(sources ...string) *CSPBuilder {
	return b.set("img-src", sources)
}

// FontSrc sets font-src.
func (b *CSPBuilder) FontSrc(sources ...string) *CSPBuilder {
	return b.set("font-src", sources)
}

// ConnectSrc sets connect-src, governing fetch/XHR/WebSocket targets.
func (b *CSPBuilder) ConnectSrc(sources ...string) *CSPBuilder {
	return b.set("connect-src", sources)
}

// FrameAncestors sets frame-ancestors, the anti-clickjacking directive.
// "'none'" is the right value for everything this server renders.
func (b *CSPBuilder) FrameAncestors(sources ...string) *CSPBuilder {
	return b.set("frame-ancestors", sources)
}

// FormAction sets form-action.
func (b *CSPBuilder) FormAction(sources ...string) *CSPBuilder {
	return b.set("form-action", sources)
}

// BaseUri sets base-uri, pinning what a <base> element may point at.
func (b *CSPBuilder) BaseUri(sources ...string) *CSPBuilder {
	return b.set("base-uri", sources)
}

// ObjectSrc sets object-src.
func (b *CSPBuilder) ObjectSrc(sources ...string) *CSPBuilder {
	return b.set("object-src", sources)
}

// ReportUri sets report-uri. Deprecated in CSP Level 3 in favor of
// report-to, but still the form browsers reliably honor.
func (b *CSPBuilder) ReportUri(uri string) *CSPBuilder {
	return b.set("report-uri", []string{uri})
}

// ReportOnly switches the policy to report-only mode, where violations are
// reported but not enforced. Useful for trialing a tighter policy against
// real editor traffic before flipping it on.
func (b *CSPBuilder) ReportOnly(enabled bool) *CSPBuilder {
	b.reportOnly = enabled
	return b
}

// Build renders the header value. Directives appear in renderOrder;
// directives with no sources are dropped, and an empty builder renders "".
func (b *CSPBuilder) Build() string {
	var sb strings.Builder
	for _, directive := range renderOrder {
		sources := b.directives[directive]
		if len(sources) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(directive)
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(sources, " "))
	}
	return sb.String()
}

// HeaderName returns the header the policy should be sent under:
// Content-Security-Policy-Report-Only in report-only mode,
// Content-Security-Policy otherwise.
func (b *CSPBuilder) HeaderName() string {
	if b.reportOnly {
		return "Content-Security-Policy-Report-Only"
	}
	return "Content-Security-Policy"
}

// SwaggerUIPolicy returns the policy served under /swagger/. Swagger UI
// needs inline scripts and styles, jsdelivr assets, data: images, and
// blob: connections for spec loading, so this is as tight as that page
// can go without breaking.
func SwaggerUIPolicy() *CSPBuilder {
	return NewCSPBuilder().
		DefaultSrc("'self'").
		ScriptSrc("'self'", "'unsafe-inline'", "https://cdn.jsdelivr.net").
		StyleSrc("'self'", "'unsafe-inline'", "https://cdn.jsdelivr.net").
		ImgSrc("'self'", "data:", "https:").
		FontSrc("'self'", "data:").
		ConnectSrc("'self'", "blob:").
		FrameAncestors("'none'").
		BaseUri("'self'").
		FormAction("'self'").
		ObjectSrc("'none'")
}

// StrictPolicy returns the policy for JSON endpoints. Nothing under
// /api/v1/ renders HTML, so everything except same-origin connections is
// denied outright.
func StrictPolicy() *CSPBuilder {
	return NewCSPBuilder().
		DefaultSrc("'none'").
		ConnectSrc("'self'").
		FrameAncestors("'none'").
		BaseUri("'self'").
		FormAction("'self'")
}

// RelaxedPolicy returns a permissive policy for local development, where
// editor tooling pulls from arbitrary HTTPS origins. Not for production.
func RelaxedPolicy() *CSPBuilder {
	return NewCSPBuilder().
		DefaultSrc("'self'").
		ScriptSrc("'self'", "'unsafe-inline'", "'unsafe-eval'", "https:").
		StyleSrc("'self'", "'unsafe-inline'", "https:").
		ImgSrc("'self'", "data:", "https:").
		FontSrc("'self'", "data:", "https:").
		ConnectSrc("'self'", "https:").
		FrameAncestors("'self'").
		BaseUri("'self'").
		FormAction("'self'")
}
