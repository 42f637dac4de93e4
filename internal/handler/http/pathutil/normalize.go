package pathutil

import (
	"strings"
)

// knownPaths is the fixed route surface of the API.
// Keep in sync with the route registration in cmd/api.
var knownPaths = map[string]struct{}{
	"/":                 {},
	"/health":           {},
	"/health/pipeline":  {},
	"/ready":            {},
	"/live":             {},
	"/metrics":          {},
	"/auth/token":       {},
	"/generate_ideas":   {},
	"/select_idea":      {},
	"/generate_outline": {},
	"/generate_blog":    {},
	"/get_random_image": {},
	"/publish":          {},
}

// SwaggerPath is the label value shared by every Swagger UI asset
// (/swagger/index.html, /swagger/doc.json, ...).
const SwaggerPath = "/swagger/*"

// OtherPath is the label value recorded for requests outside the known
// route surface, so scanner probes and typoed paths cannot grow the
// metrics label set.
const OtherPath = "/other"

// NormalizePath maps a request path onto a bounded set of metrics label
// values to prevent label cardinality explosion. Known routes pass through
// unchanged, Swagger assets collapse into one template, and everything else
// lands in a single catch-all bucket.
//
// Performance: a map lookup and at most one prefix check per call.
//
// Examples:
//
//	NormalizePath("/publish")              // "/publish"
//	NormalizePath("/generate_ideas")       // "/generate_ideas"
//	NormalizePath("/swagger/index.html")   // "/swagger/*"
//	NormalizePath("/swagger/doc.json")     // "/swagger/*"
//	NormalizePath("/wp-login.php")         // "/other"
//	NormalizePath("/publish/extra")        // "/other"
//
// Query parameters and trailing slashes are handled:
//
//	NormalizePath("/get_random_image?genre=tech") // "/get_random_image"
//	NormalizePath("/publish/")                    // "/publish"
func NormalizePath(path string) string {
	// Strip query parameters if present
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	if path == "/swagger" || strings.HasPrefix(path, "/swagger/") {
		return SwaggerPath
	}

	// Strip trailing slash if present (except for root path)
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	if _, ok := knownPaths[path]; ok {
		return path
	}

	return OtherPath
}

// GetExpectedCardinality returns the number of unique path label values
// NormalizePath can produce. This is useful for capacity planning and
// monitoring.
func GetExpectedCardinality() int {
	// Known routes plus the Swagger template and the catch-all bucket.
	return len(knownPaths) + 2
}
