package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/* ───────── normalization ───────── */

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		// known routes pass through unchanged
		{"generate ideas", "/generate_ideas", "/generate_ideas"},
		{"select idea", "/select_idea", "/select_idea"},
		{"generate outline", "/generate_outline", "/generate_outline"},
		{"generate blog", "/generate_blog", "/generate_blog"},
		{"random image", "/get_random_image", "/get_random_image"},
		{"publish", "/publish", "/publish"},
		{"health", "/health", "/health"},
		{"pipeline health", "/health/pipeline", "/health/pipeline"},
		{"metrics", "/metrics", "/metrics"},
		{"auth token", "/auth/token", "/auth/token"},
		{"readiness probe", "/ready", "/ready"},
		{"liveness probe", "/live", "/live"},

		// query strings are stripped before matching
		{"query params stripped", "/get_random_image?genre=technology", "/get_random_image"},
		{"multiple query params", "/get_random_image?genre=travel&orientation=landscape", "/get_random_image"},
		{"health with query", "/health?format=json", "/health"},

		// trailing slashes collapse onto the known route
		{"publish trailing slash", "/publish/", "/publish"},
		{"health trailing slash", "/health/", "/health"},
		{"auth token trailing slash", "/auth/token/", "/auth/token"},

		// every swagger asset maps to one template
		{"swagger index", "/swagger/index.html", SwaggerPath},
		{"swagger doc json", "/swagger/doc.json", SwaggerPath},
		{"swagger ui bundle", "/swagger/swagger-ui-bundle.js", SwaggerPath},
		{"swagger root", "/swagger/", SwaggerPath},
		{"swagger without trailing slash", "/swagger", SwaggerPath},
		{"swagger asset with query", "/swagger/doc.json?v=1", SwaggerPath},

		// everything else lands in the catch-all bucket
		{"scanner probe", "/wp-login.php", OtherPath},
		{"unknown nested path", "/api/v2/items/456", OtherPath},
		{"known route with extra segment", "/publish/extra", OtherPath},
		{"typoed route", "/generate_idea", OtherPath},
		{"healthcheck is not health", "/healthcheck", OtherPath},
		{"unknown with query", "/unknown?probe=1", OtherPath},

		// edge cases
		{"root path", "/", "/"},
		{"root with query", "/?page=1", "/"},
		{"empty path", "", OtherPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(tt.path))
		})
	}
}

/* ───────── cardinality ───────── */

// Arbitrary unknown paths must not mint new metric label values.
func TestNormalizePath_UnknownPathsShareOneLabel(t *testing.T) {
	probes := []string{
		"/wp-admin.php",
		"/admin/login",
		"/.env",
		"/api/v1/users/123",
		"/generate_ideas/extra",
		"/random-bot-probe-xyz",
	}

	seen := make(map[string]bool)
	for _, path := range probes {
		normalized := NormalizePath(path)
		assert.Equal(t, OtherPath, normalized)
		seen[normalized] = true
	}
	assert.Len(t, seen, 1)
}

func TestGetExpectedCardinality(t *testing.T) {
	cardinality := GetExpectedCardinality()

	// known routes plus the swagger template and the catch-all bucket
	assert.Equal(t, len(knownPaths)+2, cardinality)
	assert.LessOrEqual(t, cardinality, 20, "the label set must stay small")
}

// A burst of editor traffic, monitoring, swagger asset loads, and scanner
// noise collapses into the fixed label set.
func TestNormalizePath_MixedTraffic(t *testing.T) {
	requests := []string{
		"/generate_ideas", "/select_idea", "/generate_outline", "/generate_blog",
		"/get_random_image?genre=technology", "/publish",

		"/health", "/health/pipeline", "/ready", "/live", "/metrics",
		"/health", "/metrics", "/metrics",

		"/swagger/index.html", "/swagger/swagger-ui.css",
		"/swagger/swagger-ui-bundle.js", "/swagger/doc.json",

		"/wp-login.php", "/.env", "/admin", "/phpmyadmin/index.php",
		"/api/v1/users/1", "/api/v1/users/2", "/api/v1/users/3",
	}

	unique := make(map[string]int)
	for _, path := range requests {
		unique[NormalizePath(path)]++
	}

	assert.LessOrEqual(t, len(unique), GetExpectedCardinality())
}
