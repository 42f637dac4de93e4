package middleware

import "strings"

// normalizeOrigin prepares an origin for case-insensitive comparison:
// trimmed, lowercased, trailing slash removed.
func normalizeOrigin(origin string) string {
	origin = strings.ToLower(strings.TrimSpace(origin))
	return strings.TrimSuffix(origin, "/")
}

// WhitelistValidator allows an origin only when it exactly matches one of
// a fixed list. Matching is case-insensitive and ignores a trailing slash.
// Pattern-based validation (e.g. "https://*.vercel.app") would be a
// second OriginValidator implementation, not a change here.
type WhitelistValidator struct {
	allowedOrigins []string
}

// NewWhitelistValidator normalizes the given origins and builds a
// validator. Empty entries are dropped; duplicates are kept.
func NewWhitelistValidator(origins []string) *WhitelistValidator {
	normalized := make([]string, 0, len(origins))
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "" {
			continue
		}
		normalized = append(normalized, normalizeOrigin(origin))
	}
	return &WhitelistValidator{allowedOrigins: normalized}
}

// IsAllowed reports whether origin is in the whitelist. An empty origin
// is never allowed.
func (v *WhitelistValidator) IsAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	origin = normalizeOrigin(origin)
	for _, allowed := range v.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// GetAllowedOrigins returns a copy of the normalized whitelist, so callers
// can log it without being able to mutate it.
func (v *WhitelistValidator) GetAllowedOrigins() []string {
	out := make([]string, len(v.allowedOrigins))
	copy(out, v.allowedOrigins)
	return out
}
