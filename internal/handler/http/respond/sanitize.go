package respond

import "regexp"

// secretPatterns are applied in order. The Anthropic pattern must run
// before the generic sk- pattern, and the already-masked output (which
// contains '*') must not re-match.
var secretPatterns = []struct {
	re   *regexp.Regexp
	mask string
}{
	{regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`), "sk-ant-****"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`), "sk-****"},
	// WordPress application passwords embedded in a URL
	{regexp.MustCompile(`://([^:]+):([^@]+)@`), "://$1:****@"},
}

// SanitizeError masks API keys and URL-embedded credentials in an error
// message before it is written to a log.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, p := range secretPatterns {
		msg = p.re.ReplaceAllString(msg, p.mask)
	}
	return msg
}
