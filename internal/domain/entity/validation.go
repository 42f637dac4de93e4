package entity

import (
	"fmt"
	"net"
	"net/url"
)

// maxURLLength caps URL input length before parsing.
const maxURLLength = 2048

// blockedIPv4Ranges are networks a user-supplied URL must never resolve
// to: private networks plus the link-local range, which covers cloud
// metadata endpoints such as 169.254.169.254.
var blockedIPv4Ranges = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, subnet, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("bad CIDR %q: %v", cidr, err))
		}
		nets = append(nets, subnet)
	}
	return nets
}

// ValidateURL checks that a URL is well-formed, http or https, and does
// not resolve to a private address. Image and CMS URLs arrive from
// user-controlled requests, so this is the SSRF gate for every outbound
// fetch the pipeline performs.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	// Resolution failures pass through here; the fetch itself will fail
	// with a clearer error than a validation message could give.
	ips, err := net.LookupIP(parsedURL.Hostname())
	if err == nil {
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return &ValidationError{
					Field:   "url",
					Message: "url cannot point to private network",
				}
			}
		}
	}

	return nil
}

// isPrivateIP reports whether ip falls in loopback, link-local, or one
// of the blocked private ranges.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return true
	}
	for _, subnet := range blockedIPv4Ranges {
		if subnet.Contains(ip) {
			return true
		}
	}
	return false
}
