package middleware

import (
	"net/netip"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── LoadTrustedProxyConfig ───────── */

func TestLoadTrustedProxyConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_TRUST_PROXY", "false")

	config, err := LoadTrustedProxyConfig()

	require.NoError(t, err)
	assert.False(t, config.Enabled)
	assert.Empty(t, config.AllowedCIDRs)
}

func TestLoadTrustedProxyConfig_DefaultsWithoutEnv(t *testing.T) {
	_ = os.Unsetenv("RATE_LIMIT_TRUST_PROXY")
	_ = os.Unsetenv("RATE_LIMIT_TRUSTED_PROXIES")

	config, err := LoadTrustedProxyConfig()

	require.NoError(t, err)
	assert.False(t, config.Enabled)
	assert.Empty(t, config.AllowedCIDRs)
}

func TestLoadTrustedProxyConfig_ParsesProxyList(t *testing.T) {
	tests := []struct {
		name    string
		proxies string
		want    []netip.Prefix
	}{
		{
			name:    "bare IPv4 becomes /32",
			proxies: "192.168.1.100",
			want:    []netip.Prefix{netip.MustParsePrefix("192.168.1.100/32")},
		},
		{
			name:    "CIDR kept as-is",
			proxies: "10.0.0.0/8",
			want:    []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
		},
		{
			name:    "mixed comma-separated list",
			proxies: "10.0.0.0/8, 172.16.0.0/12, 192.168.1.1",
			want: []netip.Prefix{
				netip.MustParsePrefix("10.0.0.0/8"),
				netip.MustParsePrefix("172.16.0.0/12"),
				netip.MustParsePrefix("192.168.1.1/32"),
			},
		},
		{
			name:    "empty elements skipped",
			proxies: "10.0.0.0/8,  , 192.168.1.1",
			want: []netip.Prefix{
				netip.MustParsePrefix("10.0.0.0/8"),
				netip.MustParsePrefix("192.168.1.1/32"),
			},
		},
		{
			name:    "IPv6 CIDR",
			proxies: "2001:db8::/32",
			want:    []netip.Prefix{netip.MustParsePrefix("2001:db8::/32")},
		},
		{
			name:    "bare IPv6 becomes /128",
			proxies: "2001:db8::1",
			want:    []netip.Prefix{netip.MustParsePrefix("2001:db8::1/128")},
		},
		{
			name:    "IPv6 loopback",
			proxies: "::1",
			want:    []netip.Prefix{netip.MustParsePrefix("::1/128")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RATE_LIMIT_TRUST_PROXY", "true")
			t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", tt.proxies)

			config, err := LoadTrustedProxyConfig()

			require.NoError(t, err)
			assert.True(t, config.Enabled)
			assert.Equal(t, tt.want, config.AllowedCIDRs)
		})
	}
}

func TestLoadTrustedProxyConfig_RejectsMalformedEntries(t *testing.T) {
	for _, proxies := range []string{"999.999.999.999", "192.168.1.0/99", "not-an-ip"} {
		t.Run(proxies, func(t *testing.T) {
			t.Setenv("RATE_LIMIT_TRUST_PROXY", "true")
			t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", proxies)

			_, err := LoadTrustedProxyConfig()

			assert.Error(t, err)
		})
	}
}

func TestLoadTrustedProxyConfig_EnabledRequiresProxies(t *testing.T) {
	t.Setenv("RATE_LIMIT_TRUST_PROXY", "true")
	t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", "")

	_, err := LoadTrustedProxyConfig()

	require.Error(t, err)
	assert.Equal(t,
		"RATE_LIMIT_TRUST_PROXY is enabled but RATE_LIMIT_TRUSTED_PROXIES is empty",
		err.Error())
}

func TestLoadTrustedProxyConfig_WhitespaceListIsEmpty(t *testing.T) {
	t.Setenv("RATE_LIMIT_TRUST_PROXY", "true")
	t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", "   ")

	_, err := LoadTrustedProxyConfig()

	assert.Error(t, err)
}

/* ───────── IsTrusted ───────── */

func TestTrustedProxyConfig_IsTrusted(t *testing.T) {
	config := &TrustedProxyConfig{
		Enabled: true,
		AllowedCIDRs: []netip.Prefix{
			netip.MustParsePrefix("10.0.0.0/8"),
			netip.MustParsePrefix("192.168.1.0/24"),
		},
	}

	tests := []struct {
		name       string
		remoteAddr string
		want       bool
	}{
		{"lowest address in /8", "10.0.0.1:54321", true},
		{"highest address in /8", "10.255.255.255:8080", true},
		{"inside /24", "192.168.1.100:12345", true},
		{"adjacent subnet", "192.168.2.1:8080", false},
		{"just below /24", "192.168.0.255:9000", false},
		{"other private range", "172.16.0.1:9000", false},
		{"public address", "8.8.8.8:443", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.IsTrusted(tt.remoteAddr))
		})
	}
}

func TestTrustedProxyConfig_IsTrusted_StripsPort(t *testing.T) {
	config := &TrustedProxyConfig{
		Enabled:      true,
		AllowedCIDRs: []netip.Prefix{netip.MustParsePrefix("192.168.1.100/32")},
	}

	assert.True(t, config.IsTrusted("192.168.1.100:8080"))
	assert.True(t, config.IsTrusted("192.168.1.100:443"))
	assert.True(t, config.IsTrusted("192.168.1.100:54321"))
	assert.False(t, config.IsTrusted("192.168.1.101:8080"))
}

func TestTrustedProxyConfig_IsTrusted_InvalidAddrIsUntrusted(t *testing.T) {
	config := &TrustedProxyConfig{
		Enabled:      true,
		AllowedCIDRs: []netip.Prefix{netip.MustParsePrefix("192.168.1.0/24")},
	}

	for _, addr := range []string{"not-an-ip", "999.999.999.999:8080", "", "invalid:invalid"} {
		t.Run(addr, func(t *testing.T) {
			assert.False(t, config.IsTrusted(addr))
		})
	}
}

func TestTrustedProxyConfig_IsTrusted_IPv6(t *testing.T) {
	config := &TrustedProxyConfig{
		Enabled: true,
		AllowedCIDRs: []netip.Prefix{
			netip.MustParsePrefix("2001:db8::/32"),
			netip.MustParsePrefix("::1/128"),
		},
	}

	tests := []struct {
		name       string
		remoteAddr string
		want       bool
	}{
		{"inside /32", "[2001:db8::1]:8080", true},
		{"high address inside /32", "[2001:db8:ffff:ffff::1]:9000", true},
		{"loopback", "[::1]:54321", true},
		{"adjacent prefix", "[2001:db9::1]:8080", false},
		{"public resolver", "[2606:4700:4700::1111]:443", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.IsTrusted(tt.remoteAddr))
		})
	}
}
