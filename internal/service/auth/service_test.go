package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── test doubles ───────── */

type mockAuthProvider struct {
	name                   string
	validateCredentialsErr error
	requirements           CredentialRequirements

	receivedCtx context.Context
}

func (m *mockAuthProvider) ValidateCredentials(ctx context.Context, creds Credentials) error {
	m.receivedCtx = ctx
	return m.validateCredentialsErr
}

func (m *mockAuthProvider) GetRequirements() CredentialRequirements {
	return m.requirements
}

func (m *mockAuthProvider) IdentifyUser(ctx context.Context, email string) (string, error) {
	return "editor", nil
}

func (m *mockAuthProvider) Name() string {
	return m.name
}

/* ───────── construction ───────── */

func TestNewAuthService(t *testing.T) {
	provider := &mockAuthProvider{name: "mock"}
	service := NewAuthService(provider, []string{"/health", "/metrics"})

	require.NotNil(t, service)
	assert.Same(t, provider, service.provider)
	assert.Len(t, service.publicEndpoints, 2)
}

/* ───────── credential validation ───────── */

func TestAuthService_ValidateCredentials(t *testing.T) {
	tests := []struct {
		name        string
		providerErr error
	}{
		{"provider accepts", nil},
		{"provider rejects bad password", fmt.Errorf("invalid credentials")},
		{"provider rejects empty credentials", fmt.Errorf("credentials must not be empty")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockAuthProvider{
				name:                   "mock",
				validateCredentialsErr: tt.providerErr,
			}
			service := NewAuthService(provider, nil)

			err := service.ValidateCredentials(context.Background(), Credentials{
				Username: "editor@example.com",
				Password: "testpass",
			})

			if tt.providerErr != nil {
				assert.EqualError(t, err, tt.providerErr.Error(), "provider error passes through unwrapped")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthService_ValidateCredentials_PropagatesContext(t *testing.T) {
	provider := &mockAuthProvider{name: "mock"}
	service := NewAuthService(provider, nil)

	type contextKey string
	key := contextKey("test-key")
	ctx := context.WithValue(context.Background(), key, "test-value")

	_ = service.ValidateCredentials(ctx, Credentials{Username: "test", Password: "test"})

	require.NotNil(t, provider.receivedCtx, "context was not passed to provider")
	assert.Equal(t, "test-value", provider.receivedCtx.Value(key))
}

func TestAuthService_ValidateCredentials_CancelledContext(t *testing.T) {
	service := NewAuthService(&mockAuthProvider{name: "mock"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the service layer does not inspect ctx.Done itself; cancellation
	// handling is the provider's job
	err := service.ValidateCredentials(ctx, Credentials{Username: "test", Password: "test"})
	assert.NoError(t, err)
}

/* ───────── public endpoint matching ───────── */

func TestAuthService_IsPublicEndpoint(t *testing.T) {
	service := NewAuthService(&mockAuthProvider{name: "mock"}, []string{
		"/health",
		"/ready",
		"/metrics",
		"/swagger/",
		"/auth/token",
	})

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"exact match health", "/health", true},
		{"exact match ready", "/ready", true},
		{"exact match metrics", "/metrics", true},
		{"exact match auth token", "/auth/token", true},
		{"prefix match swagger page", "/swagger/index.html", true},
		{"prefix match swagger doc", "/swagger/doc.json", true},
		{"protected publish", "/publish", false},
		{"protected idea generation", "/generate_ideas", false},
		{"protected photo lookup", "/get_random_image", false},
		// prefix matching is deliberate, so /healthcheck rides along
		{"prefix rides along", "/healthcheck", true},
		{"nested path does not match", "/api/health", false},
		{"empty path", "", false},
		{"root path", "/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, service.IsPublicEndpoint(tt.path), "path %s", tt.path)
		})
	}
}

func TestAuthService_IsPublicEndpoint_NoEndpoints(t *testing.T) {
	t.Run("empty list protects everything", func(t *testing.T) {
		service := NewAuthService(&mockAuthProvider{name: "mock"}, []string{})
		assert.False(t, service.IsPublicEndpoint("/health"))
		assert.False(t, service.IsPublicEndpoint("/anything"))
	})

	t.Run("nil list does not panic", func(t *testing.T) {
		service := NewAuthService(&mockAuthProvider{name: "mock"}, nil)
		assert.False(t, service.IsPublicEndpoint("/health"))
	})
}

/* ───────── provider access ───────── */

func TestAuthService_GetProvider(t *testing.T) {
	provider := &mockAuthProvider{
		name: "test-provider",
		requirements: CredentialRequirements{
			MinPasswordLength: 10,
			WeakPasswords:     []string{"weak"},
		},
	}
	service := NewAuthService(provider, nil)

	got := service.GetProvider()
	require.NotNil(t, got)
	assert.Equal(t, "test-provider", got.Name())
	assert.Equal(t, 10, got.GetRequirements().MinPasswordLength)
}

func TestAuthService_MultipleProviders(t *testing.T) {
	for _, name := range []string{"editor", "oauth", "saml"} {
		service := NewAuthService(&mockAuthProvider{name: name}, nil)
		assert.Equal(t, name, service.GetProvider().Name())
	}
}

/* ───────── concurrency ───────── */

func TestAuthService_ConcurrentAccess(t *testing.T) {
	service := NewAuthService(&mockAuthProvider{name: "mock"}, []string{"/health"})
	paths := []string{"/health", "/publish", "/metrics", "/generate_ideas"}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = service.IsPublicEndpoint(paths[j%len(paths)])
			}
		}()
	}
	wg.Wait()
}
