package auth

import (
	"context"
	"strings"
)

// Credentials is a username/password pair as submitted at login.
type Credentials struct {
	Username string
	Password string
}

// CredentialRequirements is the password policy a provider enforces.
type CredentialRequirements struct {
	MinPasswordLength int
	WeakPasswords     []string
}

// AuthProvider abstracts where accounts live. The default implementation
// reads them from environment variables; nothing here depends on HTTP,
// so the same provider backs both the API server and the draft CLI.
type AuthProvider interface {
	ValidateCredentials(ctx context.Context, creds Credentials) error

	GetRequirements() CredentialRequirements

	// IdentifyUser maps an email address to its role.
	IdentifyUser(ctx context.Context, email string) (string, error)

	Name() string
}

// AuthService holds the provider and the list of paths that skip
// authentication (health checks, metrics, login itself).
type AuthService struct {
	provider        AuthProvider
	publicEndpoints []string
}

func NewAuthService(provider AuthProvider, publicEndpoints []string) *AuthService {
	return &AuthService{
		provider:        provider,
		publicEndpoints: publicEndpoints,
	}
}

// ValidateCredentials delegates to the configured provider.
func (s *AuthService) ValidateCredentials(ctx context.Context, creds Credentials) error {
	return s.provider.ValidateCredentials(ctx, creds)
}

// IsPublicEndpoint reports whether path matches any public endpoint
// prefix.
func (s *AuthService) IsPublicEndpoint(path string) bool {
	for _, endpoint := range s.publicEndpoints {
		if strings.HasPrefix(path, endpoint) {
			return true
		}
	}
	return false
}

// GetProvider exposes the provider for handlers that need its
// requirements or name.
func (s *AuthService) GetProvider() AuthProvider {
	return s.provider
}
