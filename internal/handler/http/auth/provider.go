package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	authservice "blogsmith/internal/service/auth"
)

// EditorAuthProvider implements environment-based authentication for the
// single editor account. The blog has exactly one human operator; their
// credentials live in EDITOR_EMAIL / EDITOR_PASSWORD.
type EditorAuthProvider struct {
	minPasswordLength int
	weakPasswords     []string
}

// NewEditorAuthProvider creates a new editor auth provider.
func NewEditorAuthProvider(minPasswordLength int, weakPasswords []string) *EditorAuthProvider {
	return &EditorAuthProvider{
		minPasswordLength: minPasswordLength,
		weakPasswords:     weakPasswords,
	}
}

// ValidateCredentials validates credentials against environment variables.
func (p *EditorAuthProvider) ValidateCredentials(ctx context.Context, creds authservice.Credentials) error {
	// Check if credentials are empty
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("credentials must not be empty")
	}

	// Check password length
	if len(creds.Password) < p.minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", p.minPasswordLength)
	}

	// Check for weak passwords
	for _, weak := range p.weakPasswords {
		if creds.Password == weak || strings.HasPrefix(creds.Password, weak) {
			return fmt.Errorf("weak password detected")
		}
	}

	editorEmail := os.Getenv("EDITOR_EMAIL")
	editorPass := os.Getenv("EDITOR_PASSWORD")

	// Use constant-time comparison to prevent timing attacks
	emailMatch := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(editorEmail)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(editorPass)) == 1

	if !emailMatch || !passMatch {
		return fmt.Errorf("invalid credentials")
	}

	return nil
}

// GetRequirements returns the password requirements.
func (p *EditorAuthProvider) GetRequirements() authservice.CredentialRequirements {
	return authservice.CredentialRequirements{
		MinPasswordLength: p.minPasswordLength,
		WeakPasswords:     p.weakPasswords,
	}
}

// Name returns the provider name.
func (p *EditorAuthProvider) Name() string {
	return "editor"
}

// IdentifyUser returns the role for a given email address.
// Only the configured editor is recognized; everyone else gets an error.
func (p *EditorAuthProvider) IdentifyUser(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email must not be empty")
	}

	editorEmail := os.Getenv("EDITOR_EMAIL")

	// Use constant-time comparison to prevent timing attacks
	if subtle.ConstantTimeCompare([]byte(email), []byte(editorEmail)) == 1 {
		return RoleEditor, nil
	}

	return "", fmt.Errorf("user not found")
}
