package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authservice "blogsmith/internal/service/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-with-at-least-32-characters"

// mockAuthProvider lets each test plug in validation and role lookup.
type mockAuthProvider struct {
	validateFunc     func(ctx context.Context, creds authservice.Credentials) error
	requirementsFunc func() authservice.CredentialRequirements
	identifyUserFunc func(ctx context.Context, email string) (string, error)
	name             string
}

func (m *mockAuthProvider) ValidateCredentials(ctx context.Context, creds authservice.Credentials) error {
	if m.validateFunc != nil {
		return m.validateFunc(ctx, creds)
	}
	return nil
}

func (m *mockAuthProvider) GetRequirements() authservice.CredentialRequirements {
	if m.requirementsFunc != nil {
		return m.requirementsFunc()
	}
	return authservice.CredentialRequirements{}
}

func (m *mockAuthProvider) IdentifyUser(ctx context.Context, email string) (string, error) {
	if m.identifyUserFunc != nil {
		return m.identifyUserFunc(ctx, email)
	}
	return RoleEditor, nil
}

func (m *mockAuthProvider) Name() string {
	return m.name
}

/* ───────── helpers ───────── */

func setJWTSecret(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testJWTSecret)
}

// editorProvider accepts only the canonical editor credentials and
// identifies that editor as RoleEditor.
func editorProvider() *mockAuthProvider {
	return &mockAuthProvider{
		validateFunc: func(ctx context.Context, creds authservice.Credentials) error {
			if creds.Username == "editor@example.com" && creds.Password == "editing-is-fun-2024" {
				return nil
			}
			return fmt.Errorf("invalid credentials")
		},
		identifyUserFunc: func(ctx context.Context, email string) (string, error) {
			if email == "editor@example.com" {
				return RoleEditor, nil
			}
			return "", fmt.Errorf("user not found")
		},
		name: "mock",
	}
}

func postToken(t *testing.T, provider *mockAuthProvider, body string) *httptest.ResponseRecorder {
	t.Helper()
	authSvc := authservice.NewAuthService(provider, []string{"/health"})
	handler := TokenHandler(authSvc)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func parseIssuedToken(t *testing.T, rr *httptest.ResponseRecorder) jwt.MapClaims {
	t.Helper()

	var resp tokenResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)

	token, err := jwt.Parse(resp.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok, "claims type assertion failed")
	return claims
}

/* ───────── tests ───────── */

func TestTokenHandler_Success(t *testing.T) {
	setJWTSecret(t)

	rr := postToken(t, editorProvider(),
		`{"email":"editor@example.com","password":"editing-is-fun-2024"}`)

	require.Equal(t, http.StatusOK, rr.Code)

	claims := parseIssuedToken(t, rr)
	assert.Equal(t, "editor@example.com", claims["sub"])
	assert.Equal(t, RoleEditor, claims["role"])
}

func TestTokenHandler_Rejections(t *testing.T) {
	setJWTSecret(t)

	tests := []struct {
		name       string
		provider   *mockAuthProvider
		body       string
		wantStatus int
	}{
		{
			name:       "wrong email",
			provider:   editorProvider(),
			body:       `{"email":"wrong@example.com","password":"editing-is-fun-2024"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong password",
			provider:   editorProvider(),
			body:       `{"email":"editor@example.com","password":"wrongpassword"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed JSON",
			provider:   editorProvider(),
			body:       `{"email":"editor@example.com","password":}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "empty credentials",
			provider: &mockAuthProvider{
				validateFunc: func(ctx context.Context, creds authservice.Credentials) error {
					if creds.Username == "" || creds.Password == "" {
						return fmt.Errorf("empty credentials")
					}
					return nil
				},
				name: "mock",
			},
			body:       `{"email":"","password":""}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "provider validation error",
			provider: &mockAuthProvider{
				validateFunc: func(ctx context.Context, creds authservice.Credentials) error {
					return fmt.Errorf("validation error")
				},
				name: "mock",
			},
			body:       `{"email":"editor@example.com","password":"editing-is-fun-2024"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "role identification fails after valid credentials",
			provider: &mockAuthProvider{
				identifyUserFunc: func(ctx context.Context, email string) (string, error) {
					return "", fmt.Errorf("role identification failed")
				},
				name: "mock",
			},
			body:       `{"email":"test@example.com","password":"password"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postToken(t, tt.provider, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

// The role claim must come from IdentifyUser; a "role" field smuggled
// into the login body has to be ignored.
func TestTokenHandler_RoleClaimComesFromProvider(t *testing.T) {
	setJWTSecret(t)

	rr := postToken(t, editorProvider(),
		`{"email":"editor@example.com","password":"editing-is-fun-2024","role":"superuser"}`)

	require.Equal(t, http.StatusOK, rr.Code)

	claims := parseIssuedToken(t, rr)
	assert.Equal(t, RoleEditor, claims["role"])
	assert.Equal(t, "editor@example.com", claims["sub"])
}
