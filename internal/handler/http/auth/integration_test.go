package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authservice "blogsmith/internal/service/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── fixtures ───────── */

const (
	integrationEmail    = "editor@example.com"
	integrationPassword = "secure-editor-password-123"
)

// tokenServer stands up the real token endpoint backed by the
// environment-based editor provider.
func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv("EDITOR_EMAIL", integrationEmail)
	t.Setenv("EDITOR_PASSWORD", integrationPassword)
	t.Setenv("JWT_SECRET", testSecret)

	provider := NewEditorAuthProvider(12, []string{"password", "123456"})
	authSvc := authservice.NewAuthService(provider, []string{"/auth/token"})

	server := httptest.NewServer(TokenHandler(authSvc))
	t.Cleanup(server.Close)
	return server
}

// login posts credentials to the token endpoint and returns the response.
func login(t *testing.T, serverURL, email, password string) *http.Response {
	t.Helper()
	body := `{"email":"` + email + `","password":"` + password + `"}`
	resp, err := http.Post(serverURL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// pipelineServer wraps a trivial success handler with the Authz middleware
// over a real HTTP server.
func pipelineServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler := Authz(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"success"}`))
	}))
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func callWithToken(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

/* ───────── login flow ───────── */

func TestIntegration_EditorLogin(t *testing.T) {
	server := tokenServer(t)

	resp := login(t, server.URL, integrationEmail, integrationPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokenResp tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokenResp))

	// the issued token must verify against the signing secret and carry
	// the editor identity
	token, err := jwt.Parse(tokenResp.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, RoleEditor, claims["role"])
	assert.Equal(t, integrationEmail, claims["sub"])
}

func TestIntegration_LoginRejections(t *testing.T) {
	server := tokenServer(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "someone-else@example.com", integrationPassword},
		{"wrong password", integrationEmail, "wrong-password-entirely"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := login(t, server.URL, tt.email, tt.password)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

/* ───────── login-then-call flow ───────── */

// The complete operator path: authenticate once, then drive the pipeline
// with the issued token.
func TestIntegration_EditorPipelineAccess(t *testing.T) {
	auth := tokenServer(t)
	pipeline := pipelineServer(t)

	resp := login(t, auth.URL, integrationEmail, integrationPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokenResp tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokenResp))
	editorToken := tokenResp.Token

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"generate ideas", "POST", "/generate_ideas", `{"genre":"technology"}`, http.StatusOK},
		{"random image", "GET", "/get_random_image?genre=coffee", "", http.StatusOK},
		{"publish", "POST", "/publish", `{"title":"My Post","content":"<p>Hello</p>"}`, http.StatusOK},
		{"delete outside role permissions", "DELETE", "/publish", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callWithToken(t, tt.method, pipeline.URL+tt.path, editorToken, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
