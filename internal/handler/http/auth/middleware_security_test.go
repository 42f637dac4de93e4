package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-characters-long-for-testing"

/* ───────── helpers ───────── */

func signHS256(t testing.TB, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func editorClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  "editor@example.com",
		"role": RoleEditor,
		"exp":  time.Now().Add(1 * time.Hour).Unix(),
	}
}

// encodeSegment builds one base64url JWT segment from arbitrary JSON,
// bypassing the jwt library so tests can forge malformed tokens.
func encodeSegment(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(b)
}

func requestWithToken(middleware http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	middleware.ServeHTTP(rec, req)
	return rec
}

/* ───────── forged and damaged tokens ───────── */

// Every token below carries claims that would grant access if the
// middleware trusted them; none has a signature made with the real
// secret. All must come back 401.
func TestAuthz_TokenTamperingRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	middleware := Authz(testSuccessHandler(t))

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			// guest token re-labeled as editor without re-signing
			name: "role escalated in payload, original signature kept",
			token: func(t *testing.T) string {
				guest := signHS256(t, testSecret, jwt.MapClaims{
					"sub":  "guest@example.com",
					"role": "guest",
					"exp":  time.Now().Add(1 * time.Hour).Unix(),
				})
				parts := strings.Split(guest, ".")
				require.Len(t, parts, 3)

				payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
				require.NoError(t, err)
				var payload map[string]interface{}
				require.NoError(t, json.Unmarshal(payloadBytes, &payload))
				payload["role"] = RoleEditor

				return parts[0] + "." + encodeSegment(t, payload) + "." + parts[2]
			},
		},
		{
			name: "signature corrupted",
			token: func(t *testing.T) string {
				valid := signHS256(t, testSecret, editorClaims())
				parts := strings.Split(valid, ".")
				require.Len(t, parts, 3)

				sig := []byte(parts[2])
				if sig[0] == 'A' {
					sig[0] = 'B'
				} else {
					sig[0] = 'A'
				}
				return parts[0] + "." + parts[1] + "." + string(sig)
			},
		},
		{
			name: "signed with wrong secret",
			token: func(t *testing.T) string {
				return signHS256(t, "wrong-secret-key-at-least-32-characters-long", editorClaims())
			},
		},
		{
			// alg: none with an empty signature segment
			name: "none algorithm",
			token: func(t *testing.T) string {
				header := encodeSegment(t, map[string]interface{}{"alg": "none", "typ": "JWT"})
				return header + "." + encodeSegment(t, editorClaims()) + "."
			},
		},
		{
			// RS256 header on an HS256-only verifier
			name: "algorithm substitution to RS256",
			token: func(t *testing.T) string {
				header := encodeSegment(t, map[string]interface{}{"alg": "RS256", "typ": "JWT"})
				fakeSig := base64.RawURLEncoding.EncodeToString([]byte("fake-signature"))
				return header + "." + encodeSegment(t, editorClaims()) + "." + fakeSig
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := requestWithToken(middleware, "POST", "/publish", tt.token(t))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "unauthorized")
		})
	}
}

/* ───────── claim validation ───────── */

func TestAuthz_ClaimValidation(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	middleware := Authz(testSuccessHandler(t))

	tests := []struct {
		name       string
		claims     jwt.MapClaims
		wantStatus int
	}{
		{
			name: "expired token",
			claims: jwt.MapClaims{
				"sub":  "editor@example.com",
				"role": RoleEditor,
				"exp":  time.Now().Add(-1 * time.Hour).Unix(),
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "missing exp claim",
			claims: jwt.MapClaims{
				"sub":  "editor@example.com",
				"role": RoleEditor,
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "missing sub claim",
			claims: jwt.MapClaims{
				"role": RoleEditor,
				"exp":  time.Now().Add(1 * time.Hour).Unix(),
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "missing role claim",
			claims: jwt.MapClaims{
				"sub": "editor@example.com",
				"exp": time.Now().Add(1 * time.Hour).Unix(),
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			// empty role is a valid claim but grants no permissions
			name: "empty role claim",
			claims: jwt.MapClaims{
				"sub":  "editor@example.com",
				"role": "",
				"exp":  time.Now().Add(1 * time.Hour).Unix(),
			},
			wantStatus: http.StatusForbidden,
		},
		{
			// empty sub is valid per RFC 7519; authentication already
			// happened, the empty user just shows up in audit logs
			name: "empty sub claim",
			claims: jwt.MapClaims{
				"sub":  "",
				"role": RoleEditor,
				"exp":  time.Now().Add(1 * time.Hour).Unix(),
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signHS256(t, testSecret, tt.claims)
			rec := requestWithToken(middleware, "POST", "/generate_ideas", token)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

/* ───────── valid tokens ───────── */

func TestAuthz_ValidTokenAccepted(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotNil(t, r.Context().Value(UserContextKey), "authenticated user should be in context")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	})
	middleware := Authz(handler)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"editor GET", "GET", "/get_random_image"},
		{"editor POST pipeline", "POST", "/generate_blog"},
		{"editor POST publish", "POST", "/publish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signHS256(t, testSecret, editorClaims())
			rec := requestWithToken(middleware, tt.method, tt.path, token)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}
