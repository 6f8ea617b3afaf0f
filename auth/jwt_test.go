package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func TestNewJWTVerifier_MissingSecret(t *testing.T) {
	if _, err := NewJWTVerifier(JWTConfig{}); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("NewJWTVerifier() error = %v, want ErrMissingSecret", err)
	}
}

func TestJWTVerifier_Verify(t *testing.T) {
	v, err := NewJWTVerifier(JWTConfig{Secret: testSecret, Issuer: "plugkit", Audience: "control"})
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:  "valid",
			token: sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "ops", "iss": "plugkit", "aud": "control", "exp": future}),
		},
		{
			name:    "empty",
			token:   "",
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "expired",
			token:   sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "ops", "iss": "plugkit", "aud": "control", "exp": past}),
			wantErr: ErrTokenExpired,
		},
		{
			name:    "wrong secret",
			token:   sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "ops", "iss": "plugkit", "aud": "control"}),
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "wrong issuer",
			token:   sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "ops", "iss": "other", "aud": "control"}),
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "wrong audience",
			token:   sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "ops", "iss": "plugkit", "aud": "other"}),
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "garbage",
			token:   "not-a-token",
			wantErr: ErrTokenMalformed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if id.Subject != "ops" {
				t.Errorf("Subject = %q, want %q", id.Subject, "ops")
			}
			if id.ExpiresAt.Unix() != future {
				t.Errorf("ExpiresAt = %v, want unix %d", id.ExpiresAt, future)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	v, err := NewJWTVerifier(JWTConfig{Secret: testSecret})
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}
	var seen string
	h := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := IdentityFromContext(r.Context()); id != nil {
			seen = id.Subject
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("no token: missing WWW-Authenticate header")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "ops"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("valid token: status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if seen != "ops" {
		t.Errorf("identity subject = %q, want %q", seen, "ops")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bear", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := BearerToken(req); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
