package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the JWT verifier.
type JWTConfig struct {
	// Secret is the HMAC signing key. Required.
	Secret []byte

	// Issuer is the expected iss claim. Empty skips the check.
	Issuer string

	// Audience is the expected aud claim. Empty skips the check.
	Audience string

	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration
}

// Verifier turns a raw token into an Identity.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// JWTVerifier validates HS256, HS384 and HS512 tokens.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTVerifier creates a verifier. An empty secret fails with
// ErrMissingSecret.
func NewJWTVerifier(cfg JWTConfig) (*JWTVerifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &JWTVerifier{secret: cfg.Secret, parser: jwt.NewParser(opts...)}, nil
}

// Verify validates the token signature and registered claims.
func (v *JWTVerifier) Verify(token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingCredentials
	}

	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrTokenMalformed
	default:
		return nil, ErrInvalidCredentials
	}

	id := &Identity{Claims: make(map[string]any, len(claims))}
	for k, val := range claims {
		id.Claims[k] = val
	}
	id.Subject, _ = claims.GetSubject()
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

var _ Verifier = (*JWTVerifier)(nil)
