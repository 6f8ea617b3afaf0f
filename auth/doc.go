// Package auth authenticates requests to the control routes with HMAC
// signed JWT bearer tokens.
//
// Usage:
//
//	v, err := auth.NewJWTVerifier(auth.JWTConfig{Secret: []byte(secret)})
//	...
//	r.Use(auth.Middleware(v))
package auth
