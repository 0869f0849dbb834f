package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the subset of the backend JWT the gateway cares about.
type TokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// InspectToken decodes the backend-issued JWT without verifying its
// signature; the backend owns the signing key and remains the authority.
func InspectToken(tokenString string) (*TokenClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("token is required")
	}
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the claims carry an exp in the past.
// Tokens without exp never expire client-side.
func (c *TokenClaims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// TokenExpired inspects a raw token. Opaque (non-JWT) tokens are treated as
// live and left for the backend to judge.
func TokenExpired(tokenString string, now time.Time) bool {
	claims, err := InspectToken(tokenString)
	if err != nil {
		return false
	}
	return claims.Expired(now)
}
