package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity provider ID token claims the client relies on.
type Claims struct {
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

// ParseClaims decodes a JWT without verifying its signature. The goals API
// verifies tokens; the client only reads identity and expiry from them.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}
