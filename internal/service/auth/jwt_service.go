package auth

import (
	"context"
	"time"
)

// TokenTypeAccess marks tokens accepted by the API.
const TokenTypeAccess = "access"

// JWTService validates the bearer tokens that identify task owners.
type JWTService interface {
	// GenerateToken creates a signed access token for userID. The API never
	// issues tokens itself; this serves tests and local tooling.
	GenerateToken(ctx context.Context, userID int64) (string, error)

	// ValidateToken verifies signature, expiry and token type and returns the
	// claims of a valid access token.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of an access token.
type Claims struct {
	UserID    int64
	TokenType string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
