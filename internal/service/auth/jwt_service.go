package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService issues and validates session tokens.
type JWTService interface {
	// GenerateToken creates a signed session token for userID that expires
	// after the configured lifetime.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken validates the token and extracts its claims.
	// Returns ErrExpiredToken or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the verified contents of a session token.
type Claims struct {
	// UserID is the only identity the token carries.
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
