package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdigest-api/internal/config"
	"github.com/phrazzld/taskdigest-api/internal/platform/clock"
	"github.com/phrazzld/taskdigest-api/internal/platform/logger"
)

// defaultClockSkew is the leeway applied to exp and iat checks.
const defaultClockSkew = 2 * time.Minute

// sessionPayload is empty; the user id travels as the subject.
type sessionPayload struct{}

// hmacJWTService implements JWTService on top of a session-purpose Codec.
type hmacJWTService struct {
	codec         *Codec[sessionPayload]
	tokenLifetime time.Duration
	clock         clock.Clock
}

var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a session token service from the auth configuration.
func NewJWTService(cfg config.AuthConfig, clk clock.Clock) (JWTService, error) {
	return newHMACJWTService(cfg.JWTSecret, cfg.TokenLifetime(), clk)
}

func newHMACJWTService(secret string, lifetime time.Duration, clk clock.Clock) (*hmacJWTService, error) {
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive")
	}
	if clk == nil {
		clk = clock.System{}
	}

	codec, err := NewCodec[sessionPayload](secret, PurposeSession, defaultClockSkew)
	if err != nil {
		return nil, err
	}

	return &hmacJWTService{codec: codec, tokenLifetime: lifetime, clock: clk}, nil
}

// GenerateToken implements JWTService.
func (s *hmacJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := s.codec.Seal(sessionPayload{}, userID.String(), s.clock.Now(), s.tokenLifetime)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign session token",
			"error", err,
			"user_id", userID)
		return "", err
	}
	return token, nil
}

// ValidateToken implements JWTService. Tokens without exp are rejected.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)

	sealed, err := s.codec.Open(tokenString, s.clock.Now(), 0)
	if err != nil {
		log.Debug("session token validation failed", "error", err)
		return nil, err
	}

	if sealed.ExpiresAt.IsZero() {
		log.Debug("session token validation failed: missing expiry")
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(sealed.Subject)
	if err != nil || userID == uuid.Nil {
		log.Debug("session token validation failed: bad subject")
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    userID,
		IssuedAt:  sealed.IssuedAt,
		ExpiresAt: sealed.ExpiresAt,
		ID:        sealed.ID,
	}, nil
}
