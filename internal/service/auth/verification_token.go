package auth

import (
	"context"
	"time"

	"github.com/phrazzld/taskdigest-api/internal/config"
	"github.com/phrazzld/taskdigest-api/internal/platform/clock"
	"github.com/phrazzld/taskdigest-api/internal/platform/logger"
)

// PendingRegistration is a registration that has not been confirmed yet.
// It is never persisted; the signed verification token is its only storage.
type PendingRegistration struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	IssuedAt     time.Time `json:"-"`
}

// VerificationTokenService issues and parses email verification tokens.
type VerificationTokenService interface {
	IssueVerificationToken(ctx context.Context, reg PendingRegistration) (string, error)

	// ParseVerificationToken returns ErrExpiredToken once maxAge has passed
	// since issuance and ErrInvalidToken for anything else that fails.
	ParseVerificationToken(ctx context.Context, token string, maxAge time.Duration) (*PendingRegistration, error)
}

type hmacVerificationTokenService struct {
	codec *Codec[PendingRegistration]
	clock clock.Clock
}

var _ VerificationTokenService = (*hmacVerificationTokenService)(nil)

// NewVerificationTokenService creates a verification token service keyed by
// the verification secret.
func NewVerificationTokenService(cfg config.AuthConfig, clk clock.Clock) (VerificationTokenService, error) {
	return newHMACVerificationTokenService(cfg.VerificationSecret, clk)
}

func newHMACVerificationTokenService(secret string, clk clock.Clock) (*hmacVerificationTokenService, error) {
	if clk == nil {
		clk = clock.System{}
	}
	codec, err := NewCodec[PendingRegistration](secret, PurposeEmailVerification, defaultClockSkew)
	if err != nil {
		return nil, err
	}
	return &hmacVerificationTokenService{codec: codec, clock: clk}, nil
}

// IssueVerificationToken implements VerificationTokenService. The token is
// stamped with reg.IssuedAt when set, otherwise with the current time.
func (s *hmacVerificationTokenService) IssueVerificationToken(
	ctx context.Context,
	reg PendingRegistration,
) (string, error) {
	issuedAt := reg.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = s.clock.Now()
	}

	token, err := s.codec.Seal(reg, "", issuedAt, 0)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign verification token", "error", err)
		return "", err
	}
	return token, nil
}

// ParseVerificationToken implements VerificationTokenService.
func (s *hmacVerificationTokenService) ParseVerificationToken(
	ctx context.Context,
	token string,
	maxAge time.Duration,
) (*PendingRegistration, error) {
	sealed, err := s.codec.Open(token, s.clock.Now(), maxAge)
	if err != nil {
		logger.FromContext(ctx).Debug("verification token rejected", "error", err)
		return nil, err
	}

	reg := sealed.Payload
	if reg.Email == "" || reg.PasswordHash == "" {
		return nil, ErrInvalidToken
	}
	reg.IssuedAt = sealed.IssuedAt
	return &reg, nil
}
