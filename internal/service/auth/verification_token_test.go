package auth

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/taskdigest-api/internal/config"
	"github.com/phrazzld/taskdigest-api/internal/platform/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationToken_RoundTrip(t *testing.T) {
	ctx := context.Background()
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewManual(issued)

	svc, err := NewVerificationTokenService(config.AuthConfig{VerificationSecret: testSecret}, clk)
	require.NoError(t, err)

	token, err := svc.IssueVerificationToken(ctx, PendingRegistration{
		Email:        "new@example.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
	})
	require.NoError(t, err)

	clk.Advance(59 * time.Minute)
	reg, err := svc.ParseVerificationToken(ctx, token, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", reg.Email)
	assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuv", reg.PasswordHash)
	assert.Equal(t, issued, reg.IssuedAt.UTC())
}

func TestVerificationToken_Expired(t *testing.T) {
	ctx := context.Background()
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewManual(issued)

	svc, err := newHMACVerificationTokenService(testSecret, clk)
	require.NoError(t, err)

	token, err := svc.IssueVerificationToken(ctx, PendingRegistration{
		Email:        "late@example.com",
		PasswordHash: "$2a$10$hash",
		IssuedAt:     issued,
	})
	require.NoError(t, err)

	clk.Advance(3601 * time.Second)
	_, err = svc.ParseVerificationToken(ctx, token, time.Hour)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = svc.ParseVerificationToken(ctx, token, 2*time.Hour)
	assert.NoError(t, err, "max age is chosen by the caller at parse time")
}

func TestVerificationToken_Invalid(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	svc, err := newHMACVerificationTokenService(testSecret, clk)
	require.NoError(t, err)

	t.Run("missing password hash", func(t *testing.T) {
		token, err := svc.IssueVerificationToken(ctx, PendingRegistration{Email: "x@example.com"})
		require.NoError(t, err)

		_, err = svc.ParseVerificationToken(ctx, token, time.Hour)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("session token presented for verification", func(t *testing.T) {
		sessions, err := newHMACJWTService(testSecret, time.Hour, clk)
		require.NoError(t, err)
		token, err := sessions.codec.Seal(sessionPayload{}, "someone", clk.Now(), time.Hour)
		require.NoError(t, err)

		_, err = svc.ParseVerificationToken(ctx, token, time.Hour)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("different secret", func(t *testing.T) {
		other, err := newHMACVerificationTokenService(otherTestSecret, clk)
		require.NoError(t, err)
		token, err := other.IssueVerificationToken(ctx, PendingRegistration{
			Email:        "x@example.com",
			PasswordHash: "$2a$10$hash",
		})
		require.NoError(t, err)

		_, err = svc.ParseVerificationToken(ctx, token, time.Hour)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerificationToken_PayloadNamesTheHash(t *testing.T) {
	svc, err := newHMACVerificationTokenService(testSecret, clock.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	token, err := svc.IssueVerificationToken(context.Background(), PendingRegistration{
		Email:        "new@example.com",
		PasswordHash: "$2a$10$hash",
	})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	assert.Contains(t, string(payload), `"password_hash":"$2a$10$hash"`)
	assert.NotContains(t, string(payload), `"password":`)
}
