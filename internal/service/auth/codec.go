package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the minimum length of a configured signing secret.
const MinSecretLength = 32

// Token purposes. Each purpose signs with its own derived key and is
// checked as the audience, so a token minted for one never verifies as another.
const (
	PurposeSession           = "session"
	PurposeEmailVerification = "email-verification"
)

// codecClaims carries a typed payload next to the registered JWT claims.
type codecClaims[P any] struct {
	Payload P `json:"dat"`
	jwt.RegisteredClaims
}

// Codec signs and verifies payloads of type P as HS256 JWTs bound to one purpose.
type Codec[P any] struct {
	purpose string
	key     []byte
	leeway  time.Duration
}

// NewCodec derives a purpose-specific key from secret using HKDF-SHA256.
func NewCodec[P any](secret, purpose string, leeway time.Duration) (*Codec[P], error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%s secret must be at least %d characters", purpose, MinSecretLength)
	}
	if purpose == "" {
		return nil, errors.New("token purpose cannot be empty")
	}

	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("failed to derive %s signing key: %w", purpose, err)
	}

	return &Codec[P]{purpose: purpose, key: key, leeway: leeway}, nil
}

// Sealed is the verified content of a token.
type Sealed[P any] struct {
	Payload   P
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token has no expiry
}

// Seal signs payload, issued at now. A zero ttl produces a token without exp;
// such tokens are bounded by the max age the caller passes to Open.
// iat and exp have whole-second precision, so a token can expire up to one
// second before now+ttl.
func (c *Codec[P]) Seal(payload P, subject string, now time.Time, ttl time.Duration) (string, error) {
	claims := codecClaims[P]{
		Payload: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			Audience: jwt.ClaimStrings{c.purpose},
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.New().String(),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token with HMAC-SHA256: %w", c.purpose, err)
	}
	return signed, nil
}

// Open verifies a token at time now. When maxAge is positive the token is
// also rejected as expired once iat + maxAge has passed, whether or not it
// carries exp. Signature and purpose are checked before any expiry.
func (c *Codec[P]) Open(tokenString string, now time.Time, maxAge time.Duration) (*Sealed[P], error) {
	claims := &codecClaims[P]{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return c.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithStrictDecoding(),
		jwt.WithAudience(c.purpose),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	issuedAt := claims.IssuedAt.Time
	if maxAge > 0 && now.After(issuedAt.Add(maxAge)) {
		return nil, ErrExpiredToken
	}

	sealed := &Sealed[P]{
		Payload:  claims.Payload,
		Subject:  claims.Subject,
		ID:       claims.ID,
		IssuedAt: issuedAt,
	}
	if claims.ExpiresAt != nil {
		sealed.ExpiresAt = claims.ExpiresAt.Time
	}
	return sealed, nil
}
