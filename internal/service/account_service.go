package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdigest-api/internal/domain"
	"github.com/phrazzld/taskdigest-api/internal/mail"
	"github.com/phrazzld/taskdigest-api/internal/platform/clock"
	"github.com/phrazzld/taskdigest-api/internal/platform/logger"
	"github.com/phrazzld/taskdigest-api/internal/redact"
	"github.com/phrazzld/taskdigest-api/internal/service/auth"
	"github.com/phrazzld/taskdigest-api/internal/store"
)

// VerifyPath is the route prefix embedded in verification links.
const VerifyPath = "/api/verify_email/"

// AccountService handles registration, email verification, login and
// session authentication.
type AccountService interface {
	// Register validates the credentials and emails a verification link.
	// No user exists until the link is followed.
	Register(ctx context.Context, email, password string) (*RegistrationResult, error)

	// Verify confirms a registration. It never fails; the outcome is
	// described by the returned result.
	Verify(ctx context.Context, token string) VerificationResult

	// Login checks credentials and issues a session token.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Authenticate validates a session token and returns its user id.
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// RegistrationResult is returned by a successful Register.
type RegistrationResult struct {
	Email string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
}

// VerificationStatus is the outcome class of a verification attempt.
type VerificationStatus string

// Verification statuses.
const (
	VerificationSuccess VerificationStatus = "success"
	VerificationError   VerificationStatus = "error"
)

// VerificationReason classifies a failed verification.
type VerificationReason string

// Verification failure reasons. Successful results carry ReasonNone.
const (
	ReasonNone        VerificationReason = ""
	ReasonExpired     VerificationReason = "expired"
	ReasonInvalid     VerificationReason = "invalid"
	ReasonPersistence VerificationReason = "persistence"
)

// VerificationResult describes the outcome of Verify.
type VerificationResult struct {
	Status  VerificationStatus
	Message string
	Reason  VerificationReason
	Email   string
}

// OK reports whether the verification succeeded.
func (r VerificationResult) OK() bool { return r.Status == VerificationSuccess }

// AccountConfig holds the settings AccountService needs.
type AccountConfig struct {
	// BaseURL is the public origin verification links point at.
	BaseURL            string
	VerificationMaxAge time.Duration
	SessionLifetime    time.Duration
	// MailTimeout bounds a single verification email send.
	MailTimeout time.Duration
}

// AccountDeps are the collaborators of AccountService.
type AccountDeps struct {
	Users     store.UserStore
	Passwords auth.PasswordCodec
	Verifier  auth.VerificationTokenService
	Sessions  auth.JWTService
	Mailer    mail.Mailer
	Clock     clock.Clock
	Logger    *slog.Logger
}

type accountService struct {
	cfg       AccountConfig
	users     store.UserStore
	passwords auth.PasswordCodec
	verifier  auth.VerificationTokenService
	sessions  auth.JWTService
	mailer    mail.Mailer
	clock     clock.Clock
	logger    *slog.Logger

	// dummyHash is compared against on unknown emails so Login takes about
	// as long as it does for a wrong password.
	dummyHash string
}

// NewAccountService creates an AccountService.
func NewAccountService(cfg AccountConfig, deps AccountDeps) (AccountService, error) {
	if deps.Users == nil || deps.Passwords == nil || deps.Verifier == nil ||
		deps.Sessions == nil || deps.Mailer == nil {
		return nil, errors.New("account service: missing dependency")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("account service: base URL cannot be empty")
	}
	if cfg.VerificationMaxAge <= 0 || cfg.SessionLifetime <= 0 || cfg.MailTimeout <= 0 {
		return nil, errors.New("account service: durations must be positive")
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	dummy, err := deps.Passwords.Hash("timing-equalizer-not-a-password")
	if err != nil {
		return nil, fmt.Errorf("account service: %w", err)
	}

	return &accountService{
		cfg:       cfg,
		users:     deps.Users,
		passwords: deps.Passwords,
		verifier:  deps.Verifier,
		sessions:  deps.Sessions,
		mailer:    deps.Mailer,
		clock:     deps.Clock,
		logger:    deps.Logger.With("component", "account_service"),
		dummyHash: dummy,
	}, nil
}

// validateCredentials normalizes email and checks both fields.
func validateCredentials(email, password string) (string, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := domain.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return email, nil
}

// Register implements AccountService.
func (s *accountService) Register(ctx context.Context, email, password string) (*RegistrationResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}

	_, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrConflict
	case !errors.Is(err, store.ErrUserNotFound):
		log.Error("failed to check existing user", "error", redact.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := s.verifier.IssueVerificationToken(ctx, auth.PendingRegistration{
		Email:        email,
		PasswordHash: hash,
		IssuedAt:     s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue verification token: %w", err)
	}

	msg, err := mail.VerificationMessage(email, s.verificationLink(token), humanDuration(s.cfg.VerificationMaxAge))
	if err != nil {
		return nil, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.MailTimeout)
	defer cancel()
	if err := s.mailer.Send(sendCtx, msg); err != nil {
		log.Warn("verification email not sent", "error", redact.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	log.Info("verification email sent")
	return &RegistrationResult{Email: email}, nil
}

func (s *accountService) verificationLink(token string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + VerifyPath + url.PathEscape(token)
}

// Verify implements AccountService.
func (s *accountService) Verify(ctx context.Context, token string) VerificationResult {
	log := logger.FromContextOrDefault(ctx, s.logger)

	reg, err := s.verifier.ParseVerificationToken(ctx, token, s.cfg.VerificationMaxAge)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return VerificationResult{
				Status:  VerificationError,
				Message: "Verification link has expired.",
				Reason:  ReasonExpired,
			}
		}
		return invalidVerification()
	}

	email := domain.NormalizeEmail(reg.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return s.confirmExisting(ctx, existing)
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return persistenceFailure(log, email, err)
	}

	user, err := domain.NewVerifiedUser(email, reg.PasswordHash, s.clock.Now())
	if err != nil {
		log.Warn("verification token carried an unusable payload", "error", err)
		return invalidVerification()
	}

	err = s.users.Create(ctx, user)
	if errors.Is(err, store.ErrEmailExists) {
		// A concurrent verification of the same link won the insert.
		existing, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return persistenceFailure(log, email, err)
		}
		return s.confirmExisting(ctx, existing)
	}
	if err != nil {
		return persistenceFailure(log, email, err)
	}

	log.Info("user verified and created", "user_id", user.ID)
	return verifiedSuccessfully(email)
}

func (s *accountService) confirmExisting(ctx context.Context, user *domain.User) VerificationResult {
	if user.EmailVerified {
		return VerificationResult{
			Status:  VerificationSuccess,
			Message: fmt.Sprintf("Email %s already verified.", user.Email),
			Email:   user.Email,
		}
	}

	if err := s.users.MarkVerified(ctx, user.ID, s.clock.Now()); err != nil {
		return persistenceFailure(logger.FromContextOrDefault(ctx, s.logger), user.Email, err)
	}
	return verifiedSuccessfully(user.Email)
}

func verifiedSuccessfully(email string) VerificationResult {
	return VerificationResult{
		Status:  VerificationSuccess,
		Message: fmt.Sprintf("Email %s verified successfully", email),
		Email:   email,
	}
}

func invalidVerification() VerificationResult {
	return VerificationResult{
		Status:  VerificationError,
		Message: "Invalid verification token.",
		Reason:  ReasonInvalid,
	}
}

func persistenceFailure(log *slog.Logger, email string, err error) VerificationResult {
	reason := redact.Error(err)
	log.Error("failed to persist verified user", "error", reason)
	return VerificationResult{
		Status:  VerificationError,
		Message: "Failed to create user: " + reason,
		Reason:  ReasonPersistence,
		Email:   email,
	}
}

// Login implements AccountService.
func (s *accountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.passwords.Verify(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to load user for login", "error", redact.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if !s.passwords.Verify(user.HashedPassword, password) {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrNotVerified
	}

	issuedAt := s.clock.Now()
	token, err := s.sessions.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	log.Info("user logged in", "user_id", user.ID)
	return &LoginResult{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: issuedAt.Add(s.cfg.SessionLifetime),
	}, nil
}

// Authenticate implements AccountService.
func (s *accountService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := s.sessions.ValidateToken(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return uuid.Nil, auth.ErrExpiredToken
		}
		return uuid.Nil, auth.ErrInvalidToken
	}
	return claims.UserID, nil
}

// humanDuration renders whole hours and minutes the way a person would.
func humanDuration(d time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", unit)
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int64(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int64(d/time.Minute), "minute")
	default:
		return d.String()
	}
}
