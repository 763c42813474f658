package service_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdigest-api/internal/config"
	"github.com/phrazzld/taskdigest-api/internal/domain"
	"github.com/phrazzld/taskdigest-api/internal/mail"
	"github.com/phrazzld/taskdigest-api/internal/mocks"
	"github.com/phrazzld/taskdigest-api/internal/platform/clock"
	"github.com/phrazzld/taskdigest-api/internal/service"
	"github.com/phrazzld/taskdigest-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testBaseURL  = "https://tasks.example.com"
	testPassword = "correct-horse-battery"
)

var testAuthConfig = config.AuthConfig{
	JWTSecret:                 "thisisasecretkeythatis32charslong!!",
	VerificationSecret:        "another-secret-key-that-is-32-chars!!",
	TokenLifetimeMinutes:      60,
	VerificationMaxAgeSeconds: 3600,
}

type accountFixture struct {
	svc       service.AccountService
	users     *mocks.MockUserStore
	mailer    *mocks.MockMailer
	passwords *mocks.MockPasswordCodec
	clock     *clock.Manual
}

func newAccountFixture(t *testing.T, mailer mail.Mailer) *accountFixture {
	t.Helper()

	clk := clock.NewManual(time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC))
	verifier, err := auth.NewVerificationTokenService(testAuthConfig, clk)
	require.NoError(t, err)
	sessions, err := auth.NewJWTService(testAuthConfig, clk)
	require.NoError(t, err)

	f := &accountFixture{
		users:     mocks.NewMockUserStore(),
		mailer:    &mocks.MockMailer{},
		passwords: &mocks.MockPasswordCodec{},
		clock:     clk,
	}
	if mailer == nil {
		mailer = f.mailer
	}

	f.svc, err = service.NewAccountService(service.AccountConfig{
		BaseURL:            testBaseURL,
		VerificationMaxAge: testAuthConfig.VerificationMaxAge(),
		SessionLifetime:    testAuthConfig.TokenLifetime(),
		MailTimeout:        5 * time.Second,
	}, service.AccountDeps{
		Users:     f.users,
		Passwords: f.passwords,
		Verifier:  verifier,
		Sessions:  sessions,
		Mailer:    mailer,
		Clock:     clk,
	})
	require.NoError(t, err)
	return f
}

// tokenFromLastMail extracts the verification token from the most recent message.
func (f *accountFixture) tokenFromLastMail(t *testing.T) string {
	t.Helper()
	msg, ok := f.mailer.Last()
	require.True(t, ok, "expected a verification email")

	i := strings.Index(msg.Text, service.VerifyPath)
	require.GreaterOrEqual(t, i, 0, "verification link missing from email body")
	rest := msg.Text[i+len(service.VerifyPath):]
	if end := strings.IndexAny(rest, " \n"); end >= 0 {
		rest = rest[:end]
	}
	token, err := url.PathUnescape(rest)
	require.NoError(t, err)
	return token
}

func (f *accountFixture) register(t *testing.T, email string) string {
	t.Helper()
	_, err := f.svc.Register(context.Background(), email, testPassword)
	require.NoError(t, err)
	return f.tokenFromLastMail(t)
}

func TestRegisterVerifyLogin_RoundTrip(t *testing.T) {
	f := newAccountFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, "  New.User@Example.com ", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", res.Email)
	assert.Equal(t, 0, f.users.Count(), "registration must not persist a user")

	msg, ok := f.mailer.Last()
	require.True(t, ok)
	assert.Equal(t, "new.user@example.com", msg.To)
	assert.Equal(t, mail.VerificationSubject, msg.Subject)
	assert.Contains(t, msg.Text, testBaseURL+service.VerifyPath)
	assert.NotContains(t, msg.Text, testPassword)

	token := f.tokenFromLastMail(t)
	result := f.svc.Verify(ctx, token)
	assert.True(t, result.OK())
	assert.Equal(t, "Email new.user@example.com verified successfully", result.Message)
	assert.Equal(t, service.ReasonNone, result.Reason)
	assert.Equal(t, 1, f.users.Count())

	stored, err := f.users.GetByEmail(ctx, "new.user@example.com")
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
	assert.NotEqual(t, testPassword, stored.HashedPassword)

	login, err := f.svc.Login(ctx, "NEW.USER@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, login.UserID)
	assert.Equal(t, f.clock.Now().Add(time.Hour), login.ExpiresAt)

	userID, err := f.svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, userID)
}

func TestVerify_Idempotent(t *testing.T) {
	f := newAccountFixture(t, nil)
	ctx := context.Background()
	token := f.register(t, "twice@example.com")

	first := f.svc.Verify(ctx, token)
	second := f.svc.Verify(ctx, token)

	assert.True(t, first.OK())
	assert.True(t, second.OK())
	assert.Equal(t, "Email twice@example.com already verified.", second.Message)
	assert.Equal(t, 1, f.users.Count())
}

func TestVerify_Expired(t *testing.T) {
	f := newAccountFixture(t, nil)
	token := f.register(t, "late@example.com")

	f.clock.Advance(3601 * time.Second)
	result := f.svc.Verify(context.Background(), token)

	assert.False(t, result.OK())
	assert.Equal(t, service.ReasonExpired, result.Reason)
	assert.Equal(t, "Verification link has expired.", result.Message)
	assert.Equal(t, 0, f.users.Count())
}

func TestVerify_Tampered(t *testing.T) {
	f := newAccountFixture(t, nil)
	tokenA := f.register(t, "a@example.com")
	tokenB := f.register(t, "b@example.com")

	a := strings.Split(tokenA, ".")
	b := strings.Split(tokenB, ".")
	require.Len(t, a, 3)
	require.Len(t, b, 3)

	for name, token := range map[string]string{
		"payload swapped":           a[0] + "." + b[1] + "." + a[2],
		"signature low bit flipped": flipLastBit(tokenA),
		"garbage":                   "definitely-not-a-token",
		"empty":                     "",
	} {
		t.Run(name, func(t *testing.T) {
			result := f.svc.Verify(context.Background(), token)
			assert.False(t, result.OK())
			assert.Equal(t, service.ReasonInvalid, result.Reason)
			assert.Equal(t, "Invalid verification token.", result.Message)
		})
	}
	assert.Equal(t, 0, f.users.Count())
}

// flipLastBit toggles the lowest bit of the final base64url character, which
// carries no signature data in an HS256 token.
func flipLastBit(token string) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	last := len(token) - 1
	idx := strings.IndexByte(alphabet, token[last])
	return token[:last] + string(alphabet[idx^1])
}

func TestVerify_SessionTokenRejected(t *testing.T) {
	f := newAccountFixture(t, nil)
	sessions, err := auth.NewJWTService(testAuthConfig, f.clock)
	require.NoError(t, err)
	token, err := sessions.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	result := f.svc.Verify(context.Background(), token)
	assert.Equal(t, service.ReasonInvalid, result.Reason)
}

func TestVerify_ConcurrentClicksCreateOneUser(t *testing.T) {
	f := newAccountFixture(t, nil)
	token := f.register(t, "race@example.com")

	const clicks = 16
	results := make([]service.VerificationResult, clicks)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = f.svc.Verify(context.Background(), token)
		}(i)
	}
	close(start)
	wg.Wait()

	created := 0
	for _, r := range results {
		assert.True(t, r.OK(), r.Message)
		if strings.HasSuffix(r.Message, "verified successfully") {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, f.users.Count())
}

func TestVerify_PersistenceFailure(t *testing.T) {
	f := newAccountFixture(t, nil)
	token := f.register(t, "fail@example.com")
	f.users.CreateFn = func(ctx context.Context, user *domain.User) error {
		return errors.New("disk full")
	}

	result := f.svc.Verify(context.Background(), token)
	assert.False(t, result.OK())
	assert.Equal(t, service.ReasonPersistence, result.Reason)
	assert.Equal(t, "Failed to create user: disk full", result.Message)
}

func TestVerify_UnverifiedExistingUserIsMarked(t *testing.T) {
	f := newAccountFixture(t, nil)
	token := f.register(t, "pending@example.com")

	f.users.Seed(&domain.User{
		ID:             uuid.New(),
		Email:          "pending@example.com",
		HashedPassword: "mockhash:" + testPassword,
		EmailVerified:  false,
	})

	result := f.svc.Verify(context.Background(), token)
	assert.Equal(t, "Email pending@example.com verified successfully", result.Message)

	u, err := f.users.GetByEmail(context.Background(), "pending@example.com")
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	assert.Equal(t, 0, f.users.CreateCalls())
}

func TestRegister_Errors(t *testing.T) {
	t.Run("invalid input", func(t *testing.T) {
		f := newAccountFixture(t, nil)
		for _, tc := range []struct{ email, password string }{
			{"not-an-email", testPassword},
			{"", testPassword},
			{"ok@example.com", "short"},
			{"ok@example.com", strings.Repeat("p", 73)},
		} {
			_, err := f.svc.Register(context.Background(), tc.email, tc.password)
			assert.ErrorIs(t, err, service.ErrInvalidInput, "%q/%q", tc.email, tc.password)
		}
		assert.Empty(t, f.mailer.Sent())
	})

	t.Run("already registered", func(t *testing.T) {
		f := newAccountFixture(t, nil)
		user, err := domain.NewVerifiedUser("taken@example.com", "mockhash:x", f.clock.Now())
		require.NoError(t, err)
		f.users.Seed(user)

		_, err = f.svc.Register(context.Background(), "Taken@Example.com", testPassword)
		assert.ErrorIs(t, err, service.ErrConflict)
		assert.Empty(t, f.mailer.Sent())
	})

	t.Run("mail delivery failure", func(t *testing.T) {
		mailer := &mocks.TestifyMockMailer{}
		mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
			return msg.To == "unlucky@example.com"
		})).Return(mail.ErrDelivery).Once()

		f := newAccountFixture(t, mailer)
		_, err := f.svc.Register(context.Background(), "unlucky@example.com", testPassword)
		assert.ErrorIs(t, err, service.ErrMailDelivery)
		assert.Equal(t, 0, f.users.Count())
		mailer.AssertExpectations(t)
	})

	t.Run("hash failure", func(t *testing.T) {
		f := newAccountFixture(t, nil)
		f.passwords.HashFn = func(string) (string, error) { return "", errors.New("entropy exhausted") }

		_, err := f.svc.Register(context.Background(), "ok@example.com", testPassword)
		assert.Error(t, err)
		assert.Empty(t, f.mailer.Sent())
	})
}

func TestLogin_Errors(t *testing.T) {
	f := newAccountFixture(t, nil)
	ctx := context.Background()

	verified, err := domain.NewVerifiedUser("known@example.com", "mockhash:"+testPassword, f.clock.Now())
	require.NoError(t, err)
	unverified := &domain.User{
		ID:             uuid.New(),
		Email:          "unverified@example.com",
		HashedPassword: "mockhash:" + testPassword,
	}
	f.users.Seed(verified, unverified)

	_, unknownErr := f.svc.Login(ctx, "nobody@example.com", testPassword)
	_, wrongErr := f.svc.Login(ctx, "known@example.com", "wrong-password")

	assert.ErrorIs(t, unknownErr, service.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, service.ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error(), "unknown user and wrong password must be indistinguishable")
	assert.Equal(t, 2, f.passwords.VerifyCallCount, "unknown user still performs a comparison")

	_, err = f.svc.Login(ctx, "unverified@example.com", testPassword)
	assert.ErrorIs(t, err, service.ErrNotVerified)

	_, err = f.svc.Login(ctx, "unverified@example.com", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials, "credentials are checked before verification state")

	_, err = f.svc.Login(ctx, "bad-email", testPassword)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestAuthenticate(t *testing.T) {
	f := newAccountFixture(t, nil)
	ctx := context.Background()

	user, err := domain.NewVerifiedUser("session@example.com", "mockhash:"+testPassword, f.clock.Now())
	require.NoError(t, err)
	f.users.Seed(user)

	login, err := f.svc.Login(ctx, "session@example.com", testPassword)
	require.NoError(t, err)

	f.clock.Advance(59 * time.Minute)
	id, err := f.svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	f.clock.Advance(10 * time.Minute)
	_, err = f.svc.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)

	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestNewAccountService_Validation(t *testing.T) {
	_, err := service.NewAccountService(service.AccountConfig{}, service.AccountDeps{})
	assert.Error(t, err)
}
