package service

import "errors"

// Sentinel errors returned by the account and task services. Callers check
// them with errors.Is; the API layer maps each to an HTTP status.
//
// Token failures are reported with auth.ErrExpiredToken and auth.ErrInvalidToken.
var (
	// ErrInvalidInput indicates malformed email, password or task fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates the email already belongs to a registered user.
	ErrConflict = errors.New("email already registered")

	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password so the two cannot be told apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotVerified indicates correct credentials for an unverified user.
	ErrNotVerified = errors.New("email not verified")

	// ErrMailDelivery indicates the verification email could not be sent.
	// Nothing was persisted, so the request can be retried.
	ErrMailDelivery = errors.New("failed to send verification email")

	// ErrPersistence wraps unexpected storage failures.
	ErrPersistence = errors.New("persistence failure")

	// ErrTaskNotFound indicates the task does not exist or belongs to another user.
	ErrTaskNotFound = errors.New("task not found")
)
