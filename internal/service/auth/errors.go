package auth

import "errors"

// Common token errors. Every token failure is reported as exactly one of
// these so callers never need to inspect jwt library errors.
var (
	// ErrInvalidToken indicates the token format is invalid, its signature
	// doesn't match, it was minted for another purpose, or its payload is incomplete.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates a correctly signed token that is past its validity window.
	ErrExpiredToken = errors.New("token has expired")
)
