package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdigest-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store.
	// Returns ErrEmailExists if the email is already taken; this is the
	// signal a concurrent verification uses to fall back to a re-read.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their normalized email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// MarkVerified sets EmailVerified on an existing user. It is a no-op for
	// a user that is already verified.
	// Returns ErrUserNotFound if the user does not exist.
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error

	// List returns every user ordered by creation time.
	List(ctx context.Context) ([]*domain.User, error)
}
