package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdigest-api/internal/domain"
)

// TaskUpdateFn mutates a task loaded inside the update transaction.
// Returning an error aborts the update and rolls back.
type TaskUpdateFn func(task *domain.Task) error

// TaskStore defines the interface for task data persistence.
// Every read and write other than Create is scoped to the owning user; a
// task that exists but belongs to someone else is reported as ErrTaskNotFound.
type TaskStore interface {
	// ListByUser returns the user's tasks in creation order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// GetByID retrieves one of the user's tasks.
	GetByID(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// Create saves a new task.
	// Returns ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// Update loads the task, applies fn and persists the result atomically.
	Update(ctx context.Context, userID, taskID uuid.UUID, fn TaskUpdateFn) (*domain.Task, error)

	// Delete removes one of the user's tasks.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}
