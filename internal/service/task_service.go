package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdigest-api/internal/domain"
	"github.com/phrazzld/taskdigest-api/internal/platform/clock"
	"github.com/phrazzld/taskdigest-api/internal/platform/logger"
	"github.com/phrazzld/taskdigest-api/internal/redact"
	"github.com/phrazzld/taskdigest-api/internal/store"
)

// TaskService manages a user's own tasks. Every method is scoped to userID;
// tasks of other users are reported as ErrTaskNotFound.
type TaskService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, changes domain.TaskChanges) (*domain.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}

// CreateTaskInput holds the fields of a new task.
type CreateTaskInput struct {
	Title   string
	Details string
	DueDate *time.Time
}

type taskService struct {
	tasks  store.TaskStore
	clock  clock.Clock
	logger *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(tasks store.TaskStore, clk clock.Clock, log *slog.Logger) (TaskService, error) {
	if tasks == nil {
		return nil, errors.New("task service: task store cannot be nil")
	}
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &taskService{tasks: tasks, clock: clk, logger: log.With("component", "task_service")}, nil
}

// List returns the user's tasks in creation order.
func (s *taskService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.storeError(ctx, "list", err)
	}
	return tasks, nil
}

// Get returns one of the user's tasks.
func (s *taskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, s.storeError(ctx, "get", err)
	}
	return task, nil
}

// Create validates and stores a new task.
func (s *taskService) Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*domain.Task, error) {
	task, err := domain.NewTask(userID, input.Title, input.Details, input.DueDate, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, s.storeError(ctx, "create", err)
	}
	return task, nil
}

// Update applies a partial change. An empty change set returns the task unmodified.
func (s *taskService) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	changes domain.TaskChanges,
) (*domain.Task, error) {
	if changes.IsEmpty() {
		return s.Get(ctx, userID, taskID)
	}

	var validationErr error
	task, err := s.tasks.Update(ctx, userID, taskID, func(task *domain.Task) error {
		if err := changes.Apply(task, s.clock.Now()); err != nil {
			validationErr = err
			return err
		}
		return nil
	})
	if validationErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, validationErr)
	}
	if err != nil {
		return nil, s.storeError(ctx, "update", err)
	}
	return task, nil
}

// Delete removes one of the user's tasks.
func (s *taskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if err := s.tasks.Delete(ctx, userID, taskID); err != nil {
		return s.storeError(ctx, "delete", err)
	}
	return nil
}

func (s *taskService) storeError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, store.ErrInvalidEntity):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Error("task store failure",
		"operation", op,
		"error", redact.Error(err))
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
