package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdigest-api/internal/domain"
)

// RegisterRequest defines the payload for the registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterResponse is returned once the verification email is sent.
type RegisterResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse defines the successful response for the login endpoint.
type LoginResponse struct {
	Message     string    `json:"message"`
	AccessToken string    `json:"access_token"`
	UserID      uuid.UUID `json:"user_id"`
	// ExpiresAt is the RFC 3339 timestamp when the access token expires
	ExpiresAt string `json:"expires_at"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title   string       `json:"title"`
	Details string       `json:"details"`
	DueDate OptionalTime `json:"due_date"`
}

// UpdateTaskRequest is a partial update. Absent fields are left unchanged;
// a null or empty due_date clears it.
type UpdateTaskRequest struct {
	Title     *string      `json:"title"`
	Details   *string      `json:"details"`
	DueDate   OptionalTime `json:"due_date"`
	Completed *bool        `json:"completed"`
}

// Changes converts the request into a domain change set.
func (r UpdateTaskRequest) Changes() domain.TaskChanges {
	changes := domain.TaskChanges{
		Title:     r.Title,
		Details:   r.Details,
		Completed: r.Completed,
	}
	if r.DueDate.Set {
		if r.DueDate.Value == nil {
			changes.ClearDueDate = true
		} else {
			changes.DueDate = r.DueDate.Value
		}
	}
	return changes
}

// TaskResponse is the JSON representation of a task.
type TaskResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Details   string    `json:"details"`
	DueDate   *string   `json:"due_date"`
	Completed bool      `json:"completed"`
	CreatedAt string    `json:"created_at"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Details:   t.Details,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC().Format(time.RFC3339)
		resp.DueDate = &due
	}
	return resp
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t))
	}
	return out
}
