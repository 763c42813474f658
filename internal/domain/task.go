package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTitleLength is the maximum number of characters in a task title.
const MaxTitleLength = 100

// Task is a single to-do item owned by one user.
type Task struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Details   string     `json:"details"`
	DueDate   *time.Time `json:"due_date"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewTask creates a task for the given owner. The title is trimmed.
func NewTask(userID uuid.UUID, title, details string, dueDate *time.Time, now time.Time) (*Task, error) {
	now = now.UTC()
	task := &Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     strings.TrimSpace(title),
		Details:   details,
		DueDate:   normalizeDue(dueDate),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil || t.UserID == uuid.Nil {
		return ErrInvalidID
	}
	return ValidateTitle(t.Title)
}

// ValidateTitle checks that a title is non-blank and within MaxTitleLength.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// TaskChanges is a partial update. Nil fields are left untouched.
// ClearDueDate removes the due date and takes precedence over DueDate.
type TaskChanges struct {
	Title        *string
	Details      *string
	DueDate      *time.Time
	ClearDueDate bool
	Completed    *bool
}

// IsEmpty reports whether the changes would leave a task unmodified.
func (c TaskChanges) IsEmpty() bool {
	return c.Title == nil && c.Details == nil && c.DueDate == nil && !c.ClearDueDate && c.Completed == nil
}

// Apply mutates t with the requested changes and bumps UpdatedAt.
// t is left unchanged when the result would be invalid.
func (c TaskChanges) Apply(t *Task, now time.Time) error {
	next := *t

	if c.Title != nil {
		next.Title = strings.TrimSpace(*c.Title)
	}
	if c.Details != nil {
		next.Details = *c.Details
	}
	switch {
	case c.ClearDueDate:
		next.DueDate = nil
	case c.DueDate != nil:
		next.DueDate = normalizeDue(c.DueDate)
	}
	if c.Completed != nil {
		next.Completed = *c.Completed
	}

	if err := next.Validate(); err != nil {
		return err
	}

	next.UpdatedAt = now.UTC()
	*t = next
	return nil
}

func normalizeDue(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	utc := due.UTC()
	return &utc
}
