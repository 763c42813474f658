package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdigest-api/internal/domain"
	"github.com/phrazzld/taskdigest-api/internal/store"
)

// MockTaskStore implements store.TaskStore in memory. Insertion order is
// used as creation order.
type MockTaskStore struct {
	ListByUserFn func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
	CreateFn     func(ctx context.Context, task *domain.Task) error

	mu    sync.Mutex
	tasks []*domain.Task
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty store.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{}
}

// Seed appends tasks directly.
func (m *MockTaskStore) Seed(tasks ...*domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		cp := *t
		m.tasks = append(m.tasks, &cp)
	}
}

// ListByUser implements store.TaskStore.
func (m *MockTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Task, 0)
	for _, t := range m.tasks {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// GetByID implements store.TaskStore.
func (m *MockTaskStore) GetByID(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, _ := m.find(userID, taskID)
	if t == nil {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

// Create implements store.TaskStore.
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	m.Seed(task)
	return nil
}

// Update implements store.TaskStore. The store lock is held while fn runs.
func (m *MockTaskStore) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	fn store.TaskUpdateFn,
) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, i := m.find(userID, taskID)
	if t == nil {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	if err := fn(&cp); err != nil {
		return nil, err
	}
	m.tasks[i] = &cp
	out := cp
	return &out, nil
}

// Delete implements store.TaskStore.
func (m *MockTaskStore) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, i := m.find(userID, taskID)
	if t == nil {
		return store.ErrTaskNotFound
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	return nil
}

func (m *MockTaskStore) find(userID, taskID uuid.UUID) (*domain.Task, int) {
	for i, t := range m.tasks {
		if t.ID == taskID && t.UserID == userID {
			return t, i
		}
	}
	return nil, -1
}
