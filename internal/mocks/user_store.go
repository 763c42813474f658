package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdigest-api/internal/domain"
	"github.com/phrazzld/taskdigest-api/internal/store"
)

// MockUserStore implements store.UserStore in memory.
type MockUserStore struct {
	CreateFn       func(ctx context.Context, user *domain.User) error
	GetByEmailFn   func(ctx context.Context, email string) (*domain.User, error)
	GetByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	MarkVerifiedFn func(ctx context.Context, id uuid.UUID, at time.Time) error
	ListFn         func(ctx context.Context) ([]*domain.User, error)

	mu          sync.Mutex
	byEmail     map[string]*domain.User
	createCalls int
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates an empty store.
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{byEmail: make(map[string]*domain.User)}
}

// Seed inserts users directly, bypassing CreateFn.
func (m *MockUserStore) Seed(users ...*domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		cp := *u
		m.byEmail[u.Email] = &cp
	}
}

// Count returns the number of stored users.
func (m *MockUserStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byEmail)
}

// CreateCalls returns how many times Create was invoked.
func (m *MockUserStore) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

// Create implements store.UserStore.
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()

	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[user.Email]; exists {
		return store.ErrEmailExists
	}
	cp := *user
	m.byEmail[user.Email] = &cp
	return nil
}

// GetByEmail implements store.UserStore.
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetByID implements store.UserStore.
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// MarkVerified implements store.UserStore.
func (m *MockUserStore) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.MarkVerifiedFn != nil {
		return m.MarkVerifiedFn(ctx, id, at)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			if !u.EmailVerified {
				u.EmailVerified = true
				u.UpdatedAt = at
			}
			return nil
		}
	}
	return store.ErrUserNotFound
}

// List implements store.UserStore. Users are ordered by creation time.
func (m *MockUserStore) List(ctx context.Context) ([]*domain.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]*domain.User, 0, len(m.byEmail))
	for _, u := range m.byEmail {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Email < users[j].Email
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}
