// Package mocks provides centralized test doubles for the store, token and
// mail interfaces.
//
// The store mocks are working in-memory implementations guarded by a mutex:
// MockUserStore enforces email uniqueness the way the database does, so
// flow tests and concurrency tests can run without PostgreSQL. Each mock also
// exposes function fields that override the default behavior per method:
//
//	users := mocks.NewMockUserStore()
//	users.CreateFn = func(ctx context.Context, u *domain.User) error {
//	    return errors.New("disk full")
//	}
package mocks
