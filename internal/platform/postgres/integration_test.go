//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/taskdigest-api/internal/domain"
	"github.com/phrazzld/taskdigest-api/internal/platform/postgres"
	"github.com/phrazzld/taskdigest-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openIntegrationDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, postgres.Migrate(ctx, db, postgres.MigrateUp, nil))
	return db
}

func TestIntegration_ConcurrentUserCreateKeepsOneRow(t *testing.T) {
	db := openIntegrationDB(t)
	users := postgres.NewPostgresUserStore(db, nil)
	ctx := context.Background()
	email := "race-" + uuid.NewString()[:8] + "@example.com"

	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		duplicate int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := domain.NewVerifiedUser(email, "$2a$10$hash", time.Now())
			if err != nil {
				t.Error(err)
				return
			}
			err = users.Create(ctx, u)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, store.ErrEmailExists):
				duplicate++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, racers-1, duplicate)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM users WHERE email = $1`, email).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestIntegration_TaskLifecycle(t *testing.T) {
	db := openIntegrationDB(t)
	users := postgres.NewPostgresUserStore(db, nil)
	tasks := postgres.NewPostgresTaskStore(db, nil)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	owner, err := domain.NewVerifiedUser("owner-"+uuid.NewString()[:8]+"@example.com", "$2a$10$hash", now)
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, owner))

	first, err := domain.NewTask(owner.ID, "First", "", nil, now)
	require.NoError(t, err)
	second, err := domain.NewTask(owner.ID, "Second", "", nil, now.Add(time.Second))
	require.NoError(t, err)
	require.NoError(t, tasks.Create(ctx, first))
	require.NoError(t, tasks.Create(ctx, second))

	list, err := tasks.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	_, err = tasks.GetByID(ctx, uuid.New(), first.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	done := true
	updated, err := tasks.Update(ctx, owner.ID, first.ID, func(task *domain.Task) error {
		return domain.TaskChanges{Completed: &done}.Apply(task, now.Add(time.Minute))
	})
	require.NoError(t, err)
	assert.True(t, updated.Completed)

	require.NoError(t, tasks.Delete(ctx, owner.ID, second.ID))
	assert.ErrorIs(t, tasks.Delete(ctx, owner.ID, second.ID), store.ErrTaskNotFound)

	_, err = db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, owner.ID)
	require.NoError(t, err)
	list, err = tasks.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
