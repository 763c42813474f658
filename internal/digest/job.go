package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskdigest-api/internal/domain"
	"github.com/phrazzld/taskdigest-api/internal/mail"
	"github.com/phrazzld/taskdigest-api/internal/platform/clock"
	"github.com/phrazzld/taskdigest-api/internal/redact"
	"github.com/phrazzld/taskdigest-api/internal/task"
)

// JobID identifies the digest job for locking and logs.
const JobID = "daily_tasklist"

// Subject is the subject line of every digest email.
const Subject = "Your Daily Task List"

const (
	dueLayout        = "2006-01-02 15:04"
	noDueDate        = "No due date"
	deliveryTaskType = "digest_delivery"
)

// UserLister lists every registered user.
type UserLister interface {
	List(ctx context.Context) ([]*domain.User, error)
}

// TaskLister lists a user's tasks in creation order.
type TaskLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
}

// RunReport summarizes one pass of the job.
type RunReport struct {
	UsersSeen int
	Sent      int
	Skipped   int
	Failed    int
}

// JobConfig configures a Job.
type JobConfig struct {
	// SendTimeout bounds each email send.
	SendTimeout time.Duration
	// Workers is the number of concurrent sends.
	Workers int
	// Location is the zone due dates are rendered in. Defaults to UTC.
	Location *time.Location
	// Clock stamps run start and duration. Defaults to the system clock.
	Clock clock.Clock
}

// Job sends one digest email to every user that has at least one task.
type Job struct {
	cfg    JobConfig
	users  UserLister
	tasks  TaskLister
	mailer mail.Mailer
	logger *slog.Logger
}

// NewJob creates a Job.
func NewJob(cfg JobConfig, users UserLister, tasks TaskLister, mailer mail.Mailer, log *slog.Logger) (*Job, error) {
	if users == nil || tasks == nil || mailer == nil {
		return nil, errors.New("digest job: missing dependency")
	}
	if cfg.SendTimeout <= 0 {
		return nil, fmt.Errorf("digest job: send timeout must be positive, got %s", cfg.SendTimeout)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Job{
		cfg:    cfg,
		users:  users,
		tasks:  tasks,
		mailer: mailer,
		logger: log.With("job", JobID),
	}, nil
}

// Run performs one pass. A failure for one user is logged and counted and
// never stops the others. An error is returned only when the user list itself
// cannot be loaded or ctx ends before every user was listed and every send
// attempted; users and sends cut off that way are counted as Failed.
func (j *Job) Run(ctx context.Context) (RunReport, error) {
	var report RunReport
	started := j.cfg.Clock.Now()

	users, err := j.users.List(ctx)
	if err != nil {
		j.logger.Error("failed to list users", "error", redact.Error(err))
		return report, fmt.Errorf("digest: list users: %w", err)
	}
	report.UsersSeen = len(users)

	queue := task.NewTaskQueue(len(users), j.logger)
	var sent, failed atomic.Int64

	for i, u := range users {
		if ctx.Err() != nil {
			report.Failed += len(users) - i
			break
		}
		if !u.EmailVerified {
			report.Skipped++
			continue
		}

		tasks, err := j.tasks.ListByUser(ctx, u.ID)
		if err != nil {
			j.logger.Error("failed to list tasks", "user_id", u.ID, "error", redact.Error(err))
			report.Failed++
			continue
		}
		if len(tasks) == 0 {
			report.Skipped++
			continue
		}

		msg := Message(u.Email, tasks, j.cfg.Location)
		userID := u.ID
		delivery := task.NewFunc(deliveryTaskType, func(ctx context.Context) error {
			if err := j.mailer.Send(ctx, msg); err != nil {
				return fmt.Errorf("send digest to user %s: %w", userID, err)
			}
			sent.Add(1)
			j.logger.Info("sent task list", "user_id", userID, "task_count", len(tasks))
			return nil
		})
		if err := queue.Enqueue(delivery); err != nil {
			j.logger.Error("failed to enqueue delivery", "user_id", u.ID, "error", err)
			report.Failed++
		}
	}
	queue.Close()
	interrupted := ctx.Err() != nil

	if !interrupted {
		pool := task.NewWorkerPool(queue, task.WorkerPoolConfig{
			WorkerCount: j.cfg.Workers,
			TaskTimeout: j.cfg.SendTimeout,
		}, j.logger)
		pool.SetErrorHandler(func(task.Task, error) { failed.Add(1) })
		pool.Start(ctx)
		pool.Wait()
		pool.Stop()
	}

	// Deliveries still queued when ctx ended were never attempted.
	unattempted := len(queue.GetChannel())
	report.Sent = int(sent.Load())
	report.Failed += int(failed.Load()) + unattempted

	j.logger.Info("digest run finished",
		"started_at", started,
		"elapsed", j.cfg.Clock.Now().Sub(started),
		"users_seen", report.UsersSeen,
		"sent", report.Sent,
		"skipped", report.Skipped,
		"failed", report.Failed)

	if interrupted || unattempted > 0 {
		return report, fmt.Errorf("digest: run interrupted: %w", context.Cause(ctx))
	}
	return report, nil
}

// Message renders the digest email for one user.
func Message(to string, tasks []*domain.Task, loc *time.Location) mail.Message {
	return mail.Message{
		To:      to,
		Subject: Subject,
		Text:    Body(tasks, loc),
	}
}

// Body renders the plain-text digest for tasks, in order.
func Body(tasks []*domain.Task, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		due := noDueDate
		if t.DueDate != nil {
			due = t.DueDate.In(loc).Format(dueLayout)
		}
		lines = append(lines, fmt.Sprintf("- %s (Due: %s)", t.Title, due))
	}

	return "Hello,\n\nHere is your task list for today:\n\n" +
		strings.Join(lines, "\n") +
		"\n\nBest,\nYour To-Do App"
}
