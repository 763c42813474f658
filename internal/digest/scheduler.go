package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner is a single digest pass. *Job satisfies it.
type Runner interface {
	Run(ctx context.Context) (RunReport, error)
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Schedule is a standard five-field cron expression.
	Schedule string
	// Timezone is an IANA zone name the schedule is evaluated in.
	Timezone string
	// LockTTL bounds how long a crashed run can hold the lock.
	LockTTL time.Duration
}

// Scheduler fires a Runner on a cron schedule. Runs never overlap: the cron
// chain skips a firing while the previous one is still running, and every run
// must also take the Locker.
type Scheduler struct {
	cfg     SchedulerConfig
	spec    string
	runner  Runner
	locker  Locker
	logger  *slog.Logger
	cron    *cron.Cron
	entryID cron.EntryID

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewScheduler validates cfg and creates a stopped Scheduler.
func NewScheduler(cfg SchedulerConfig, runner Runner, locker Locker, log *slog.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("digest scheduler: runner cannot be nil")
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.LockTTL <= 0 {
		return nil, fmt.Errorf("digest scheduler: lock ttl must be positive, got %s", cfg.LockTTL)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("digest scheduler: invalid timezone %q: %w", cfg.Timezone, err)
	}

	spec := fmt.Sprintf("CRON_TZ=%s %s", cfg.Timezone, cfg.Schedule)
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("digest scheduler: invalid schedule %q: %w", cfg.Schedule, err)
	}

	log = log.With("job", JobID)
	cronLog := cronLogger{log: log}

	s := &Scheduler{
		cfg:    cfg,
		spec:   spec,
		runner: runner,
		locker: locker,
		logger: log,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}
	return s, nil
}

// Start registers the job and starts the cron loop. It is a no-op if the
// scheduler is already running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	id, err := s.cron.AddFunc(s.spec, s.fire)
	if err != nil {
		s.cancel()
		return fmt.Errorf("digest scheduler: %w", err)
	}
	s.entryID = id
	s.cron.Start()
	s.started = true

	s.logger.Info("digest scheduler started",
		"schedule", s.cfg.Schedule,
		"timezone", s.cfg.Timezone,
		"next_run", s.cron.Entry(id).Next)
	return nil
}

// Stop halts the cron loop, cancels a run in progress and waits for it to
// return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	s.cron.Remove(s.entryID)
	done := s.cron.Stop()
	s.mu.Unlock()

	cancel()

	select {
	case <-done.Done():
		s.logger.Info("digest scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("digest scheduler: stop: %w", ctx.Err())
	}
}

// RunNow performs one pass immediately, under the lock. It returns
// ErrLockHeld if another run is in progress.
func (s *Scheduler) RunNow(ctx context.Context) (RunReport, error) {
	release, err := s.locker.Acquire(ctx, JobID, s.cfg.LockTTL)
	if err != nil {
		return RunReport{}, err
	}
	defer func() {
		// The run's ctx may be cancelled; releasing must still happen.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			s.logger.Warn("failed to release digest lock", "error", err)
		}
	}()

	start := time.Now()
	report, err := s.runner.Run(ctx)
	s.logger.Info("digest run complete",
		"duration", time.Since(start),
		"sent", report.Sent,
		"failed", report.Failed)
	return report, err
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if _, err := s.RunNow(ctx); err != nil {
		if errors.Is(err, ErrLockHeld) {
			s.logger.Info("digest run skipped, another run holds the lock")
			return
		}
		s.logger.Error("digest run failed", "error", err)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
