package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskdigest-api/internal/api"
	"github.com/phrazzld/taskdigest-api/internal/api/middleware"
	"github.com/phrazzld/taskdigest-api/internal/config"
	"github.com/phrazzld/taskdigest-api/internal/digest"
	"github.com/phrazzld/taskdigest-api/internal/mail"
	"github.com/phrazzld/taskdigest-api/internal/platform/clock"
	"github.com/phrazzld/taskdigest-api/internal/platform/postgres"
	"github.com/phrazzld/taskdigest-api/internal/service"
	"github.com/phrazzld/taskdigest-api/internal/service/auth"
	"github.com/phrazzld/taskdigest-api/internal/store"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPrefix      = "taskdigest:lock:"
	rateLimitClientTTL = 10 * time.Minute
	rateLimitSweep     = time.Minute
)

// application holds the wired components of the server.
type application struct {
	config    *config.Config
	logger    *slog.Logger
	db        *sql.DB
	redis     *redis.Client
	handler   http.Handler
	scheduler *digest.Scheduler
	limiter   *middleware.RateLimiter
}

// appDeps are the collaborators newApplicationWithDeps wires together.
// Splitting them from newApplication lets tests run the full router over
// in-memory stores and a recording mailer.
type appDeps struct {
	users  store.UserStore
	tasks  store.TaskStore
	mailer mail.Mailer
	clock  clock.Clock
	locker digest.Locker
}

// newApplication wires the Postgres stores, the configured mail transport and
// the digest lock, then builds the application.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	mailer, err := mail.New(cfg.Mail, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailer: %w", err)
	}

	deps := appDeps{
		users:  postgres.NewPostgresUserStore(db, logger),
		tasks:  postgres.NewPostgresTaskStore(db, logger),
		mailer: mailer,
		clock:  clock.System{},
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.locker = digest.NewRedisLocker(rdb, lockKeyPrefix)
		logger.Info("Digest lock backed by Redis", "addr", cfg.Redis.Addr)
	}

	app, err := newApplicationWithDeps(cfg, logger, deps)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}
	app.db = db
	app.redis = rdb
	return app, nil
}

func newApplicationWithDeps(cfg *config.Config, logger *slog.Logger, deps appDeps) (*application, error) {
	passwords := auth.NewBcryptCodec(cfg.Auth.BcryptCost)

	sessions, err := auth.NewJWTService(cfg.Auth, deps.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to create session token service: %w", err)
	}

	verifier, err := auth.NewVerificationTokenService(cfg.Auth, deps.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification token service: %w", err)
	}

	accounts, err := service.NewAccountService(service.AccountConfig{
		BaseURL:            cfg.Server.BaseURL,
		VerificationMaxAge: cfg.Auth.VerificationMaxAge(),
		SessionLifetime:    cfg.Auth.TokenLifetime(),
		MailTimeout:        cfg.Mail.SendTimeout,
	}, service.AccountDeps{
		Users:     deps.users,
		Passwords: passwords,
		Verifier:  verifier,
		Sessions:  sessions,
		Mailer:    deps.mailer,
		Clock:     deps.clock,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create account service: %w", err)
	}

	tasks, err := service.NewTaskService(deps.tasks, deps.clock, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	scheduler, err := newDigestScheduler(cfg.Digest, deps, logger)
	if err != nil {
		return nil, err
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, rateLimitClientTTL)
	}

	app := &application{
		config:    cfg,
		logger:    logger,
		scheduler: scheduler,
		limiter:   limiter,
	}
	app.handler = newRouter(routerDeps{
		logger:        logger,
		authHandler:   api.NewAuthHandler(accounts),
		taskHandler:   api.NewTaskHandler(tasks),
		authenticator: accounts,
		limiter:       limiter,
		corsOrigins:   cfg.Server.CORSAllowedOrigins,
	})
	return app, nil
}

func newDigestScheduler(cfg config.DigestConfig, deps appDeps, logger *slog.Logger) (*digest.Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid digest timezone %q: %w", cfg.Timezone, err)
	}

	job, err := digest.NewJob(digest.JobConfig{
		SendTimeout: cfg.SendTimeout,
		Workers:     cfg.Workers,
		Location:    loc,
		Clock:       deps.clock,
	}, deps.users, deps.tasks, deps.mailer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create digest job: %w", err)
	}

	scheduler, err := digest.NewScheduler(digest.SchedulerConfig{
		Schedule: cfg.Schedule,
		Timezone: cfg.Timezone,
		LockTTL:  cfg.LockTTL,
	}, job, deps.locker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create digest scheduler: %w", err)
	}
	return scheduler, nil
}

// Run starts the background jobs and serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	if app.config.Digest.Enabled {
		if err := app.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start digest scheduler: %w", err)
		}
	} else {
		app.logger.Info("Digest scheduler disabled")
	}

	if app.limiter != nil {
		go app.limiter.RunSweeper(ctx, rateLimitSweep)
	}

	return startHTTPServer(ctx, app)
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if app.scheduler != nil {
		if err := app.scheduler.Stop(ctx); err != nil {
			app.logger.Error("Error stopping digest scheduler", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing Redis client", "error", err)
		}
	}
	if app.db != nil {
		closeDatabase(app.db, app.logger)
	}
}
