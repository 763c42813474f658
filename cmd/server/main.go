// Package main is the entry point for the task digest API server: account
// registration with email verification, per-user task management and a
// daily digest email.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// options are the command-line flags.
type options struct {
	// migrate runs a migration command (up, down, status, version) and exits.
	migrate string
	// digestNow runs the digest job once and exits.
	digestNow bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&opts.migrate, "migrate", "", "run a database migration command (up, down, status, version) and exit")
	fs.BoolVar(&opts.digestNow, "digest-now", false, "send the daily task digest once and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.migrate != "" && opts.digestNow {
		return options{}, fmt.Errorf("-migrate and -digest-now cannot be combined")
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration and dispatches on opts.
func run(ctx context.Context, opts options) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if opts.migrate != "" {
		defer closeDatabase(db, logger)
		return runMigrations(ctx, db, opts.migrate, logger)
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(ctx, db, "up", logger); err != nil {
			closeDatabase(db, logger)
			return err
		}
	}

	app, err := newApplication(cfg, logger, db)
	if err != nil {
		closeDatabase(db, logger)
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	if opts.digestNow {
		report, err := app.scheduler.RunNow(ctx)
		if err != nil {
			return fmt.Errorf("digest run failed: %w", err)
		}
		logger.Info("digest sent",
			"users_seen", report.UsersSeen,
			"sent", report.Sent,
			"skipped", report.Skipped,
			"failed", report.Failed)
		return nil
	}

	return app.Run(ctx)
}
