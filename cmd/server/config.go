package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskdigest-api/internal/config"
)

// loadAppConfig loads the application configuration from environment
// variables, an optional .env file or config.yaml.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"mail_driver", cfg.Mail.Driver,
		"digest_enabled", cfg.Digest.Enabled)

	return cfg, nil
}
