package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. TASKDIGEST_AUTH_JWT_SECRET for auth.jwt_secret.
const EnvPrefix = "TASKDIGEST"

// Load configuration from environment variables and optionally config files.
// A .env file in the working directory is read first (if present); then
// defaults, config.yaml, and finally TASKDIGEST_* environment variables are
// layered, with the environment taking precedence.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env is the normal case in deployed environments.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct-level constraints and the few cross-field rules the
// validator tags cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Digest.Timezone); err != nil {
		return fmt.Errorf("config validation failed: digest.timezone %q: %w", cfg.Digest.Timezone, err)
	}

	if cfg.Auth.JWTSecret == cfg.Auth.VerificationSecret {
		return fmt.Errorf("config validation failed: auth.jwt_secret and auth.verification_secret must differ")
	}

	return nil
}

// setDefaults registers every key so that AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.verification_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.verification_max_age_seconds", 3600)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("mail.driver", "log")
	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "noreply@localhost.localdomain")
	v.SetDefault("mail.from_name", "Your To-Do App")
	v.SetDefault("mail.sendgrid_api_key", "")
	v.SetDefault("mail.send_timeout", 10*time.Second)

	v.SetDefault("digest.enabled", true)
	v.SetDefault("digest.schedule", "16 10 * * *")
	v.SetDefault("digest.timezone", "Asia/Kolkata")
	v.SetDefault("digest.send_timeout", 10*time.Second)
	v.SetDefault("digest.workers", 1)
	v.SetDefault("digest.lock_ttl", 30*time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rate_limit.requests_per_minute", 5)
	v.SetDefault("rate_limit.burst", 5)
}
