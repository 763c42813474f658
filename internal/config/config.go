package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	Mail      MailConfig      `mapstructure:"mail"       validate:"required"`
	Digest    DigestConfig    `mapstructure:"digest"     validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// BaseURL is the externally reachable origin used to build verification links.
	BaseURL      string        `mapstructure:"base_url"      validate:"required,url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	// CORSAllowedOrigins lists browser origins allowed to call the API; "*" allows any.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" validate:"dive,required"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	// AutoMigrate applies pending migrations at startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// AuthConfig contains all authentication and authorization settings.
// The session and verification secrets are independent so that a leaked
// verification link secret never allows minting session tokens.
type AuthConfig struct {
	JWTSecret                 string `mapstructure:"jwt_secret"                   validate:"required,min=32"`
	VerificationSecret        string `mapstructure:"verification_secret"          validate:"required,min=32"`
	TokenLifetimeMinutes      int    `mapstructure:"token_lifetime_minutes"       validate:"required,gt=0"`
	VerificationMaxAgeSeconds int    `mapstructure:"verification_max_age_seconds" validate:"required,gt=0"`
	BcryptCost                int    `mapstructure:"bcrypt_cost"                  validate:"required,gte=4,lte=31"`
}

// TokenLifetime returns the session token lifetime as a duration.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// VerificationMaxAge returns the verification link validity window.
func (c AuthConfig) VerificationMaxAge() time.Duration {
	return time.Duration(c.VerificationMaxAgeSeconds) * time.Second
}

// MailConfig selects and configures the outbound mail transport.
type MailConfig struct {
	Driver         string        `mapstructure:"driver"           validate:"required,oneof=smtp sendgrid log"`
	Host           string        `mapstructure:"host"             validate:"required_if=Driver smtp"`
	Port           int           `mapstructure:"port"             validate:"required_if=Driver smtp,gte=0,lt=65536"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	From           string        `mapstructure:"from"             validate:"required,email"`
	FromName       string        `mapstructure:"from_name"`
	SendGridAPIKey string        `mapstructure:"sendgrid_api_key" validate:"required_if=Driver sendgrid"`
	SendTimeout    time.Duration `mapstructure:"send_timeout"     validate:"gt=0"`
}

// DigestConfig configures the daily task digest job.
type DigestConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Schedule is a standard five-field cron expression evaluated in Timezone.
	Schedule    string        `mapstructure:"schedule"     validate:"required"`
	Timezone    string        `mapstructure:"timezone"     validate:"required"`
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"gt=0"`
	Workers     int           `mapstructure:"workers"      validate:"gte=1,lte=32"`
	// LockTTL bounds how long a crashed run can hold the job lock.
	LockTTL time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
}

// RedisConfig is optional. When Addr is empty the digest job uses an
// in-process lock only.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// RateLimitConfig configures the per-client request limiter.
// A RequestsPerMinute of zero disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" validate:"gte=0"`
	Burst             int `mapstructure:"burst"               validate:"gte=0"`
}
