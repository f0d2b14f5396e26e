// Package config loads application configuration from defaults, an optional
// YAML file and FLEETCERT_* environment variables, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable Load reads.
const EnvPrefix = "FLEETCERT_"

// FileEnvVar names the environment variable holding an optional YAML config
// file path.
const FileEnvVar = EnvPrefix + "CONFIG_FILE"

// Storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds the application configuration.
type Config struct {
	ListenAddr string `koanf:"listen_addr"`
	DBPath     string `koanf:"db_path"`

	StorageBackend string `koanf:"storage_backend"`
	UploadDir      string `koanf:"upload_dir"`
	S3Bucket       string `koanf:"s3_bucket"`
	S3Region       string `koanf:"s3_region"`
	S3Endpoint     string `koanf:"s3_endpoint"`
	S3AccessKey    string `koanf:"s3_access_key"`
	S3SecretKey    string `koanf:"s3_secret_key"`
	S3Prefix       string `koanf:"s3_prefix"`

	// SecretKey signs session cookies. When empty a random key is generated at
	// startup and sessions do not survive a restart.
	SecretKey     string        `koanf:"secret_key"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	CookieSecure  bool          `koanf:"cookie_secure"`
	AdminUsername string        `koanf:"admin_username"`
	AdminPassword string        `koanf:"admin_password"`

	Timezone       string        `koanf:"timezone"`
	SweepInterval  time.Duration `koanf:"sweep_interval"`
	LoginRateLimit int           `koanf:"login_rate_limit"` // attempts per minute per client IP
	AuditLogLimit  int           `koanf:"audit_log_limit"`
	MaxUploadBytes int64         `koanf:"max_upload_bytes"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8080",
		DBPath:         "fleetcert.db",
		StorageBackend: StorageLocal,
		UploadDir:      "uploads",
		S3Region:       "us-east-1",
		SessionTTL:     12 * time.Hour,
		AdminUsername:  "admin",
		Timezone:       "UTC",
		SweepInterval:  time.Hour,
		LoginRateLimit: 10,
		AuditLogLimit:  50,
		MaxUploadBytes: 32 << 20,
	}
}

// Load builds the configuration and validates it. An unset optional value
// keeps its default; an invalid value fails fast.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(FileEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr must not be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path must not be empty"))
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.UploadDir == "" {
			errs = append(errs, errors.New("upload_dir must not be empty for local storage"))
		}
	case StorageS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("s3_bucket is required for s3 storage"))
		}
		if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
			errs = append(errs, errors.New("s3_access_key and s3_secret_key must be set together"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage_backend %q must be %q or %q", c.StorageBackend, StorageLocal, StorageS3))
	}

	if c.SecretKey != "" && len(c.SecretKey) < 32 {
		errs = append(errs, errors.New("secret_key must be at least 32 characters"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL))
	}
	if c.AdminUsername == "" {
		errs = append(errs, errors.New("admin_username must not be empty"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if c.SweepInterval < time.Minute {
		errs = append(errs, fmt.Errorf("sweep_interval must be at least 1m, got %s", c.SweepInterval))
	}
	if c.LoginRateLimit < 1 {
		errs = append(errs, fmt.Errorf("login_rate_limit must be at least 1, got %d", c.LoginRateLimit))
	}
	if c.AuditLogLimit < 1 {
		errs = append(errs, fmt.Errorf("audit_log_limit must be at least 1, got %d", c.AuditLogLimit))
	}
	if c.MaxUploadBytes < 1024 {
		errs = append(errs, fmt.Errorf("max_upload_bytes must be at least 1024, got %d", c.MaxUploadBytes))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Location returns the timezone used to decide the current calendar date.
// Validate has already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
