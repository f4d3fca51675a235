// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server  ServerConfig
	Stitch  StitchConfig
	Matomo  MatomoConfig
	Auth    AuthConfig
	Mongo   MongoConfig
	History HistoryConfig
	Media   MediaConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8888"`
}

type StitchConfig struct {
	API     string        `envconfig:"STITCH_API" default:"http://localhost:5000"`
	Timeout time.Duration `envconfig:"STITCH_TIMEOUT" default:"2m"`
}

// MatomoConfig enables event tracking when both fields are set
type MatomoConfig struct {
	URL    string `envconfig:"MATOMO_URL"`
	SiteID string `envconfig:"MATOMO_SITE_ID"`
}

type AuthConfig struct {
	Enabled  bool   `envconfig:"BASIC_AUTH_ENABLED" default:"false"`
	Username string `envconfig:"BASIC_AUTH_USERNAME" default:"admin"`
	Password string `envconfig:"BASIC_AUTH_PASSWORD" default:"password"`
}

// MongoConfig selects the feedback backend. Without a URI feedback is kept
// in memory.
type MongoConfig struct {
	URI      string `envconfig:"MONGODB_URI"`
	Database string `envconfig:"MONGODB_DBNAME" default:"framestitch"`
}

type HistoryConfig struct {
	Limit            int  `envconfig:"HISTORY_LIMIT" default:"0"`
	SnapshotPanorama bool `envconfig:"SNAPSHOT_PANORAMA" default:"false"`
}

type MediaConfig struct {
	ResolveTimeout time.Duration `envconfig:"RESOLVE_TIMEOUT" default:"10s"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"209715200"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.History.Limit < 0 {
		return nil, fmt.Errorf("failed to load config: HISTORY_LIMIT must not be negative")
	}
	return &cfg, nil
}

// ParseLevel maps a LOG_LEVEL value onto a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
