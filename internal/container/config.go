// Package container provides dependency injection and lifecycle management
// for the vehicle homologation service and its admin CLI.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Lark API configuration
	Lark LarkConfig

	// Storage configuration
	Storage StorageConfig

	// Dispatcher configuration
	Dispatcher DispatcherConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// MigrationsDir replaces the embedded migrations when set
	MigrationsDir string
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	// Enabled selects Lark delivery for status notifications; otherwise they are logged
	Enabled bool

	// AppID is the Lark application ID
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// APITimeout is the timeout for API calls
	APITimeout time.Duration

	// BaseURL overrides the open platform endpoint
	BaseURL string
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// AttachmentDir is the base directory for attachment bytes
	AttachmentDir string

	// MaxUploadBytes caps a single attachment
	MaxUploadBytes int64
}

// DispatcherConfig holds event dispatcher settings.
type DispatcherConfig struct {
	// AsyncTimeout bounds each asynchronous handler run
	AsyncTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/homologation.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Lark: LarkConfig{
			APITimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			AttachmentDir:  "data/attachments",
			MaxUploadBytes: 10 << 20,
		},
		Dispatcher: DispatcherConfig{
			AsyncTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required")
		}
	}

	if c.Storage.AttachmentDir == "" {
		return fmt.Errorf("storage.attachment_dir is required")
	}

	return nil
}
