// Package config provides centralized configuration management for the catalog
// service and CLI. Settings come from environment variables with defaults and are
// validated on startup so a misconfigured deployment fails before touching data.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Storage  StorageConfig
	Backup   BackupConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-import requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate creates the catalog tables on startup when missing (default: true)
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true"`
}

// ImportConfig holds CSV import and export processing settings.
type ImportConfig struct {
	// BatchSize is the number of rows committed per transaction (default: 100)
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"100"`

	// Transactional wraps row writes in batch transactions (default: true).
	// When false each row is written directly with no commit boundaries.
	Transactional bool `env:"IMPORT_TRANSACTIONAL" default:"true"`

	// ExportChunkSize is the read window used when exporting (default: 100)
	ExportChunkSize int `env:"EXPORT_CHUNK_SIZE" default:"100"`

	// MaxFileSize is the maximum accepted upload size in bytes (default: 50MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the number of imports allowed to run at once (default: 1)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"1"`

	// MaxWaitTime is how long an import waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single import run (default: 30m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"30m"`
}

// StorageConfig holds local filesystem settings.
type StorageConfig struct {
	// Dir is the storage root; backups live under <Dir>/catalog/backups
	Dir string `env:"STORAGE_DIR" default:"./storage"`
}

// BackupConfig holds pre-import snapshot settings.
type BackupConfig struct {
	// Enabled is the default for the create-backup option (default: true)
	Enabled bool `env:"BACKUP_ENABLED" default:"true"`

	// S3Bucket mirrors every snapshot to S3 when set
	S3Bucket string `env:"BACKUP_S3_BUCKET"`

	// S3Prefix is the key prefix for mirrored snapshots (default: catalog/backups)
	S3Prefix string `env:"BACKUP_S3_PREFIX" default:"catalog/backups"`

	// S3Endpoint overrides the S3 endpoint, e.g. for MinIO or LocalStack
	S3Endpoint string `env:"BACKUP_S3_ENDPOINT"`

	// Schedule is a cron expression for periodic snapshots; empty disables them
	Schedule string `env:"BACKUP_SCHEDULE"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// BackupDir returns the root directory for catalog snapshots.
func (c *StorageConfig) BackupDir() string {
	return c.Dir + "/catalog/backups"
}
