// Package container provides dependency injection and lifecycle management
// for the invoicing service.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Storage  StorageConfig
	External ExternalConfig
	Server   ServerConfig

	// RuntimeCollectors adds Go and process collectors to the metrics registry
	RuntimeCollectors bool
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is sqlite3 or postgres
	Driver string

	// Path to the SQLite database file
	Path string

	// DSN is the postgres connection string
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// StorageConfig holds blob storage settings.
type StorageConfig struct {
	// Driver is local or s3
	Driver string

	// Bucket holds rendered invoice PDFs
	Bucket string

	// BaseDir is the root directory of the local store
	BaseDir string

	// PublicBaseURL prefixes signed links issued by the local store
	PublicBaseURL string

	// SigningSecret keys the local store's download signatures
	SigningSecret string

	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3ForcePathStyle  bool
}

// ExternalConfig holds settings for the mailer and token verifier.
type ExternalConfig struct {
	// MailEnabled selects the Lark mailer; otherwise mail is only logged
	MailEnabled    bool
	LarkAppID      string
	LarkAppSecret  string
	LarkAPITimeout time.Duration
	SenderName     string

	// TokenSecret keys bearer token verification
	TokenSecret string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			Path:            "data/invoices.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Storage: StorageConfig{
			Driver:        "local",
			Bucket:        "invoices",
			BaseDir:       "data/blobs",
			PublicBaseURL: "http://localhost:8080",
			S3Region:      "us-east-1",
		},
		External: ExternalConfig{
			LarkAPITimeout: 30 * time.Second,
			SenderName:     "Invoices",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		RuntimeCollectors: true,
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Driver == "" {
		return fmt.Errorf("database.driver is required")
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir is required")
		}
		if c.Storage.SigningSecret == "" {
			return fmt.Errorf("share.signing_secret is required")
		}
	case "s3":
		if c.Storage.S3Region == "" {
			return fmt.Errorf("storage.s3.region is required")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.External.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret is required")
	}
	if c.External.MailEnabled && (c.External.LarkAppID == "" || c.External.LarkAppSecret == "") {
		return fmt.Errorf("lark credentials are required when mail is enabled")
	}

	return nil
}
