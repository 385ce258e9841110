package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/invoice-service/internal/domain/apperror"
)

// dotEnvPath is read before the YAML file when present
const dotEnvPath = ".env"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Share    ShareConfig    `mapstructure:"share"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mail     MailConfig     `mapstructure:"mail"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite3 or postgres
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig holds blob storage configuration
type StorageConfig struct {
	Driver        string   `mapstructure:"driver"` // local or s3
	Bucket        string   `mapstructure:"bucket"`
	BaseDir       string   `mapstructure:"base_dir"`
	PublicBaseURL string   `mapstructure:"public_base_url"`
	S3            S3Config `mapstructure:"s3"`
}

// S3Config holds S3 connection settings
type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

// ShareConfig holds share link configuration
type ShareConfig struct {
	SigningSecret string `mapstructure:"signing_secret"`
}

// AuthConfig holds bearer token configuration
type AuthConfig struct {
	TokenSecret string `mapstructure:"token_secret"`
}

// MailConfig holds outbound invoice mail configuration
type MailConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	AppID      string        `mapstructure:"app_id"`
	AppSecret  string        `mapstructure:"app_secret"`
	SenderName string        `mapstructure:"sender_name"`
	APITimeout time.Duration `mapstructure:"api_timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// MetricsConfig controls the runtime collectors exposed on /metrics
type MetricsConfig struct {
	RuntimeCollectors bool `mapstructure:"runtime_collectors"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(dotEnvPath); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Secrets may come from the environment instead of the file
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", "data/invoices.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Storage defaults
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.bucket", "invoices")
	v.SetDefault("storage.base_dir", "data/blobs")
	v.SetDefault("storage.public_base_url", "http://localhost:8080")
	v.SetDefault("storage.s3.region", "us-east-1")

	// Mail defaults
	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.sender_name", "Invoices")
	v.SetDefault("mail.api_timeout", 30*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("metrics.runtime_collectors", true)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"share.signing_secret":         "SHARE_SIGNING_SECRET",
		"auth.token_secret":            "AUTH_TOKEN_SECRET",
		"database.dsn":                 "DATABASE_DSN",
		"storage.s3.access_key_id":     "AWS_ACCESS_KEY_ID",
		"storage.s3.secret_access_key": "AWS_SECRET_ACCESS_KEY",
		"mail.app_id":                  "LARK_APP_ID",
		"mail.app_secret":              "LARK_APP_SECRET",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Secrets
	if c.Share.SigningSecret == "" {
		return apperror.New(apperror.KindConfigMissing, "share.signing_secret is required")
	}
	if c.Auth.TokenSecret == "" {
		return apperror.New(apperror.KindConfigMissing, "auth.token_secret is required")
	}

	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			return apperror.New(apperror.KindConfigMissing, "database.path is required for sqlite3")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return apperror.New(apperror.KindConfigMissing, "database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.BaseDir == "" {
			return apperror.New(apperror.KindConfigMissing, "storage.base_dir is required for local storage")
		}
	case "s3":
		if c.Storage.S3.Region == "" {
			return apperror.New(apperror.KindConfigMissing, "storage.s3.region is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}

	if c.Mail.Enabled && (c.Mail.AppID == "" || c.Mail.AppSecret == "") {
		return apperror.New(apperror.KindConfigMissing, "mail.app_id and mail.app_secret are required when mail is enabled")
	}

	return nil
}
