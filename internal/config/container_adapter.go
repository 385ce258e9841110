package config

import (
	"github.com/garyjia/invoice-service/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			DSN:             c.Database.DSN,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Storage: container.StorageConfig{
			Driver:            c.Storage.Driver,
			Bucket:            c.Storage.Bucket,
			BaseDir:           c.Storage.BaseDir,
			PublicBaseURL:     c.Storage.PublicBaseURL,
			SigningSecret:     c.Share.SigningSecret,
			S3Region:          c.Storage.S3.Region,
			S3Endpoint:        c.Storage.S3.Endpoint,
			S3AccessKeyID:     c.Storage.S3.AccessKeyID,
			S3SecretAccessKey: c.Storage.S3.SecretAccessKey,
			S3ForcePathStyle:  c.Storage.S3.ForcePathStyle,
		},
		External: container.ExternalConfig{
			MailEnabled:    c.Mail.Enabled,
			LarkAppID:      c.Mail.AppID,
			LarkAppSecret:  c.Mail.AppSecret,
			LarkAPITimeout: c.Mail.APITimeout,
			SenderName:     c.Mail.SenderName,
			TokenSecret:    c.Auth.TokenSecret,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		RuntimeCollectors: c.Metrics.RuntimeCollectors,
	}
}
