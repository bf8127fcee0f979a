package config

import (
	"github.com/homologa/vehicle-homologation/internal/container"
)

// ToContainerConfig converts the file-based Config to the container's configuration
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Lark: container.LarkConfig{
			Enabled:    c.Lark.Enabled,
			AppID:      c.Lark.AppID,
			AppSecret:  c.Lark.AppSecret,
			APITimeout: c.Lark.APITimeout,
		},
		Storage: container.StorageConfig{
			AttachmentDir:  c.Storage.AttachmentDir,
			MaxUploadBytes: c.Storage.MaxUploadBytes,
		},
	}
}
