package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Version    string   `json:"version" mapstructure:"version"`
	ExportPath string   `json:"export_path" mapstructure:"export_path"`
	Database   Database `json:"database" mapstructure:"database"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	Path     string `json:"path" mapstructure:"path"`       // SQLite database file
	URLEnv   string `json:"url_env" mapstructure:"url_env"` // env var holding a server URL
}

// Load unmarshals whatever configuration viper picked up and fills in
// defaults for anything left unset.
func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = "exports"
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "fetcharr.db"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "FETCHARR_DATABASE_URL"
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	supportedProviders := []string{"sqlite", "sqlite3", "postgresql", "postgres", "mysql"}
	supported := false
	for _, provider := range supportedProviders {
		if c.Database.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	if c.ExportPath == "" {
		return fmt.Errorf("export_path cannot be empty")
	}

	return nil
}

// StoreTarget resolves the connection target for commands that operate on
// the configured store rather than on explicit arguments: the database
// file for SQLite, otherwise the URL taken from the configured
// environment variable.
func (c *Config) StoreTarget() (string, error) {
	switch c.Database.Provider {
	case "sqlite", "sqlite3":
		if c.Database.Path == "" {
			return "", fmt.Errorf("database path not configured")
		}
		return c.Database.Path, nil
	default:
		url := os.Getenv(c.Database.URLEnv)
		if url == "" {
			return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
		}
		return url, nil
	}
}
