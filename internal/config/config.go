package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends understood by recent.Open
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all client configuration
type Config struct {
	// Backend settings
	APIURL  string        `env:"ASKME_API_URL" envDefault:"http://127.0.0.1:8000"`
	Timeout time.Duration `env:"ASKME_TIMEOUT" envDefault:"0s"` // 0 waits forever

	// Recent questions storage
	Store      string `env:"ASKME_STORE" envDefault:"file"`
	StorePath  string `env:"ASKME_STORE_PATH" envDefault:"~/.askme/storage.json"`
	SQLitePath string `env:"ASKME_SQLITE_PATH" envDefault:"~/.askme/askme.db"`
	RedisURL   string `env:"ASKME_REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Logging
	LogLevel string `env:"ASKME_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"ASKME_LOG_FILE" envDefault:"~/.askme/askme.log"`

	// Feature flags
	Plain bool `env:"ASKME_PLAIN" envDefault:"false"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	cfg := &Config{}
	// Only envDefault tags are consulted when the environment is empty.
	_ = env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}})
	cfg.expandPaths()
	return cfg
}

// Load reads a .env file if present, then the environment, on top of the defaults
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.expandPaths()
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api URL cannot be empty")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api URL %q is not an absolute URL", c.APIURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	switch c.Store {
	case StoreFile:
		if c.StorePath == "" {
			return fmt.Errorf("store path cannot be empty")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis URL cannot be empty")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want file, sqlite, redis or memory)", c.Store)
	}
	return nil
}

func (c *Config) expandPaths() {
	c.StorePath = expandHome(c.StorePath)
	c.SQLitePath = expandHome(c.SQLitePath)
	c.LogFile = expandHome(c.LogFile)
}

// loadDotEnv loads .env from the working directory; a missing file is fine
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir := getHomeDir()
		return homeDir + path[1:]
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
