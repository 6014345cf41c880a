// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"structcalc/core/types"
	apperrors "structcalc/internal/errors"
	"structcalc/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Pricing contains price-table settings
	Pricing PricingConfig `json:"pricing"`

	// Workspace contains workspace persistence settings
	Workspace WorkspaceConfig `json:"workspace"`

	// Server contains HTTP API settings
	Server ServerConfig `json:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// CatalogPath points at an HCL price table; empty uses the built-in one
	CatalogPath string `json:"catalog_path,omitempty"`

	// DefaultCurrency is used when an input does not choose one
	DefaultCurrency types.CurrencyDisplay `json:"default_currency"`
}

// WorkspaceConfig selects and configures the workspace store
type WorkspaceConfig struct {
	// Backend is one of file, memory, redis
	Backend string `json:"backend"`

	// Path is the snapshot file for the file backend
	Path string `json:"path"`

	// RedisAddr is host:port for the redis backend
	RedisAddr string `json:"redis_addr,omitempty"`

	// RedisDB is the logical redis database
	RedisDB int `json:"redis_db,omitempty"`

	// RedisKey is the key holding the snapshot
	RedisKey string `json:"redis_key,omitempty"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	workspacePath := filepath.Join(homeDir, ".structcalc", "workspace.json")

	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			DefaultCurrency: types.CurrencyEUR,
		},
		Workspace: WorkspaceConfig{
			Backend:  "file",
			Path:     workspacePath,
			RedisKey: "structcalc:workspace",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, apperrors.Wrap(apperrors.TypeConfig, "failed to read config", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, apperrors.Wrap(apperrors.TypeConfig, "failed to parse config", err)
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overlays STRUCTCALC_* variables, reading a .env file in the
// working directory first when one exists.
func (c *Config) ApplyEnv() {
	// a missing .env is the normal case
	_ = godotenv.Load()

	if v := os.Getenv("STRUCTCALC_CATALOG"); v != "" {
		c.Pricing.CatalogPath = v
	}
	if v := os.Getenv("STRUCTCALC_CURRENCY"); v != "" {
		c.Pricing.DefaultCurrency = types.CurrencyDisplay(v)
	}
	if v := os.Getenv("STRUCTCALC_WORKSPACE_BACKEND"); v != "" {
		c.Workspace.Backend = v
	}
	if v := os.Getenv("STRUCTCALC_WORKSPACE_PATH"); v != "" {
		c.Workspace.Path = v
	}
	if v := os.Getenv("STRUCTCALC_REDIS_ADDR"); v != "" {
		c.Workspace.RedisAddr = v
	}
	if v := os.Getenv("STRUCTCALC_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Workspace.RedisDB = db
		}
	}
	if v := os.Getenv("STRUCTCALC_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STRUCTCALC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks settings that would otherwise fail late
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return apperrors.Newf(apperrors.TypeConfig, "unknown log level %q", c.Logging.Level)
	}
	if !c.Pricing.DefaultCurrency.Valid() {
		return apperrors.Newf(apperrors.TypeConfig, "unknown default currency %q", c.Pricing.DefaultCurrency)
	}
	switch c.Workspace.Backend {
	case "file":
		if c.Workspace.Path == "" {
			return apperrors.New(apperrors.TypeConfig, "workspace.path is required for the file backend")
		}
	case "redis":
		if c.Workspace.RedisAddr == "" {
			return apperrors.New(apperrors.TypeConfig, "workspace.redis_addr is required for the redis backend")
		}
	case "memory":
	default:
		return apperrors.Newf(apperrors.TypeConfig, "unknown workspace backend %q", c.Workspace.Backend)
	}
	return nil
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
