// Package config loads portal configuration from layered sources:
// built-in defaults, an optional YAML file, then PORTAL_* environment
// variables, each layer overriding the last.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the portal's environment variables, e.g.
// PORTAL_SERVER_PORT or PORTAL_ADMIN_PASSWORD.
const EnvPrefix = "PORTAL_"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Admin     AdminConfig     `koanf:"admin"`
}

type ServerConfig struct {
	Port    int    `koanf:"port"`
	BaseURL string `koanf:"base_url"`
}

type StorageConfig struct {
	DataDir    string `koanf:"data_dir"`
	UploadsDir string `koanf:"uploads_dir"`
}

type AnalyticsConfig struct {
	DBPath        string `koanf:"db_path"`
	RetentionDays int    `koanf:"retention_days"`
}

type AdminConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8080,
			BaseURL: "",
		},
		Storage: StorageConfig{
			DataDir:    "./data",
			UploadsDir: "./data/uploads",
		},
		Analytics: AnalyticsConfig{
			DBPath:        "./data/analytics.db",
			RetentionDays: 365,
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "",
		},
	}
}

// Load builds the configuration. path names a YAML file and may be empty,
// in which case only defaults and environment variables apply. A non-empty
// path that does not exist is an error; passing "" never is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// PORTAL_ADMIN_PASSWORD -> admin.password
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Admin.Password == "" {
		return fmt.Errorf("admin password is not set (PORTAL_ADMIN_PASSWORD)")
	}
	if c.Analytics.RetentionDays <= 0 {
		return fmt.Errorf("invalid analytics retention %d days", c.Analytics.RetentionDays)
	}
	return nil
}
