package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/inkwell-ai/ghostwriter/internal/trigger"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig     `json:"server"`
	Providers []ProviderConfig `json:"providers"`
	Engine    EngineConfig     `json:"engine"`
	Trigger   *trigger.Policy  `json:"trigger,omitempty"`
	Database  DatabaseConfig   `json:"database"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type ProviderConfig struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model,omitempty"`
}

type EngineConfig struct {
	DefaultLanguage string  `json:"default_language"`
	CacheCapacity   int     `json:"cache_capacity"`
	CacheTTLSeconds int     `json:"cache_ttl_seconds"`
	LowConfidence   float64 `json:"low_confidence_threshold"`
	Summarize       bool    `json:"summarize"`
}

type DatabaseConfig struct {
	PostgresDSN string `json:"postgres_dsn"`
	RedisURL    string `json:"redis_url"`
}

// Policy returns the configured trigger policy, or the defaults.
func (c *Config) Policy() trigger.Policy {
	if c.Trigger != nil {
		return *c.Trigger
	}
	return trigger.DefaultPolicy()
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3310
	}
	return &cfg, nil
}
