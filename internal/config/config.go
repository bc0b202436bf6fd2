// Package config loads the tendril CLI settings.
//
// Precedence, lowest first: built-in defaults, the config file (TOML, YAML
// or JSON by extension), TENDRIL_* environment variables, command line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tendril/internal/logging"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "TENDRIL_"

type Config struct {
	LogLevel  string `toml:"log_level" yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`
	LogFormat string `toml:"log_format" yaml:"log_format" json:"log_format" env:"LOG_FORMAT"`

	// Manifest is the command manifest served by serve, mcp and shell.
	Manifest string `toml:"manifest" yaml:"manifest" json:"manifest" env:"MANIFEST"`
	Watch    bool   `toml:"watch" yaml:"watch" json:"watch" env:"WATCH"`

	// Subject is the caller identity used by the local shell and exec.
	Subject  string `toml:"subject" yaml:"subject" json:"subject" env:"SUBJECT"`
	Workers  int    `toml:"workers" yaml:"workers" json:"workers" env:"WORKERS"`
	MaxInput int    `toml:"max_input" yaml:"max_input" json:"max_input" env:"MAX_INPUT_SIZE"`

	HTTP  HTTPConfig  `toml:"http" yaml:"http" json:"http" envPrefix:"HTTP_"`
	MCP   MCPConfig   `toml:"mcp" yaml:"mcp" json:"mcp" envPrefix:"MCP_"`
	Redis RedisConfig `toml:"redis" yaml:"redis" json:"redis" envPrefix:"REDIS_"`

	// Grants feeds the in-memory authorizer when Redis is not configured:
	// subject -> permission patterns.
	Grants map[string][]string `toml:"grants" yaml:"grants" json:"grants"`
}

type HTTPConfig struct {
	Addr    string `toml:"addr" yaml:"addr" json:"addr" env:"ADDR"`
	Metrics bool   `toml:"metrics" yaml:"metrics" json:"metrics" env:"METRICS"`
	Events  bool   `toml:"events" yaml:"events" json:"events" env:"EVENTS"`
}

type MCPConfig struct {
	Transport string `toml:"transport" yaml:"transport" json:"transport" env:"TRANSPORT"`
	Addr      string `toml:"addr" yaml:"addr" json:"addr" env:"ADDR"`
}

type RedisConfig struct {
	Addr     string `toml:"addr" yaml:"addr" json:"addr" env:"ADDR"`
	Password string `toml:"password" yaml:"password" json:"password" env:"PASSWORD"`
	DB       int    `toml:"db" yaml:"db" json:"db" env:"DB"`
	Prefix   string `toml:"prefix" yaml:"prefix" json:"prefix" env:"PREFIX"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Workers:   8,
		MaxInput:  4096,
		HTTP: HTTPConfig{
			Addr:    ":8080",
			Metrics: true,
			Events:  true,
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Addr:      ":8081",
		},
		Redis: RedisConfig{
			Prefix: "tendril:grants:",
		},
	}
}

// Load applies the config file at path (if any) and the environment on top
// of the defaults. A missing file is only an error when path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes path into cfg, choosing the decoder by extension.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.LogFormat))
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		errs = append(errs, fmt.Errorf("invalid mcp transport %q", c.MCP.Transport))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	return errors.Join(errs...)
}
