// Package config handles configuration loading and validation for the
// calpoint client. Configuration files are TOML by convention, with YAML
// and JSON accepted by extension; a handful of environment variables
// override file values.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the client configuration.
type Config struct {
	// SeedDomain is the DNS TXT domain used for core discovery.
	SeedDomain string `toml:"seed_domain" yaml:"seed_domain" json:"seed_domain"`

	// NodeURIs pins submission and verification to fixed nodes.
	NodeURIs []string `toml:"node_uris" yaml:"node_uris" json:"node_uris"`

	// TimeoutSeconds bounds each individual network request.
	TimeoutSeconds int `toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`

	// MaxConcurrent caps in-flight requests per fan-out batch.
	MaxConcurrent int `toml:"max_concurrent" yaml:"max_concurrent" json:"max_concurrent"`

	// StorePath is the receipt database location; empty disables
	// persistence.
	StorePath string `toml:"store_path" yaml:"store_path" json:"store_path"`

	// Logging controls the structured logger.
	Logging LoggingConfig `toml:"logging" yaml:"logging" json:"logging"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level"`    // debug, info, warn, error
	Format string `toml:"format" yaml:"format" json:"format"` // text, json
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		SeedDomain:     "seed.calpoint.org",
		TimeoutSeconds: 10,
		MaxConcurrent:  25,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads the configuration file at path, applies environment
// overrides, and validates the result. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg, err := loadFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		// Try TOML by default
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode config (unknown format): %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnvOverrides applies CALPOINT_* environment variables on top of
// file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CALPOINT_SEED_DOMAIN"); v != "" {
		c.SeedDomain = v
	}
	if v := os.Getenv("CALPOINT_NODE_URIS"); v != "" {
		c.NodeURIs = splitAndTrim(v)
	}
	if v := os.Getenv("CALPOINT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("CALPOINT_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrent = n
		}
	}
	if v := os.Getenv("CALPOINT_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("CALPOINT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for values the client cannot run
// with. Invalid node URIs are reported together in one error.
func (c *Config) Validate() error {
	if c.SeedDomain == "" && len(c.NodeURIs) == 0 {
		return fmt.Errorf("either seed_domain or node_uris must be set")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive, got %d", c.MaxConcurrent)
	}

	var bad []string
	for _, n := range c.NodeURIs {
		u, err := url.Parse(n)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			bad = append(bad, n)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid node uris: %s", strings.Join(bad, ", "))
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
