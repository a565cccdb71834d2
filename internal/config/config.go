// Package config loads Toolsmith configuration with priority:
// defaults -> TOML files -> TOOLSMITH_* environment -> flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/toolsmith/internal/common"
	"github.com/bobmcallan/toolsmith/internal/models"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig         `toml:"server"`
	Upstream UpstreamConfig       `toml:"upstream"`
	Spec     SpecConfig           `toml:"spec"`
	Logging  common.LoggingConfig `toml:"logging"`
	Policy   models.SafetyPolicy  `toml:"policy"`
	Enhance  EnhanceConfig        `toml:"enhance"`
	Output   OutputConfig         `toml:"output"`
	Cache    CacheConfig          `toml:"cache"`
	Watch    WatchConfig          `toml:"watch"`
}

// ServerConfig contains MCP server bind settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// UpstreamConfig contains settings for the API that mined tools dispatch to.
// An empty URL falls back to the spec document's base URL.
type UpstreamConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the upstream HTTP timeout as a duration.
func (c *UpstreamConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SpecConfig identifies the API description document to mine.
type SpecConfig struct {
	Source string `toml:"source"` // file path or http(s) URL
}

// EnhanceConfig controls the optional LLM enhancement step.
type EnhanceConfig struct {
	Enabled        bool             `toml:"enabled"`
	TimeoutSeconds int              `toml:"timeout_seconds"`
	Providers      []ProviderConfig `toml:"providers"`
}

// Timeout returns the per-request enhancement timeout.
func (c *EnhanceConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ProviderConfig describes one OpenAI-compatible reasoning endpoint.
// API keys come from the environment variable named by KeyEnv, never TOML.
type ProviderConfig struct {
	Name    string `toml:"name"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	KeyEnv  string `toml:"key_env"`
}

// OutputConfig controls where the pipeline CLI writes manifests and reports.
type OutputConfig struct {
	Dir string `toml:"dir"`
}

// CacheConfig controls the upstream GET response cache.
type CacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
	MaxEntries int `toml:"max_entries"`
}

// TTL returns the cache entry lifetime.
func (c *CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// WatchConfig controls spec-file watching in the server binary.
type WatchConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMS int  `toml:"debounce_ms"`
}

// Debounce returns the watch debounce interval.
func (c *WatchConfig) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies TOOLSMITH_* environment variable overrides.
// Invalid numeric or boolean values leave the prior value untouched.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("TOOLSMITH_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TOOLSMITH_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if url := os.Getenv("TOOLSMITH_UPSTREAM_URL"); url != "" {
		config.Upstream.URL = url
	}
	if source := os.Getenv("TOOLSMITH_SPEC_SOURCE"); source != "" {
		config.Spec.Source = source
	}
	if level := os.Getenv("TOOLSMITH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if dir := os.Getenv("TOOLSMITH_OUTPUT_DIR"); dir != "" {
		config.Output.Dir = dir
	}
	if block := os.Getenv("TOOLSMITH_BLOCK_DESTRUCTIVE"); block != "" {
		if b, err := strconv.ParseBool(block); err == nil {
			config.Policy.BlockDestructive = b
		}
	}
	if max := os.Getenv("TOOLSMITH_MAX_TOOLS"); max != "" {
		if n, err := strconv.Atoi(max); err == nil {
			config.Policy.MaxTools = n
		}
	}
	if enabled := os.Getenv("TOOLSMITH_ENHANCE_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Enhance.Enabled = b
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
