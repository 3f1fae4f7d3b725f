// Licensed to the orgscope authors under one or more agreements.
// The orgscope authors license this file to you under the Apache 2.0 License.
// See the LICENSE file in the project root for more information.

// Package config loads orgscope configuration from YAML files and the
// environment. Values are resolved with the precedence: built-in
// defaults, then the config file, then environment variables. Command
// line flags are applied by the caller on top of the loaded Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level orgscope configuration.
type Config struct {
	GitHub GitHubConfig `yaml:"github"`
	Server ServerConfig `yaml:"server"`
	Cache  CacheConfig  `yaml:"cache"`
}

// GitHubConfig controls how orgscope talks to the GitHub REST API.
type GitHubConfig struct {
	// APIBaseURL is the GitHub REST API base URL. Override it to point
	// at a GitHub Enterprise instance or a test server.
	APIBaseURL string `yaml:"api_base_url"`

	// RequestTimeout bounds each outbound GitHub API request.
	RequestTimeout Duration `yaml:"request_timeout"`
}

// ServerConfig controls the orgscope HTTP server.
type ServerConfig struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
}

// CacheConfig controls the organization summary cache.
type CacheConfig struct {
	// TTL is the duration for which cached lookups are valid. Zero
	// disables caching.
	TTL Duration `yaml:"ttl"`

	// MaxEntries is the maximum number of organizations to cache.
	MaxEntries int `yaml:"max_entries"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIBaseURL:     "https://api.github.com",
			RequestTimeout: Duration(10 * time.Second),
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
		Cache: CacheConfig{
			TTL:        Duration(5 * time.Minute),
			MaxEntries: 1000,
		},
	}
}

// Load reads the configuration from the given file path. When path is
// empty the default locations are searched in order and a missing file
// is not an error; an explicit path that cannot be read is. Environment
// variables are applied on top of whatever the file provided.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// defaultPaths returns the config file search locations, checked in
// order when no explicit path is given.
func defaultPaths() []string {
	paths := []string{".orgscope.yaml", ".orgscope.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "orgscope", "config.yaml"),
			filepath.Join(home, ".config", "orgscope", "config.yml"),
		)
	}
	return paths
}

func findConfigFile() string {
	for _, p := range defaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides layers environment variables over file values.
// Unparseable values are ignored rather than treated as fatal.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GITHUB_API_BASE_URL"); v != "" {
		cfg.GitHub.APIBaseURL = v
	}
	if v := os.Getenv("ORGSCOPE_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.GitHub.RequestTimeout = Duration(d)
		}
	}
	if v := os.Getenv("ORGSCOPE_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("ORGSCOPE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = Duration(d)
		}
	}
	if v := os.Getenv("ORGSCOPE_CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Cache.MaxEntries = n
		}
	}
}

// Validate checks that the configuration values are usable. It should
// run after all overrides have been applied.
func (c *Config) Validate() error {
	if c.GitHub.APIBaseURL == "" {
		return errors.New("github.api_base_url cannot be empty")
	}
	if !strings.HasPrefix(c.GitHub.APIBaseURL, "http://") && !strings.HasPrefix(c.GitHub.APIBaseURL, "https://") {
		return fmt.Errorf("github.api_base_url must be an http(s) URL, got %s", c.GitHub.APIBaseURL)
	}
	if c.GitHub.RequestTimeout <= 0 {
		return fmt.Errorf("github.request_timeout must be positive, got %s", c.GitHub.RequestTimeout)
	}
	if c.Server.Listen == "" {
		return errors.New("server.listen cannot be empty")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be non-negative, got %s", c.Cache.TTL)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	return nil
}

// Duration is a time.Duration that unmarshals from YAML strings in Go
// duration syntax, such as "30s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
