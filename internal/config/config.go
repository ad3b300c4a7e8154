// Package config loads kavach configuration from ~/.kavach/config.yaml,
// a .env file in the working directory and KAVACH_* environment variables,
// in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/kavach/internal/errors"
)

// Session backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "KAVACH_"

// Config is the kavach configuration
type Config struct {
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Notify   NotifyConfig   `yaml:"notify"`
	Logging  LoggingConfig  `yaml:"logging"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

type APIConfig struct {
	BaseURL  string `yaml:"base_url"`
	BasePath string `yaml:"base_path"`
}

type SessionConfig struct {
	Backend     string        `yaml:"backend"` // "file", "redis", "memory"
	Path        string        `yaml:"path,omitempty"`
	Passphrase  string        `yaml:"passphrase,omitempty"`
	RedisAddr   string        `yaml:"redis_addr,omitempty"`
	RedisPrefix string        `yaml:"redis_prefix,omitempty"`
	RedisTTL    time.Duration `yaml:"redis_ttl,omitempty"`
}

type NotifyConfig struct {
	ShowDelay  time.Duration `yaml:"show_delay"`
	VisibleFor time.Duration `yaml:"visible_for"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
}

type DefaultsConfig struct {
	Format string `yaml:"format"` // "text", "json", "yaml"
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:  "http://localhost:8000",
			BasePath: "/api",
		},
		Session: SessionConfig{
			Backend:     BackendFile,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "kavach:",
		},
		Notify: NotifyConfig{
			ShowDelay:  100 * time.Millisecond,
			VisibleFor: 3 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Defaults: DefaultsConfig{
			Format: "text",
		},
	}
}

// Dir returns the kavach home directory, $KAVACH_HOME or ~/.kavach
func Dir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".kavach"), nil
}

// DefaultPath returns the path of the configuration file
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads path (DefaultPath when empty) over the defaults, then applies
// .env and environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env never overrides variables already set
	_ = godotenv.Load()

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads path over the defaults without environment overrides.
// Use it when the result is saved back.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.NewFileUnmarshalError(path, "YAML", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read config: %s", path), err)
	}
	return cfg, nil
}

// Save writes the configuration to path with owner-only permissions
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// EnvName returns the environment variable overriding key
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// ApplyEnv overrides every key whose variable lookup reports as set
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, key := range Keys() {
		if v, ok := lookup(EnvName(key)); ok {
			if err := c.Set(key, v); err != nil {
				return errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid %s", EnvName(key)), err)
			}
		}
	}
	return nil
}

// Validate checks enumerated values
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown session backend: %s", c.Session.Backend)).
			WithSuggestion("Use one of: file, redis, memory")
	}
	switch c.Defaults.Format {
	case "text", "json", "yaml":
	default:
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown output format: %s", c.Defaults.Format)).
			WithSuggestion("Use one of: text, json, yaml")
	}
	if c.Notify.ShowDelay < 0 || c.Notify.VisibleFor < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "notification timings must not be negative")
	}
	if c.API.BaseURL == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "api.base_url is empty").
			WithSuggestion("Run 'kavach config set api.base_url https://portal.example.com'")
	}
	return nil
}

// APIBase returns base URL and base path joined with one slash
func (c *Config) APIBase() string {
	base := strings.TrimRight(c.API.BaseURL, "/")
	path := strings.Trim(c.API.BasePath, "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}

// SessionPath returns the session file path, defaulting under Dir
func (c *Config) SessionPath() (string, error) {
	if c.Session.Path != "" {
		return expandHome(c.Session.Path)
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// SessionPassphrase returns the configured passphrase, or one bound to
// this user and host when none is set.
func (c *Config) SessionPassphrase() string {
	if c.Session.Passphrase != "" {
		return c.Session.Passphrase
	}
	host, _ := os.Hostname()
	return fmt.Sprintf("kavach:%s:%d", host, os.Getuid())
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// Keys lists every settable key in dot notation
func Keys() []string {
	return []string{
		"api.base_url",
		"api.base_path",
		"session.backend",
		"session.path",
		"session.passphrase",
		"session.redis_addr",
		"session.redis_prefix",
		"session.redis_ttl",
		"notify.show_delay",
		"notify.visible_for",
		"logging.level",
		"logging.format",
		"defaults.format",
	}
}

// Get returns the value of key in dot notation
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api.base_url":
		return c.API.BaseURL, nil
	case "api.base_path":
		return c.API.BasePath, nil
	case "session.backend":
		return c.Session.Backend, nil
	case "session.path":
		return c.Session.Path, nil
	case "session.passphrase":
		if c.Session.Passphrase == "" {
			return "", nil
		}
		return "********", nil
	case "session.redis_addr":
		return c.Session.RedisAddr, nil
	case "session.redis_prefix":
		return c.Session.RedisPrefix, nil
	case "session.redis_ttl":
		return c.Session.RedisTTL.String(), nil
	case "notify.show_delay":
		return c.Notify.ShowDelay.String(), nil
	case "notify.visible_for":
		return c.Notify.VisibleFor.String(), nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "defaults.format":
		return c.Defaults.Format, nil
	default:
		return "", errors.NewConfigKeyError(key)
	}
}

// Set assigns value to key in dot notation
func (c *Config) Set(key, value string) error {
	switch key {
	case "api.base_url":
		c.API.BaseURL = value
	case "api.base_path":
		c.API.BasePath = value
	case "session.backend":
		c.Session.Backend = strings.ToLower(value)
	case "session.path":
		c.Session.Path = value
	case "session.passphrase":
		c.Session.Passphrase = value
	case "session.redis_addr":
		c.Session.RedisAddr = value
	case "session.redis_prefix":
		c.Session.RedisPrefix = value
	case "session.redis_ttl":
		return setDuration(&c.Session.RedisTTL, value)
	case "notify.show_delay":
		return setDuration(&c.Notify.ShowDelay, value)
	case "notify.visible_for":
		return setDuration(&c.Notify.VisibleFor, value)
	case "logging.level":
		c.Logging.Level = strings.ToLower(value)
	case "logging.format":
		c.Logging.Format = strings.ToLower(value)
	case "defaults.format":
		c.Defaults.Format = strings.ToLower(value)
	default:
		return errors.NewConfigKeyError(key)
	}
	return nil
}

// setDuration accepts Go durations ("150ms") or bare milliseconds ("150")
func setDuration(dst *time.Duration, value string) error {
	if ms, err := strconv.Atoi(value); err == nil {
		*dst = time.Duration(ms) * time.Millisecond
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value, err)
	}
	*dst = d
	return nil
}
