package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is looked up in the working directory when no explicit
// path is given.
const DefaultSettingsFile = "nodecore.yaml"

// Settings configures the runtime. Values come from nodecore.yaml, then
// .env, then NODECORE_* environment variables, each overriding the last.
type Settings struct {
	// MaxEvalDepth bounds nested function calls before evaluation yields a
	// StackOverflow error value.
	MaxEvalDepth int `yaml:"max_eval_depth"`

	// HTTPTimeout applies to every request issued by generated JSON clients
	// and the HTTP Request builtin.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// DatabasePath points at the SQLite world store. Empty means in-memory.
	DatabasePath string `yaml:"database_path,omitempty"`

	// ArgCacheSize is the number of argument-definition lookups memoised by
	// the environment query facade.
	ArgCacheSize int `yaml:"arg_cache_size"`

	// UserAgent is sent by the HTTP fetcher.
	UserAgent string `yaml:"user_agent,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxEvalDepth: 1000,
		HTTPTimeout:  10 * time.Second,
		LogLevel:     "info",
		ArgCacheSize: 256,
		UserAgent:    "nodecore",
	}
}

// LoadSettings reads path (or nodecore.yaml if path is empty and the file
// exists), then applies .env and environment overrides.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	explicit := path != ""
	if !explicit {
		path = DefaultSettingsFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return s, fmt.Errorf("reading %s: %w", path, err)
	}

	_ = godotenv.Load()
	if err := s.applyEnv(); err != nil {
		return s, err
	}
	return s, s.Validate()
}

func (s *Settings) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("NODECORE_MAX_EVAL_DEPTH")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NODECORE_MAX_EVAL_DEPTH: %w", err)
		}
		s.MaxEvalDepth = n
	}
	if v := strings.TrimSpace(os.Getenv("NODECORE_HTTP_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("NODECORE_HTTP_TIMEOUT: %w", err)
		}
		s.HTTPTimeout = d
	}
	if v := strings.TrimSpace(os.Getenv("NODECORE_ARG_CACHE_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NODECORE_ARG_CACHE_SIZE: %w", err)
		}
		s.ArgCacheSize = n
	}
	s.LogLevel = firstNonEmpty(strings.TrimSpace(os.Getenv("NODECORE_LOG_LEVEL")), s.LogLevel)
	s.DatabasePath = firstNonEmpty(strings.TrimSpace(os.Getenv("NODECORE_DATABASE")), s.DatabasePath)
	s.UserAgent = firstNonEmpty(strings.TrimSpace(os.Getenv("NODECORE_USER_AGENT")), s.UserAgent)
	return nil
}

// Validate checks the settings for values the runtime cannot work with.
func (s Settings) Validate() error {
	if s.MaxEvalDepth <= 0 {
		return fmt.Errorf("max_eval_depth must be positive, got %d", s.MaxEvalDepth)
	}
	if s.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", s.HTTPTimeout)
	}
	if s.ArgCacheSize <= 0 {
		return fmt.Errorf("arg_cache_size must be positive, got %d", s.ArgCacheSize)
	}
	if _, ok := parseLevel(s.LogLevel); !ok {
		return fmt.Errorf("unknown log_level %q", s.LogLevel)
	}
	return nil
}

// SlogLevel maps LogLevel onto slog. Unknown levels fall back to info.
func (s Settings) SlogLevel() slog.Level {
	lvl, _ := parseLevel(s.LogLevel)
	return lvl
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
