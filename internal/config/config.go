package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	Engine         string
	DSN            string
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	ReadOnly       bool
	Strict         bool
	MaxRows        int
	MetricsAddr    string
	Log            LogConfig
}

type LogConfig struct {
	Level slog.Level
	JSON  bool
}

func LoadFromEnv(settingsPath string) (Config, error) {
	return Load(settingsPath, os.LookupEnv)
}

// Load builds a Config from defaults, then the YAML settings file, then the
// environment. settingsPath falls back to KNIFESQL_CONFIG; empty means no file.
func Load(settingsPath string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := defaults()

	if settingsPath == "" {
		if raw, ok := lookup("KNIFESQL_CONFIG"); ok {
			settingsPath = strings.TrimSpace(raw)
		}
	}
	if settingsPath != "" {
		if err := applyFile(settingsPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyString(lookup, "KNIFESQL_ENGINE", &cfg.Engine); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "KNIFESQL_DSN", &cfg.DSN); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "KNIFESQL_CONNECT_TIMEOUT", &cfg.ConnectTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "KNIFESQL_QUERY_TIMEOUT", &cfg.QueryTimeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "KNIFESQL_READ_ONLY", &cfg.ReadOnly); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "KNIFESQL_STRICT", &cfg.Strict); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "KNIFESQL_MAX_ROWS", &cfg.MaxRows); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "KNIFESQL_METRICS_ADDR", &cfg.MetricsAddr); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "KNIFESQL_LOG_JSON", &cfg.Log.JSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "KNIFESQL_LOG_LEVEL", &cfg.Log.Level); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		MaxRows: 1000,
		Log: LogConfig{
			Level: slog.LevelWarn,
		},
	}
}

func (c Config) validate() error {
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect timeout must not be negative")
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("query timeout must not be negative")
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("max rows must not be negative")
	}
	return nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level, err := parseLogLevel(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = level
	return nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", raw)
	}
}
