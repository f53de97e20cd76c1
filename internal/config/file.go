package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileSettings is the YAML settings file. It has no connection string or
// credential fields.
type fileSettings struct {
	Engine         string `yaml:"engine"`
	ConnectTimeout string `yaml:"connect_timeout"`
	QueryTimeout   string `yaml:"query_timeout"`
	ReadOnly       *bool  `yaml:"read_only"`
	Strict         *bool  `yaml:"strict"`
	MaxRows        *int   `yaml:"max_rows"`
	MetricsAddr    string `yaml:"metrics_addr"`
	Log            struct {
		Level string `yaml:"level"`
		JSON  *bool  `yaml:"json"`
	} `yaml:"log"`
}

func applyFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings file: %w", err)
	}

	var settings fileSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("parse settings file %q: %w", path, err)
	}

	if settings.Engine != "" {
		cfg.Engine = settings.Engine
	}
	if settings.ConnectTimeout != "" {
		d, err := time.ParseDuration(settings.ConnectTimeout)
		if err != nil {
			return fmt.Errorf("invalid connect_timeout in %q: %w", path, err)
		}
		cfg.ConnectTimeout = d
	}
	if settings.QueryTimeout != "" {
		d, err := time.ParseDuration(settings.QueryTimeout)
		if err != nil {
			return fmt.Errorf("invalid query_timeout in %q: %w", path, err)
		}
		cfg.QueryTimeout = d
	}
	if settings.ReadOnly != nil {
		cfg.ReadOnly = *settings.ReadOnly
	}
	if settings.Strict != nil {
		cfg.Strict = *settings.Strict
	}
	if settings.MaxRows != nil {
		cfg.MaxRows = *settings.MaxRows
	}
	if settings.MetricsAddr != "" {
		cfg.MetricsAddr = settings.MetricsAddr
	}
	if settings.Log.Level != "" {
		level, err := parseLogLevel(settings.Log.Level)
		if err != nil {
			return fmt.Errorf("invalid log.level in %q: %w", path, err)
		}
		cfg.Log.Level = level
	}
	if settings.Log.JSON != nil {
		cfg.Log.JSON = *settings.Log.JSON
	}
	return nil
}
