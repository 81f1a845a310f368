// Package config loads esdown settings from .esdown.yaml and ESDOWN_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/Sumatoshi-tech/esdown/pkg/observability"
	"github.com/Sumatoshi-tech/esdown/pkg/resolve"
)

// Sentinel validation errors.
var (
	ErrInvalidConcurrency = errors.New("bundle.max_concurrent_reads must not be negative")
	ErrInvalidExtension   = errors.New("resolve.default_extension must start with a dot")
	ErrInvalidIndexFile   = errors.New("resolve.index_file must be a file name")
	ErrInvalidScheme      = errors.New("invalid legacy scheme")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be within [0, 1]")
)

// Config holds all esdown settings.
type Config struct {
	Translate TranslateConfig `mapstructure:"translate"`
	Bundle    BundleConfig    `mapstructure:"bundle"`
	Resolve   ResolveConfig   `mapstructure:"resolve"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// TranslateConfig configures single-file translation.
type TranslateConfig struct {
	Global  string `mapstructure:"global"`
	Runtime bool   `mapstructure:"runtime"`
	Wrap    bool   `mapstructure:"wrap"`
}

// BundleConfig configures bundling.
type BundleConfig struct {
	MaxConcurrentReads int64 `mapstructure:"max_concurrent_reads"`
	Runtime            bool  `mapstructure:"runtime"`
}

// ResolveConfig configures module specifier resolution.
type ResolveConfig struct {
	DefaultExtension string   `mapstructure:"default_extension"`
	IndexFile        string   `mapstructure:"index_file"`
	LegacySchemes    []string `mapstructure:"legacy_schemes"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Bundle.MaxConcurrentReads < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, c.Bundle.MaxConcurrentReads)
	}

	if !strings.HasPrefix(c.Resolve.DefaultExtension, ".") || len(c.Resolve.DefaultExtension) < 2 {
		return fmt.Errorf("%w: %q", ErrInvalidExtension, c.Resolve.DefaultExtension)
	}

	if c.Resolve.IndexFile == "" || strings.ContainsAny(c.Resolve.IndexFile, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidIndexFile, c.Resolve.IndexFile)
	}

	for _, s := range c.Resolve.LegacySchemes {
		if !resolve.HasScheme(s + ":") {
			return fmt.Errorf("%w: %q", ErrInvalidScheme, s)
		}
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, name)
	}

	return level, nil
}

// Schemes returns the legacy scheme set.
func (c *Config) Schemes() resolve.Schemes {
	return resolve.Schemes{Legacy: c.Resolve.LegacySchemes}
}

// NewResolver builds a resolver over fs with the configured lookup rules.
func (c *Config) NewResolver(fs afero.Fs) *resolve.Resolver {
	r := resolve.NewResolver(fs)
	r.DefaultExtension = c.Resolve.DefaultExtension
	r.IndexFile = c.Resolve.IndexFile

	return r
}

// Observability derives the telemetry setup for a run of version.
func (c *Config) Observability(version string) observability.Config {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	cfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	cfg.SampleRatio = c.Telemetry.SampleRatio
	cfg.LogJSON = c.Logging.JSON

	if level, err := ParseLevel(c.Logging.Level); err == nil {
		cfg.LogLevel = level
	}

	return cfg
}
