// Package observability provides OpenTelemetry tracing and metrics and the
// structured logger shared by the esdown commands.
package observability

import (
	"io"
	"log/slog"
)

// Config holds the telemetry settings of one run.
type Config struct {
	// LogOutput receives log records. Nil means os.Stderr.
	LogOutput io.Writer

	ServiceName    string
	ServiceVersion string

	// OTLPEndpoint is the OTLP gRPC collector address, e.g. "localhost:4317".
	// Empty disables export.
	OTLPEndpoint string

	// SampleRatio is the share of root spans kept. Zero or one keeps all.
	SampleRatio float64

	LogLevel slog.Level

	OTLPInsecure bool
	LogJSON      bool
}

// DefaultConfig returns the settings used before any config file is read.
func DefaultConfig() Config {
	return Config{
		ServiceName: "esdown",
		LogLevel:    slog.LevelInfo,
	}
}
