package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricModulesTranslated = "esdown.modules.translated"
	metricTranslateErrors   = "esdown.translate.errors"
	metricTranslateDuration = "esdown.translate.duration.seconds"
	metricBundleBytes       = "esdown.bundle.size.bytes"

	attrCommand = "esdown.command"
	attrKind    = "error.kind"
)

// durationBucketBoundaries covers 1ms to 10s: single modules translate in
// milliseconds, whole bundles in seconds.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// TranslateMetrics holds the instruments recorded by the translate and
// bundle commands. A nil *TranslateMetrics records nothing.
type TranslateMetrics struct {
	modules     metric.Int64Counter
	errors      metric.Int64Counter
	duration    metric.Float64Histogram
	bundleBytes metric.Int64Histogram
}

// NewTranslateMetrics creates the instruments from mt.
func NewTranslateMetrics(mt metric.Meter) (*TranslateMetrics, error) {
	modules, err := mt.Int64Counter(metricModulesTranslated,
		metric.WithDescription("Modules translated"),
		metric.WithUnit("{module}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricModulesTranslated, err)
	}

	errs, err := mt.Int64Counter(metricTranslateErrors,
		metric.WithDescription("Translations that failed, by error kind"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTranslateErrors, err)
	}

	duration, err := mt.Float64Histogram(metricTranslateDuration,
		metric.WithDescription("Per-module translation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTranslateDuration, err)
	}

	size, err := mt.Int64Histogram(metricBundleBytes,
		metric.WithDescription("Size of produced output"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBundleBytes, err)
	}

	return &TranslateMetrics{modules: modules, errors: errs, duration: duration, bundleBytes: size}, nil
}

// RecordModule records one module translation. kind is empty on success
// and names the error type otherwise.
func (tm *TranslateMetrics) RecordModule(ctx context.Context, duration time.Duration, kind string) {
	if tm == nil {
		return
	}

	if kind != "" {
		tm.errors.Add(ctx, 1, metric.WithAttributes(attribute.String(attrKind, kind)))

		return
	}

	tm.modules.Add(ctx, 1)
	tm.duration.Record(ctx, duration.Seconds())
}

// RecordOutput records the size of the text a command produced.
func (tm *TranslateMetrics) RecordOutput(ctx context.Context, command string, size int) {
	if tm == nil {
		return
	}

	tm.bundleBytes.Record(ctx, int64(size), metric.WithAttributes(attribute.String(attrCommand, command)))
}
