package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/roach88/adaptivity/internal/ir"
)

var (
	tracer = otel.Tracer("adaptivity.engine")
	meter  = otel.Meter("adaptivity.engine")
)

// checkMetrics holds the engine's instruments. Instruments that fail to
// register stay nil and are skipped.
type checkMetrics struct {
	checks   metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

func newCheckMetrics(logger *slog.Logger) *checkMetrics {
	m := &checkMetrics{}
	var initErrors []string

	var err error
	m.checks, err = meter.Int64Counter("adaptivity_checks_total",
		metric.WithDescription("Number of completed checks"),
	)
	if err != nil {
		initErrors = append(initErrors, "checks: "+err.Error())
	}

	m.failures, err = meter.Int64Counter("adaptivity_check_failures_total",
		metric.WithDescription("Number of checks that returned an error"),
	)
	if err != nil {
		initErrors = append(initErrors, "failures: "+err.Error())
	}

	m.duration, err = meter.Float64Histogram("adaptivity_check_duration_seconds",
		metric.WithDescription("Time spent evaluating one check"),
		metric.WithUnit("s"),
	)
	if err != nil {
		initErrors = append(initErrors, "duration: "+err.Error())
	}

	if len(initErrors) > 0 {
		logger.Error("failed to initialize some engine metrics (observability degraded)",
			slog.Int("failed_count", len(initErrors)),
			slog.Any("errors", initErrors),
		)
	}
	return m
}

func (m *checkMetrics) observe(ctx context.Context, result *ir.Result, err error, elapsed time.Duration) {
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds())
	}
	if err != nil {
		if m.failures != nil {
			m.failures.Add(ctx, 1)
		}
		return
	}
	if m.checks != nil {
		m.checks.Add(ctx, 1, metric.WithAttributes(attribute.Bool("correct", result.Correct)))
	}
}
