// Package metrics holds the Prometheus and OpenTelemetry instruments of the import pipeline
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// stagedRows counts rows produced by adapters by provider and outcome (staged, failed).
	stagedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_staged_rows_total",
		Help: "Total number of staged rows by provider and outcome",
	}, []string{"provider", "outcome"})

	// batches counts finished stage runs by provider and final status.
	batches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_batches_total",
		Help: "Total number of staged batches by provider and final status",
	}, []string{"provider", "status"})

	// commitRows counts commit outcomes (inserted, updated, skipped, failed).
	commitRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_commit_rows_total",
		Help: "Total number of committed rows by outcome",
	}, []string{"outcome"})

	// commitWarnings counts best-effort failures during commit (variant, image).
	commitWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_commit_warnings_total",
		Help: "Total number of non-fatal commit failures by kind",
	}, []string{"kind"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "import_stage_duration_seconds",
		Help:    "Time taken to stage a batch by provider",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"provider"})

	commitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_commit_duration_seconds",
		Help:    "Time taken to commit a batch",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	// Instruments on the global meter; they forward to whichever provider
	// telemetry.Init installs.
	meter           = otel.Meter("github.com/motorefacciones/import-service/metrics")
	otelStagedRows  metric.Int64Counter
	otelCommitRows  metric.Int64Counter
	otelPhaseLength metric.Float64Histogram
)

func init() {
	otelStagedRows, _ = meter.Int64Counter("import.staged_rows",
		metric.WithDescription("Rows staged by provider and outcome"))
	otelCommitRows, _ = meter.Int64Counter("import.commit_rows",
		metric.WithDescription("Rows committed by outcome"))
	otelPhaseLength, _ = meter.Float64Histogram("import.phase.duration",
		metric.WithDescription("Duration of stage and commit phases"),
		metric.WithUnit("s"))
}

// RecordStagedRows adds staged and failed row counts for a provider
func RecordStagedRows(ctx context.Context, provider string, staged, failed int) {
	stagedRows.WithLabelValues(provider, "staged").Add(float64(staged))
	stagedRows.WithLabelValues(provider, "failed").Add(float64(failed))

	otelStagedRows.Add(ctx, int64(staged), metric.WithAttributes(
		attribute.String("provider", provider), attribute.String("outcome", "staged")))
	otelStagedRows.Add(ctx, int64(failed), metric.WithAttributes(
		attribute.String("provider", provider), attribute.String("outcome", "failed")))
}

// RecordBatch records a finished stage run
func RecordBatch(ctx context.Context, provider, status string, elapsed time.Duration) {
	batches.WithLabelValues(provider, status).Inc()
	stageDuration.WithLabelValues(provider).Observe(elapsed.Seconds())

	otelPhaseLength.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("phase", "stage"), attribute.String("provider", provider)))
}

// RecordCommit records a finished commit run
func RecordCommit(ctx context.Context, inserted, updated, skipped, failed int, elapsed time.Duration) {
	for outcome, n := range map[string]int{
		"inserted": inserted,
		"updated":  updated,
		"skipped":  skipped,
		"failed":   failed,
	} {
		commitRows.WithLabelValues(outcome).Add(float64(n))
		otelCommitRows.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	commitDuration.Observe(elapsed.Seconds())

	otelPhaseLength.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("phase", "commit")))
}

// RecordCommitWarning counts one best-effort failure of the given kind
func RecordCommitWarning(kind string) {
	commitWarnings.WithLabelValues(kind).Inc()
}
