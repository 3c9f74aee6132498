package graph

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("adroit.graph")

var (
	stageTransitions metric.Int64Counter
	invalidations    metric.Int64Counter
	staleJobs        metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		stageTransitions, err = meter.Int64Counter(
			"graph_stage_transitions_total",
			metric.WithDescription("Number of module stage transitions, by target stage"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		invalidations, err = meter.Int64Counter(
			"graph_invalidations_total",
			metric.WithDescription("Number of importers reset by a text change"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		staleJobs, err = meter.Int64Counter(
			"graph_stale_jobs_total",
			metric.WithDescription("Number of analysis results rejected as stale"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordTransition(ctx context.Context, stage string) {
	if err := initMetrics(); err != nil {
		return
	}
	stageTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func recordInvalidations(ctx context.Context, n int) {
	if n == 0 {
		return
	}
	if err := initMetrics(); err != nil {
		return
	}
	invalidations.Add(ctx, int64(n))
}

func recordStaleJob(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	staleJobs.Add(ctx, 1)
}
