package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics counts stock commits and variant regenerations.
// A nil *BusinessMetrics records nothing.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	stockBatchTotal    *Counter
	stockDeltaTotal    *Counter
	variantChangeTotal *Counter
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	bm.stockBatchTotal, err = NewCounter(
		cfg.Meter,
		"storefront_stock_batch_total",
		"Stock batches submitted to the ledger, by outcome",
		"{batches}",
	)
	if err != nil {
		return nil, err
	}

	bm.stockDeltaTotal, err = NewCounter(
		cfg.Meter,
		"storefront_stock_delta_total",
		"Per-variant stock adjustments submitted to the ledger, by outcome",
		"{deltas}",
	)
	if err != nil {
		return nil, err
	}

	bm.variantChangeTotal, err = NewCounter(
		cfg.Meter,
		"storefront_variants_generated_total",
		"Variants added, kept or removed by matrix regeneration",
		"{variants}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// NewGlobalBusinessMetrics creates BusinessMetrics on the globally registered
// MeterProvider
func NewGlobalBusinessMetrics(logger *zap.Logger) (*BusinessMetrics, error) {
	return NewBusinessMetrics(BusinessMetricsConfig{
		Meter:  otel.Meter(MeterName),
		Logger: logger,
	})
}

// BatchOutcome labels how the ledger handled a stock batch
type BatchOutcome string

const (
	BatchOutcomeApplied  BatchOutcome = "applied"
	BatchOutcomeRejected BatchOutcome = "rejected"
	BatchOutcomeFailed   BatchOutcome = "failed"
)

// RecordStockBatch records one batch and its delta count under outcome
func (bm *BusinessMetrics) RecordStockBatch(ctx context.Context, tenantID uuid.UUID, outcome BatchOutcome, deltaCount int) {
	if bm == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrOutcome.String(string(outcome)),
	}
	bm.stockBatchTotal.Inc(ctx, attrs...)
	bm.stockDeltaTotal.Add(ctx, int64(deltaCount), attrs...)
}

// RecordVariantsRegenerated records the variant changes of one regeneration.
// Zero counts are not recorded.
func (bm *BusinessMetrics) RecordVariantsRegenerated(ctx context.Context, tenantID uuid.UUID, added, kept, removed int) {
	if bm == nil {
		return
	}
	tenant := AttrTenantID.String(tenantID.String())
	for change, n := range map[string]int{"added": added, "kept": kept, "removed": removed} {
		if n > 0 {
			bm.variantChangeTotal.Add(ctx, int64(n), tenant, AttrChange.String(change))
		}
	}
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
