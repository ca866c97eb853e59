package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StockLedger is the stock collaborator. It applies a batch atomically per
// product and records one audit entry per applied delta. When any delta is
// rejected nothing is applied, and the result reports which deltas failed.
type StockLedger interface {
	Apply(ctx context.Context, batch StockBatch) (*ApplyResult, error)
}

// DeltaResult is the ledger's verdict on one delta
type DeltaResult struct {
	VariantID     uuid.UUID
	Applied       bool
	QuantityAfter int64
	Err           error
}

// ApplyResult is the outcome of applying a batch
type ApplyResult struct {
	BatchID uuid.UUID
	Results []DeltaResult
}

// AllApplied reports whether every delta in the batch was applied
func (r *ApplyResult) AllApplied() bool {
	for _, res := range r.Results {
		if !res.Applied {
			return false
		}
	}
	return true
}

// Failed returns the results of deltas that were not applied
func (r *ApplyResult) Failed() []DeltaResult {
	var failed []DeltaResult
	for _, res := range r.Results {
		if !res.Applied {
			failed = append(failed, res)
		}
	}
	return failed
}

// EntryType classifies a ledger entry by direction
type EntryType string

const (
	EntryTypeAdjustmentIncrease EntryType = "ADJUSTMENT_INCREASE"
	EntryTypeAdjustmentDecrease EntryType = "ADJUSTMENT_DECREASE"
)

// LedgerEntry is the append-only audit record of one applied delta
type LedgerEntry struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	ProductID      uuid.UUID
	VariantID      uuid.UUID
	BatchID        uuid.UUID
	Sequence       int // position of the delta within its batch
	Type           EntryType
	Change         int64
	QuantityBefore int64
	QuantityAfter  int64
	Reason         string
	CreatedAt      time.Time
}

// NewLedgerEntry records a delta applied on top of quantityBefore
func NewLedgerEntry(batch StockBatch, delta StockDelta, quantityBefore int64) LedgerEntry {
	entryType := EntryTypeAdjustmentIncrease
	if delta.Change < 0 {
		entryType = EntryTypeAdjustmentDecrease
	}
	return LedgerEntry{
		ID:             uuid.New(),
		TenantID:       batch.TenantID,
		ProductID:      batch.ProductID,
		VariantID:      delta.VariantID,
		BatchID:        batch.ID,
		Type:           entryType,
		Change:         delta.Change,
		QuantityBefore: quantityBefore,
		QuantityAfter:  quantityBefore + delta.Change,
		Reason:         delta.Reason,
		CreatedAt:      time.Now(),
	}
}
