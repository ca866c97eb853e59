package inventory

import (
	"github.com/google/uuid"
)

// StockDelta is one signed stock adjustment sent to the ledger.
// Change is edited minus authoritative and is never zero. Baseline is the
// authoritative quantity the change was computed against; the ledger rejects
// the delta when the stored quantity has moved since.
type StockDelta struct {
	VariantID uuid.UUID `json:"variant_id"`
	Change    int64     `json:"change"`
	Reason    string    `json:"reason"`
	Baseline  int64     `json:"baseline"`
}

// Target returns the quantity the delta brings the variant to
func (d StockDelta) Target() int64 {
	return d.Baseline + d.Change
}

// IsEmptyBatch reports the empty-batch signal: there is nothing to save.
// Whether that blocks a save is the caller's policy.
func IsEmptyBatch(deltas []StockDelta) bool {
	return len(deltas) == 0
}

// StockBatch groups the deltas of one product commit. The ledger applies a
// batch all-or-nothing.
type StockBatch struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	ProductID uuid.UUID
	Deltas    []StockDelta
}

// NewStockBatch creates a batch with a fresh ID
func NewStockBatch(tenantID, productID uuid.UUID, deltas []StockDelta) StockBatch {
	return StockBatch{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ProductID: productID,
		Deltas:    append([]StockDelta(nil), deltas...),
	}
}
