package inventory

import (
	"sort"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
)

// StockReconciler turns in-memory quantity edits into the minimal set of
// signed adjustments against an authoritative snapshot.
//
// The snapshot is trusted as given: no version check happens here. When
// another session may have changed stock, re-read the snapshot right before
// calling ComputeDeltas, or rely on the ledger's baseline check.
type StockReconciler struct{}

// NewStockReconciler creates a reconciler
func NewStockReconciler() *StockReconciler {
	return &StockReconciler{}
}

// ComputeDeltas diffs edits against the variants' authoritative stock.
// A delta is emitted only for a non-zero change and carries reason verbatim.
// Deltas follow the order of variants. An edit for a variant not in the
// snapshot fails the whole call with UnknownVariantError; no partial list is
// returned. An empty result is valid.
func (r *StockReconciler) ComputeDeltas(variants []catalog.Variant, edits map[uuid.UUID]int64, reason string) ([]StockDelta, error) {
	authoritative := make(map[uuid.UUID]int64, len(variants))
	for _, v := range variants {
		if !v.HasID() {
			continue
		}
		if _, seen := authoritative[v.ID]; !seen {
			authoritative[v.ID] = v.StockQuantity
		}
	}

	if err := validateEdits(authoritative, edits); err != nil {
		return nil, err
	}

	deltas := make([]StockDelta, 0, len(edits))
	emitted := make(map[uuid.UUID]struct{}, len(edits))
	for _, v := range variants {
		edited, ok := edits[v.ID]
		if !ok {
			continue
		}
		if _, done := emitted[v.ID]; done {
			continue
		}
		emitted[v.ID] = struct{}{}

		baseline := authoritative[v.ID]
		if change := edited - baseline; change != 0 {
			deltas = append(deltas, StockDelta{
				VariantID: v.ID,
				Change:    change,
				Reason:    reason,
				Baseline:  baseline,
			})
		}
	}
	return deltas, nil
}

// validateEdits checks edits in a stable order so the reported error does not
// depend on map iteration
func validateEdits(authoritative map[uuid.UUID]int64, edits map[uuid.UUID]int64) error {
	ids := make([]uuid.UUID, 0, len(edits))
	for id := range edits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		if _, ok := authoritative[id]; !ok {
			return &UnknownVariantError{VariantID: id}
		}
	}
	for _, id := range ids {
		if q := edits[id]; q < 0 {
			return &NegativeQuantityError{VariantID: id, Quantity: q}
		}
	}
	return nil
}
