package inventory

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
)

// EditState is the per-variant state of an edit session
type EditState string

const (
	EditStateClean      EditState = "clean"      // no pending edit
	EditStateDirty      EditState = "dirty"      // edited value differs from authoritative
	EditStateSubmitting EditState = "submitting" // delta handed to the ledger
	EditStateApplied    EditState = "applied"    // ledger confirmed the last submission
	EditStateFailed     EditState = "failed"     // last submission rejected; edit kept
)

// StockEditSession is the in-memory working set of an inventory grid.
// It holds the authoritative snapshot and the user's edits, and tracks each
// edited variant through Clean -> Dirty -> Submitting -> Applied | Failed.
// Edits are only cleared once the ledger confirms them.
//
// A session belongs to one caller and is not safe for concurrent use.
type StockEditSession struct {
	productID  uuid.UUID
	reconciler *StockReconciler
	snapshot   []catalog.Variant
	baseline   map[uuid.UUID]int64
	edits      map[uuid.UUID]int64
	submitting map[uuid.UUID]struct{}
	failures   map[uuid.UUID]error
	applied    map[uuid.UUID]struct{}
}

// NewStockEditSession opens a session over an authoritative snapshot
func NewStockEditSession(productID uuid.UUID, variants []catalog.Variant) *StockEditSession {
	s := &StockEditSession{
		productID:  productID,
		reconciler: NewStockReconciler(),
		snapshot:   catalog.CloneVariants(variants),
		baseline:   make(map[uuid.UUID]int64, len(variants)),
		edits:      make(map[uuid.UUID]int64),
		submitting: make(map[uuid.UUID]struct{}),
		failures:   make(map[uuid.UUID]error),
		applied:    make(map[uuid.UUID]struct{}),
	}
	for _, v := range s.snapshot {
		if _, seen := s.baseline[v.ID]; v.HasID() && !seen {
			s.baseline[v.ID] = v.StockQuantity
		}
	}
	return s
}

// ProductID returns the product the session edits
func (s *StockEditSession) ProductID() uuid.UUID {
	return s.productID
}

// Snapshot returns the authoritative variants with confirmed changes applied
func (s *StockEditSession) Snapshot() []catalog.Variant {
	return catalog.CloneVariants(s.snapshot)
}

// Edit records an edited quantity. Editing a value back to the authoritative
// quantity returns the variant to Clean.
func (s *StockEditSession) Edit(variantID uuid.UUID, quantity int64) error {
	if s.IsSubmitting() {
		return ErrSubmitInProgress
	}
	base, ok := s.baseline[variantID]
	if !ok {
		return &UnknownVariantError{VariantID: variantID}
	}
	if quantity < 0 {
		return &NegativeQuantityError{VariantID: variantID, Quantity: quantity}
	}

	delete(s.failures, variantID)
	delete(s.applied, variantID)
	if quantity == base {
		delete(s.edits, variantID)
		return nil
	}
	s.edits[variantID] = quantity
	return nil
}

// Authoritative returns the last known persisted quantity of a variant
func (s *StockEditSession) Authoritative(variantID uuid.UUID) (int64, bool) {
	q, ok := s.baseline[variantID]
	return q, ok
}

// Edited returns the pending edited quantity of a variant, if any
func (s *StockEditSession) Edited(variantID uuid.UUID) (int64, bool) {
	q, ok := s.edits[variantID]
	return q, ok
}

// Edits returns a copy of the pending edits
func (s *StockEditSession) Edits() map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(s.edits))
	for id, q := range s.edits {
		out[id] = q
	}
	return out
}

// State returns the state of one variant
func (s *StockEditSession) State(variantID uuid.UUID) EditState {
	if _, ok := s.submitting[variantID]; ok {
		return EditStateSubmitting
	}
	if _, ok := s.failures[variantID]; ok {
		return EditStateFailed
	}
	if _, ok := s.edits[variantID]; ok {
		return EditStateDirty
	}
	if _, ok := s.applied[variantID]; ok {
		return EditStateApplied
	}
	return EditStateClean
}

// Failure returns the ledger error of a variant's last rejected submission
func (s *StockEditSession) Failure(variantID uuid.UUID) error {
	return s.failures[variantID]
}

// IsDirty reports whether any edit is pending
func (s *StockEditSession) IsDirty() bool {
	return len(s.edits) > 0
}

// IsSubmitting reports whether a submission is in flight
func (s *StockEditSession) IsSubmitting() bool {
	return len(s.submitting) > 0
}

// Deltas previews the deltas the pending edits would produce
func (s *StockEditSession) Deltas(reason string) ([]StockDelta, error) {
	return s.reconciler.ComputeDeltas(s.snapshot, s.edits, reason)
}

// BeginSubmit computes the deltas for the pending edits and marks those
// variants Submitting. An empty result leaves the session untouched.
func (s *StockEditSession) BeginSubmit(reason string) ([]StockDelta, error) {
	if s.IsSubmitting() {
		return nil, ErrSubmitInProgress
	}
	deltas, err := s.Deltas(reason)
	if err != nil {
		return nil, err
	}
	for _, d := range deltas {
		s.submitting[d.VariantID] = struct{}{}
	}
	return deltas, nil
}

// Complete settles a submission with the ledger's per-delta results.
// Confirmed deltas advance the authoritative quantity and clear the edit;
// every other submitting variant stays edited and is marked Failed.
func (s *StockEditSession) Complete(results []DeltaResult) error {
	if !s.IsSubmitting() {
		return ErrNoSubmitInProgress
	}

	confirmed := make(map[uuid.UUID]DeltaResult, len(results))
	for _, r := range results {
		if _, ok := s.submitting[r.VariantID]; ok {
			confirmed[r.VariantID] = r
		}
	}

	for id := range s.submitting {
		r, ok := confirmed[id]
		switch {
		case ok && r.Applied:
			s.advance(id, s.edits[id])
			delete(s.edits, id)
			s.applied[id] = struct{}{}
		case ok && r.Err != nil:
			s.failures[id] = r.Err
		default:
			s.failures[id] = ErrNotConfirmed
		}
	}
	s.submitting = make(map[uuid.UUID]struct{})
	return nil
}

// Abort returns every submitting variant to Dirty without recording a
// failure. Used when the save is cancelled before the ledger was reached.
func (s *StockEditSession) Abort() {
	s.submitting = make(map[uuid.UUID]struct{})
}

// Discard drops all pending edits
func (s *StockEditSession) Discard() error {
	if s.IsSubmitting() {
		return ErrSubmitInProgress
	}
	s.edits = make(map[uuid.UUID]int64)
	s.failures = make(map[uuid.UUID]error)
	return nil
}

func (s *StockEditSession) advance(variantID uuid.UUID, quantity int64) {
	s.baseline[variantID] = quantity
	for i := range s.snapshot {
		if s.snapshot[i].ID == variantID {
			s.snapshot[i].StockQuantity = quantity
		}
	}
}
