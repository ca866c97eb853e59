package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
)

// Stock commit errors
var (
	ErrNothingToSave         = shared.NewDomainError("NOTHING_TO_SAVE", "There are no stock changes to save")
	ErrBatchAlreadySubmitted = shared.NewDomainError("BATCH_ALREADY_SUBMITTED", "This stock batch was already submitted")
	ErrBatchRejected         = shared.NewDomainError("BATCH_REJECTED", "Stock batch was rejected; no changes were applied")
)

// BatchRejectedError reports the deltas the ledger refused. The whole batch
// was rolled back and the session keeps every edit.
type BatchRejectedError struct {
	BatchID uuid.UUID
	Failed  []inventory.DeltaResult
}

func (e *BatchRejectedError) Error() string {
	return fmt.Sprintf("stock batch %s rejected: %d of its adjustments failed", e.BatchID, len(e.Failed))
}

func (e *BatchRejectedError) Unwrap() error { return ErrBatchRejected }
