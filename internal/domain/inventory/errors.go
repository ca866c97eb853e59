package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Sentinel errors for stock reconciliation
var (
	ErrUnknownVariant     = shared.NewDomainError("UNKNOWN_VARIANT", "Stock edit references a variant that does not exist")
	ErrNegativeQuantity   = shared.NewDomainError("NEGATIVE_QUANTITY", "Stock quantity cannot be negative")
	ErrSubmitInProgress   = shared.NewDomainError("SUBMIT_IN_PROGRESS", "Stock edits are being submitted")
	ErrNoSubmitInProgress = shared.NewDomainError("NO_SUBMIT_IN_PROGRESS", "No stock submission is in progress")
	ErrNotConfirmed       = shared.NewDomainError("NOT_CONFIRMED", "Ledger did not confirm the stock adjustment")
)

// UnknownVariantError is returned when an edit names a variant absent from the
// authoritative snapshot. A stale edit is never skipped silently.
type UnknownVariantError struct {
	VariantID uuid.UUID
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("stock edit references unknown variant %s", e.VariantID)
}

func (e *UnknownVariantError) Unwrap() error { return ErrUnknownVariant }

// NegativeQuantityError is returned for an edited quantity below zero
type NegativeQuantityError struct {
	VariantID uuid.UUID
	Quantity  int64
}

func (e *NegativeQuantityError) Error() string {
	return fmt.Sprintf("stock quantity %d for variant %s cannot be negative", e.Quantity, e.VariantID)
}

func (e *NegativeQuantityError) Unwrap() error { return ErrNegativeQuantity }
