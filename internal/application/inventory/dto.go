package inventory

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
)

// CommitStockRequest represents a request to save the pending stock edits of a session
type CommitStockRequest struct {
	Reason string `json:"reason"`
	// IdempotencyKey identifies the save attempt; a replay with the same key is not applied twice
	IdempotencyKey string `json:"idempotency_key" validate:"omitempty,min=8,max=128"`
}

// StockDeltaResponse represents one stock adjustment in API responses
type StockDeltaResponse struct {
	VariantID     uuid.UUID `json:"variant_id"`
	Change        int64     `json:"change"`
	Reason        string    `json:"reason"`
	Baseline      int64     `json:"baseline"`
	Applied       bool      `json:"applied"`
	QuantityAfter int64     `json:"quantity_after,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// CommitStockResponse represents the outcome of a stock commit
type CommitStockResponse struct {
	ProductID uuid.UUID            `json:"product_id"`
	BatchID   *uuid.UUID           `json:"batch_id,omitempty"`
	Empty     bool                 `json:"empty"`
	Deltas    []StockDeltaResponse `json:"deltas"`
}

// StockRowResponse represents one variant row of an inventory grid
type StockRowResponse struct {
	VariantID     uuid.UUID           `json:"variant_id"`
	SKU           string              `json:"sku"`
	Name          string              `json:"name"`
	Authoritative int64               `json:"authoritative"`
	Edited        *int64              `json:"edited,omitempty"`
	State         inventory.EditState `json:"state"`
	Error         string              `json:"error,omitempty"`
}

// StockSessionResponse represents an edit session in API responses
type StockSessionResponse struct {
	ProductID uuid.UUID          `json:"product_id"`
	Dirty     bool               `json:"dirty"`
	Rows      []StockRowResponse `json:"rows"`
}

// ToStockSessionResponse converts an edit session to StockSessionResponse
func ToStockSessionResponse(session *inventory.StockEditSession) StockSessionResponse {
	snapshot := session.Snapshot()
	resp := StockSessionResponse{
		ProductID: session.ProductID(),
		Dirty:     session.IsDirty(),
		Rows:      make([]StockRowResponse, 0, len(snapshot)),
	}
	for _, v := range snapshot {
		row := StockRowResponse{
			VariantID:     v.ID,
			SKU:           v.SKU,
			Name:          v.Name,
			Authoritative: v.StockQuantity,
			State:         session.State(v.ID),
		}
		if q, ok := session.Edited(v.ID); ok {
			edited := q
			row.Edited = &edited
		}
		if err := session.Failure(v.ID); err != nil {
			row.Error = err.Error()
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp
}

func toDeltaResponses(deltas []inventory.StockDelta, results []inventory.DeltaResult) []StockDeltaResponse {
	byVariant := make(map[uuid.UUID]inventory.DeltaResult, len(results))
	for _, r := range results {
		byVariant[r.VariantID] = r
	}

	responses := make([]StockDeltaResponse, len(deltas))
	for i, d := range deltas {
		resp := StockDeltaResponse{
			VariantID: d.VariantID,
			Change:    d.Change,
			Reason:    d.Reason,
			Baseline:  d.Baseline,
		}
		if r, ok := byVariant[d.VariantID]; ok {
			resp.Applied = r.Applied
			if r.Applied {
				resp.QuantityAfter = r.QuantityAfter
			}
			if r.Err != nil {
				resp.Error = r.Err.Error()
			}
		}
		responses[i] = resp
	}
	return responses
}
