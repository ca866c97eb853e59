package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository is the product collaborator: it supplies a product with
// its variants and accepts a full variant list replacement on save
type ProductRepository interface {
	// FindByIDForTenant finds a product with its variants within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)

	// Save creates or updates the product row and its variants
	Save(ctx context.Context, product *Product) error

	// ReplaceVariants persists product.Variants as the complete variant list:
	// rows missing from the list are deleted, new rows get IDs assigned.
	// It fails with shared.ErrConcurrencyConflict when the stored product
	// version no longer matches.
	ReplaceVariants(ctx context.Context, product *Product) error
}

// AttributeCatalog supplies the attribute definitions offered for selection
type AttributeCatalog interface {
	// ListAttributes returns the tenant's attributes with options in display order
	ListAttributes(ctx context.Context, tenantID uuid.UUID) ([]Attribute, error)

	// SaveAttribute creates or replaces an attribute definition by name
	SaveAttribute(ctx context.Context, tenantID uuid.UUID, attribute Attribute) error
}
