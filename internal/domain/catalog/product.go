package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Product is a storefront product and the aggregate root for its variants.
// A simple product has exactly one implicit default variant so every
// stock-adjustable entity has a variant identity.
type Product struct {
	shared.TenantEntity
	Name     string
	SKU      string
	Price    valueobject.Money
	Variants []Variant
}

// NewProduct creates a new simple product with its default variant
func NewProduct(tenantID uuid.UUID, name, sku string, price valueobject.Money) (*Product, error) {
	if err := validateProductSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}

	p := &Product{
		TenantEntity: shared.NewTenantEntity(tenantID),
		Name:         name,
		SKU:          sku,
		Price:        price,
	}
	p.Variants = []Variant{p.DefaultVariant()}
	return p, nil
}

// Base returns the identity used to derive the variant matrix
func (p *Product) Base() BaseProduct {
	return BaseProduct{Name: p.Name, SKU: p.SKU, Price: p.Price}
}

// HasVariantMatrix reports whether the product's variants come from attribute combinations
func (p *Product) HasVariantMatrix() bool {
	for _, v := range p.Variants {
		if v.IsGenerated() {
			return true
		}
	}
	return false
}

// DefaultVariant synthesizes the implicit variant of a simple product.
// The ID is left unset; the product repository assigns it when persisting.
func (p *Product) DefaultVariant() Variant {
	return Variant{
		SKU:        p.SKU,
		Name:       p.Name,
		Price:      p.Price,
		Attributes: map[string]string{},
		IsActive:   true,
		IsDefault:  true,
	}
}

// StockVariants returns the variants whose stock can be adjusted. For a
// simple product loaded without variant rows this is its default variant.
func (p *Product) StockVariants() []Variant {
	if len(p.Variants) == 0 {
		return []Variant{p.DefaultVariant()}
	}
	return CloneVariants(p.Variants)
}

// ReplaceVariants swaps in a new full variant list after validating its
// invariants. An empty list turns the product back into a simple product,
// keeping the existing default variant (and its stock) when there is one.
func (p *Product) ReplaceVariants(variants []Variant) error {
	if len(variants) == 0 {
		for _, v := range p.Variants {
			if v.IsDefault {
				p.Variants = []Variant{v.Clone()}
				p.touch()
				return nil
			}
		}
		p.Variants = []Variant{p.DefaultVariant()}
		p.touch()
		return nil
	}

	if err := ValidateVariants(variants); err != nil {
		return err
	}
	p.Variants = CloneVariants(variants)
	p.touch()
	return nil
}

// FindVariant returns the variant with the given ID
func (p *Product) FindVariant(id uuid.UUID) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v.Clone(), true
		}
	}
	return Variant{}, false
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// validateProductSKU validates the base SKU
func validateProductSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "Product SKU cannot exceed 50 characters")
	}
	// SKU should be alphanumeric with underscores and hyphens
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_SKU", "Product SKU can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
