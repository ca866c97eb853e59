package catalog

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ImageRef points at a stored product image
type ImageRef struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Variant is one purchasable SKU-level instance of a product, identified by
// its combination of attribute option values.
// ID is uuid.Nil until the product repository persists the variant.
type Variant struct {
	ID            uuid.UUID          `json:"id"`
	SKU           string             `json:"sku"`
	Name          string             `json:"name"`
	Price         valueobject.Money  `json:"price"`
	SalePrice     *valueobject.Money `json:"sale_price,omitempty"`
	StockQuantity int64              `json:"stock_quantity"`
	Attributes    map[string]string  `json:"attributes"`
	Image         *ImageRef          `json:"image,omitempty"`
	IsActive      bool               `json:"is_active"`
	// IsDefault marks the single implicit variant of a simple product
	IsDefault bool `json:"is_default"`
}

// NewManualVariant creates a variant from an explicit "add variant" action.
// Manual variants carry no attribute combination.
func NewManualVariant(sku, name string, price valueobject.Money) (Variant, error) {
	if err := validateVariantSKU(sku); err != nil {
		return Variant{}, err
	}
	if price.IsNegative() {
		return Variant{}, shared.NewDomainError("INVALID_PRICE", "Variant price cannot be negative")
	}
	return Variant{
		SKU:        sku,
		Name:       name,
		Price:      price,
		Attributes: map[string]string{},
		IsActive:   true,
	}, nil
}

// HasID reports whether the variant has a persisted identity
func (v Variant) HasID() bool {
	return v.ID != uuid.Nil
}

// IsGenerated reports whether the variant was produced from an attribute combination
func (v Variant) IsGenerated() bool {
	return len(v.Attributes) > 0
}

// CombinationKey returns an order-independent key for the variant's option
// combination. Variants with equal keys represent the same combination.
func (v Variant) CombinationKey() string {
	return combinationKey(v.Attributes)
}

// Clone returns a deep copy so callers can edit the result without touching
// the source snapshot
func (v Variant) Clone() Variant {
	c := v
	if v.Attributes != nil {
		c.Attributes = make(map[string]string, len(v.Attributes))
		for k, val := range v.Attributes {
			c.Attributes[k] = val
		}
	}
	if v.SalePrice != nil {
		sp := *v.SalePrice
		c.SalePrice = &sp
	}
	if v.Image != nil {
		img := *v.Image
		c.Image = &img
	}
	return c
}

// WithStockQuantity returns a copy with the given stock quantity
func (v Variant) WithStockQuantity(quantity int64) (Variant, error) {
	if quantity < 0 {
		return Variant{}, shared.NewDomainError("INVALID_QUANTITY", "Stock quantity cannot be negative")
	}
	c := v.Clone()
	c.StockQuantity = quantity
	return c, nil
}

// WithPrices returns a copy with new regular and sale prices. A nil sale price
// clears it.
func (v Variant) WithPrices(price valueobject.Money, salePrice *valueobject.Money) (Variant, error) {
	if price.IsNegative() {
		return Variant{}, shared.NewDomainError("INVALID_PRICE", "Variant price cannot be negative")
	}
	c := v.Clone()
	c.Price = price
	c.SalePrice = nil
	if salePrice != nil {
		if salePrice.IsNegative() {
			return Variant{}, shared.NewDomainError("INVALID_PRICE", "Sale price cannot be negative")
		}
		if salePrice.Currency() != price.Currency() {
			return Variant{}, shared.NewDomainError("INVALID_PRICE", "Sale price currency must match price currency")
		}
		sp := *salePrice
		c.SalePrice = &sp
	}
	return c, nil
}

// ValidateVariants checks the invariants of a product's full variant list:
// SKUs are unique, stock is non-negative, and no option combination appears
// twice. Manual variants (no attributes) are exempt from the combination check.
func ValidateVariants(variants []Variant) error {
	skus := make(map[string]struct{}, len(variants))
	combos := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if err := validateVariantSKU(v.SKU); err != nil {
			return err
		}
		if v.StockQuantity < 0 {
			return shared.NewDomainError("INVALID_QUANTITY", "Stock quantity cannot be negative")
		}
		if _, dup := skus[v.SKU]; dup {
			return &DuplicateSKUError{SKU: v.SKU}
		}
		skus[v.SKU] = struct{}{}

		if !v.IsGenerated() {
			continue
		}
		key := v.CombinationKey()
		if _, dup := combos[key]; dup {
			return &DuplicateCombinationError{Combination: v.Attributes}
		}
		combos[key] = struct{}{}
	}
	return nil
}

// CloneVariants deep-copies a variant list
func CloneVariants(variants []Variant) []Variant {
	out := make([]Variant, len(variants))
	for i, v := range variants {
		out[i] = v.Clone()
	}
	return out
}

func combinationKey(attributes map[string]string) string {
	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(0x1f)
		b.WriteString(attributes[name])
		b.WriteByte(0x1e)
	}
	return b.String()
}

func validateVariantSKU(sku string) error {
	if strings.TrimSpace(sku) == "" {
		return shared.NewDomainError("INVALID_SKU", "Variant SKU cannot be empty")
	}
	if len(sku) > 100 {
		return shared.NewDomainError("INVALID_SKU", "Variant SKU cannot exceed 100 characters")
	}
	return nil
}
