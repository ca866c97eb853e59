package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// CreateProductRequest represents a request to create a new simple product
type CreateProductRequest struct {
	Name     string          `json:"name" validate:"required,min=1,max=200"`
	SKU      string          `json:"sku" validate:"required,min=1,max=50"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency" validate:"omitempty,len=3"`
}

// AttributeSelection is one attribute picked for a variant matrix, with the
// chosen option values in display order. An attribute with no options is
// ignored by generation.
type AttributeSelection struct {
	Name    string   `json:"name" validate:"max=100"`
	Options []string `json:"options" validate:"max=100,dive,max=100"`
}

// GenerateVariantsRequest represents a request to preview or regenerate a
// product's variant matrix
type GenerateVariantsRequest struct {
	Attributes []AttributeSelection `json:"attributes" validate:"max=20,dive"`
	// ExpectedVersion, when set, must match the product's current version
	ExpectedVersion *int `json:"expected_version" validate:"omitempty,gte=1"`
}

// AddManualVariantRequest represents an explicit "add variant" action
type AddManualVariantRequest struct {
	SKU      string          `json:"sku" validate:"required,min=1,max=100"`
	Name     string          `json:"name" validate:"max=200"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency" validate:"omitempty,len=3"`
}

// DefineAttributeRequest represents a request to create or replace an
// attribute definition in the tenant's catalog
type DefineAttributeRequest struct {
	Name    string   `json:"name" validate:"required,min=1,max=100"`
	Options []string `json:"options" validate:"required,min=1,max=100,dive,max=100"`
}

// VariantResponse represents a variant in API responses
type VariantResponse struct {
	ID            *uuid.UUID        `json:"id,omitempty"`
	SKU           string            `json:"sku"`
	Name          string            `json:"name"`
	Price         decimal.Decimal   `json:"price"`
	SalePrice     *decimal.Decimal  `json:"sale_price,omitempty"`
	Currency      string            `json:"currency"`
	StockQuantity int64             `json:"stock_quantity"`
	Attributes    map[string]string `json:"attributes"`
	ImageURL      string            `json:"image_url,omitempty"`
	IsActive      bool              `json:"is_active"`
	IsDefault     bool              `json:"is_default"`
}

// ProductVariantsResponse represents a product with its persisted variants
type ProductVariantsResponse struct {
	ProductID uuid.UUID         `json:"product_id"`
	TenantID  uuid.UUID         `json:"tenant_id"`
	Name      string            `json:"name"`
	SKU       string            `json:"sku"`
	Price     decimal.Decimal   `json:"price"`
	Currency  string            `json:"currency"`
	Variants  []VariantResponse `json:"variants"`
	UpdatedAt time.Time         `json:"updated_at"`
	Version   int               `json:"version"`
}

// VariantPreviewResponse represents a generated matrix that was not saved,
// with the rows it would add or remove
type VariantPreviewResponse struct {
	ProductID uuid.UUID         `json:"product_id"`
	Version   int               `json:"version"`
	Variants  []VariantResponse `json:"variants"`
	Added     []VariantResponse `json:"added"`
	Removed   []VariantResponse `json:"removed"`
	Retained  int               `json:"retained"`
}

// AttributeResponse represents an attribute definition in API responses
type AttributeResponse struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// ToVariantResponse converts a domain Variant to VariantResponse
func ToVariantResponse(v catalog.Variant) VariantResponse {
	resp := VariantResponse{
		SKU:           v.SKU,
		Name:          v.Name,
		Price:         v.Price.Amount(),
		Currency:      string(v.Price.Currency()),
		StockQuantity: v.StockQuantity,
		Attributes:    make(map[string]string, len(v.Attributes)),
		IsActive:      v.IsActive,
		IsDefault:     v.IsDefault,
	}
	if v.HasID() {
		id := v.ID
		resp.ID = &id
	}
	if v.SalePrice != nil {
		sale := v.SalePrice.Amount()
		resp.SalePrice = &sale
	}
	for name, value := range v.Attributes {
		resp.Attributes[name] = value
	}
	if v.Image != nil {
		resp.ImageURL = v.Image.URL
	}
	return resp
}

// ToVariantResponses converts a slice of domain Variants
func ToVariantResponses(variants []catalog.Variant) []VariantResponse {
	responses := make([]VariantResponse, len(variants))
	for i, v := range variants {
		responses[i] = ToVariantResponse(v)
	}
	return responses
}

// ToProductVariantsResponse converts a domain Product to ProductVariantsResponse
func ToProductVariantsResponse(p *catalog.Product) ProductVariantsResponse {
	return ProductVariantsResponse{
		ProductID: p.ID,
		TenantID:  p.TenantID,
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price.Amount(),
		Currency:  string(p.Price.Currency()),
		Variants:  ToVariantResponses(p.StockVariants()),
		UpdatedAt: p.UpdatedAt,
		Version:   p.Version,
	}
}

// ToAttributeResponse converts a domain Attribute to AttributeResponse
func ToAttributeResponse(a catalog.Attribute) AttributeResponse {
	return AttributeResponse{Name: a.Name, Options: a.Values()}
}

// toAttributes converts request selections into domain attributes without
// validating them; the matrix builder reports the precise error
func toAttributes(selections []AttributeSelection) []catalog.Attribute {
	attributes := make([]catalog.Attribute, len(selections))
	for i, sel := range selections {
		options := make([]catalog.AttributeOption, len(sel.Options))
		for j, value := range sel.Options {
			options[j] = catalog.AttributeOption{Value: value}
		}
		attributes[i] = catalog.Attribute{Name: sel.Name, Options: options}
	}
	return attributes
}

// toMoney builds a Money from a request amount and optional currency code
func toMoney(amount decimal.Decimal, currency string) (valueobject.Money, error) {
	if currency == "" {
		return valueobject.NewMoneyDefault(amount), nil
	}
	return valueobject.NewMoney(amount, valueobject.Currency(currency))
}
