package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// logger for model conversion errors (silent failures are logged for debugging)
var modelLogger = zap.L().Named("catalog.models")

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	TenantAggregateModel
	SKU      string                `gorm:"column:sku;type:varchar(50);not null;index"`
	Name     string                `gorm:"type:varchar(200);not null"`
	Price    decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Currency string                `gorm:"type:varchar(3);not null"`
	Variants []ProductVariantModel `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
// Variants keep the order of the loaded rows.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		TenantEntity: m.ToDomainTenantEntity(),
		Name:         m.Name,
		SKU:          m.SKU,
		Price:        toMoney(m.Price, m.Currency),
		Variants:     make([]catalog.Variant, len(m.Variants)),
	}
	for i := range m.Variants {
		p.Variants[i] = m.Variants[i].ToDomain()
	}
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
// Variants are mapped separately by the repository.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainTenantEntity(p.TenantEntity)
	m.SKU = p.SKU
	m.Name = p.Name
	m.Price = p.Price.Amount()
	m.Currency = string(p.Price.Currency())
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ProductVariantModel is the persistence model for a product variant.
// Position keeps the variant order of the last saved list.
type ProductVariantModel struct {
	TenantModel
	ProductID      uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_variant_product_sku,priority:1"`
	SKU            string           `gorm:"column:sku;type:varchar(100);not null;uniqueIndex:idx_variant_product_sku,priority:2"`
	Name           string           `gorm:"type:varchar(200);not null"`
	Price          decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	SalePrice      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Currency       string           `gorm:"type:varchar(3);not null"`
	StockQuantity  int64            `gorm:"not null;default:0;check:chk_variant_stock_non_negative,stock_quantity >= 0"`
	AttributesJSON string           `gorm:"column:attributes;type:jsonb;not null;default:'{}'"`
	ImageURL       string           `gorm:"type:varchar(500)"`
	ImageAlt       string           `gorm:"type:varchar(200)"`
	IsActive       bool             `gorm:"not null;default:true"`
	IsDefault      bool             `gorm:"not null;default:false"`
	Position       int              `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain Variant
func (m *ProductVariantModel) ToDomain() catalog.Variant {
	v := catalog.Variant{
		ID:            m.ID,
		SKU:           m.SKU,
		Name:          m.Name,
		Price:         toMoney(m.Price, m.Currency),
		StockQuantity: m.StockQuantity,
		Attributes:    map[string]string{},
		IsActive:      m.IsActive,
		IsDefault:     m.IsDefault,
	}
	if m.SalePrice != nil {
		sale := toMoney(*m.SalePrice, m.Currency)
		v.SalePrice = &sale
	}
	if m.ImageURL != "" {
		v.Image = &catalog.ImageRef{URL: m.ImageURL, Alt: m.ImageAlt}
	}
	if m.AttributesJSON != "" {
		if err := json.Unmarshal([]byte(m.AttributesJSON), &v.Attributes); err != nil {
			modelLogger.Warn("Failed to unmarshal variant attributes",
				zap.String("variant_id", m.ID.String()),
				zap.Error(err))
			v.Attributes = map[string]string{}
		}
	}
	return v
}

// ProductVariantModelFromDomain maps a domain Variant to a row of the given
// product at the given list position
func ProductVariantModelFromDomain(p *catalog.Product, v catalog.Variant, position int) *ProductVariantModel {
	m := &ProductVariantModel{
		ProductID:      p.ID,
		SKU:            v.SKU,
		Name:           v.Name,
		Price:          v.Price.Amount(),
		Currency:       string(v.Price.Currency()),
		StockQuantity:  v.StockQuantity,
		AttributesJSON: "{}",
		IsActive:       v.IsActive,
		IsDefault:      v.IsDefault,
		Position:       position,
	}
	m.ID = v.ID
	m.TenantID = p.TenantID
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
	if v.SalePrice != nil {
		sale := v.SalePrice.Amount()
		m.SalePrice = &sale
	}
	if v.Image != nil {
		m.ImageURL = v.Image.URL
		m.ImageAlt = v.Image.Alt
	}
	if len(v.Attributes) > 0 {
		if data, err := json.Marshal(v.Attributes); err == nil {
			m.AttributesJSON = string(data)
		}
	}
	return m
}

// AttributeModel is the persistence model for a tenant's attribute definition
type AttributeModel struct {
	BaseModel
	TenantID uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:idx_attribute_tenant_name,priority:1"`
	Name     string                 `gorm:"type:varchar(100);not null;uniqueIndex:idx_attribute_tenant_name,priority:2"`
	Options  []AttributeOptionModel `gorm:"foreignKey:AttributeID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (AttributeModel) TableName() string {
	return "attributes"
}

// ToDomain converts the persistence model to a domain Attribute.
// Options keep the order of the loaded rows.
func (m *AttributeModel) ToDomain() catalog.Attribute {
	attr := catalog.Attribute{
		Name:    m.Name,
		Options: make([]catalog.AttributeOption, len(m.Options)),
	}
	for i, opt := range m.Options {
		attr.Options[i] = catalog.AttributeOption{Value: opt.Value}
	}
	return attr
}

// AttributeOptionModel is one option value of an attribute, in display order
type AttributeOptionModel struct {
	BaseModel
	AttributeID uuid.UUID `gorm:"type:uuid;not null;index"`
	Value       string    `gorm:"type:varchar(100);not null"`
	Position    int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (AttributeOptionModel) TableName() string {
	return "attribute_options"
}

// toMoney rebuilds Money from stored columns; an empty currency falls back
// to the default currency
func toMoney(amount decimal.Decimal, currency string) valueobject.Money {
	m, err := valueobject.NewMoney(amount, valueobject.Currency(currency))
	if err != nil {
		return valueobject.NewMoneyDefault(amount)
	}
	return m
}
