package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// TenantModel adds the owning tenant to BaseModel
type TenantModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TenantAggregateModel provides common persistence fields for tenant-scoped
// aggregate roots, with a version for optimistic locking
type TenantAggregateModel struct {
	TenantModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainTenantEntity populates TenantAggregateModel from domain TenantEntity
func (m *TenantAggregateModel) FromDomainTenantEntity(t shared.TenantEntity) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.TenantID = t.TenantID
	m.Version = t.Version
}

// ToDomainTenantEntity converts the aggregate fields to a domain TenantEntity
func (m *TenantAggregateModel) ToDomainTenantEntity() shared.TenantEntity {
	return shared.TenantEntity{
		BaseEntity: m.ToDomain(),
		TenantID:   m.TenantID,
		Version:    m.Version,
	}
}

// All returns every persistence model, in dependency order, for AutoMigrate
// in tests and local development
func All() []any {
	return []any{
		&ProductModel{},
		&ProductVariantModel{},
		&AttributeModel{},
		&AttributeOptionModel{},
		&StockLedgerEntryModel{},
	}
}
