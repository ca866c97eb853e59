package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
)

// StockLedgerEntryModel is the append-only audit row of one applied stock delta
type StockLedgerEntryModel struct {
	ID             uuid.UUID           `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	VariantID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	BatchID        uuid.UUID           `gorm:"type:uuid;not null;index"`
	Sequence       int                 `gorm:"not null;default:0"`
	Type           inventory.EntryType `gorm:"type:varchar(30);not null"`
	Change         int64               `gorm:"not null"`
	QuantityBefore int64               `gorm:"not null"`
	QuantityAfter  int64               `gorm:"not null"`
	Reason         string              `gorm:"type:text"`
	CreatedAt      time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockLedgerEntryModel) TableName() string {
	return "stock_ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *StockLedgerEntryModel) ToDomain() inventory.LedgerEntry {
	return inventory.LedgerEntry{
		ID:             m.ID,
		TenantID:       m.TenantID,
		ProductID:      m.ProductID,
		VariantID:      m.VariantID,
		BatchID:        m.BatchID,
		Sequence:       m.Sequence,
		Type:           m.Type,
		Change:         m.Change,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
	}
}

// StockLedgerEntryModelFromDomain creates a persistence model from a domain LedgerEntry
func StockLedgerEntryModelFromDomain(e inventory.LedgerEntry) *StockLedgerEntryModel {
	return &StockLedgerEntryModel{
		ID:             e.ID,
		TenantID:       e.TenantID,
		ProductID:      e.ProductID,
		VariantID:      e.VariantID,
		BatchID:        e.BatchID,
		Sequence:       e.Sequence,
		Type:           e.Type,
		Change:         e.Change,
		QuantityBefore: e.QuantityBefore,
		QuantityAfter:  e.QuantityAfter,
		Reason:         e.Reason,
		CreatedAt:      e.CreatedAt,
	}
}
