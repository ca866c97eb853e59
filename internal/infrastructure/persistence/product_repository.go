package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByIDForTenant finds a product with its variants, in saved order, within a tenant
func (r *GormProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates the product row and writes its variant list.
// Variants without an ID get one assigned, and the product is updated in place.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(models.ProductModelFromDomain(product)).Error; err != nil {
			return fmt.Errorf("save product %s: %w", product.ID, err)
		}
		return writeVariants(tx, product)
	})
}

// ReplaceVariants persists product.Variants as the complete variant list.
// The product row is guarded by its version: the stored version must be the
// one the product was loaded with (product.Version-1).
func (r *GormProductRepository) ReplaceVariants(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProductModel{}).
			Scopes(tenantScope(product.TenantID)).
			Where("id = ? AND version = ?", product.ID, product.Version-1).
			Updates(map[string]any{
				"version":    product.Version,
				"updated_at": product.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return writeVariants(tx, product)
	})
}

// writeVariants makes the product's variant rows match product.Variants:
// rows missing from the list are deleted, listed rows are updated, and new
// rows are inserted with fresh IDs. Stock of existing rows is never written
// here; the stock ledger owns that column.
func writeVariants(tx *gorm.DB, product *catalog.Product) error {
	var existingIDs []uuid.UUID
	if err := tx.Model(&models.ProductVariantModel{}).
		Where("product_id = ?", product.ID).
		Pluck("id", &existingIDs).Error; err != nil {
		return err
	}
	existing := make(map[uuid.UUID]bool, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = true
	}

	keep := make([]uuid.UUID, 0, len(product.Variants))
	for _, v := range product.Variants {
		if v.HasID() && existing[v.ID] {
			keep = append(keep, v.ID)
		}
	}
	removed := tx.Where("product_id = ?", product.ID)
	if len(keep) > 0 {
		removed = removed.Where("id NOT IN ?", keep)
	}
	if err := removed.Delete(&models.ProductVariantModel{}).Error; err != nil {
		return fmt.Errorf("delete removed variants of product %s: %w", product.ID, err)
	}

	now := time.Now()
	for i := range product.Variants {
		v := &product.Variants[i]
		row := models.ProductVariantModelFromDomain(product, *v, i)

		if v.HasID() && existing[v.ID] {
			if err := tx.Model(&models.ProductVariantModel{}).
				Where("id = ? AND product_id = ?", v.ID, product.ID).
				Updates(map[string]any{
					"sku":        row.SKU,
					"name":       row.Name,
					"price":      row.Price,
					"sale_price": row.SalePrice,
					"currency":   row.Currency,
					"attributes": row.AttributesJSON,
					"image_url":  row.ImageURL,
					"image_alt":  row.ImageAlt,
					"is_active":  row.IsActive,
					"is_default": row.IsDefault,
					"position":   row.Position,
					"updated_at": now,
				}).Error; err != nil {
				return fmt.Errorf("update variant %s: %w", v.SKU, err)
			}
			continue
		}

		if !v.HasID() {
			v.ID = uuid.New()
		}
		row.ID = v.ID
		row.CreatedAt = now
		row.UpdatedAt = now
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("insert variant %s: %w", v.SKU, err)
		}
	}
	return nil
}
