package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAttributeCatalog implements catalog.AttributeCatalog using GORM
type GormAttributeCatalog struct {
	db *gorm.DB
}

// NewGormAttributeCatalog creates a new GormAttributeCatalog
func NewGormAttributeCatalog(db *gorm.DB) *GormAttributeCatalog {
	return &GormAttributeCatalog{db: db}
}

// ListAttributes returns the tenant's attributes by name, each with its
// options in display order
func (c *GormAttributeCatalog) ListAttributes(ctx context.Context, tenantID uuid.UUID) ([]catalog.Attribute, error) {
	var rows []models.AttributeModel
	if err := c.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	attributes := make([]catalog.Attribute, len(rows))
	for i := range rows {
		attributes[i] = rows[i].ToDomain()
	}
	return attributes, nil
}

// SaveAttribute creates the attribute or replaces the option list of the
// tenant's existing attribute with the same name
func (c *GormAttributeCatalog) SaveAttribute(ctx context.Context, tenantID uuid.UUID, attribute catalog.Attribute) error {
	if err := attribute.Validate(); err != nil {
		return err
	}

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		var row models.AttributeModel
		err := tx.Scopes(tenantScope(tenantID)).
			Where("name = ?", attribute.Name).
			First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = models.AttributeModel{TenantID: tenantID, Name: attribute.Name}
			row.ID = uuid.New()
			row.CreatedAt = now
			row.UpdatedAt = now
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create attribute %q: %w", attribute.Name, err)
			}
		case err != nil:
			return err
		default:
			if err := tx.Where("attribute_id = ?", row.ID).
				Delete(&models.AttributeOptionModel{}).Error; err != nil {
				return fmt.Errorf("clear options of attribute %q: %w", attribute.Name, err)
			}
			if err := tx.Model(&row).Update("updated_at", now).Error; err != nil {
				return err
			}
		}

		if len(attribute.Options) == 0 {
			return nil
		}
		options := make([]models.AttributeOptionModel, len(attribute.Options))
		for i, opt := range attribute.Options {
			options[i] = models.AttributeOptionModel{
				AttributeID: row.ID,
				Value:       opt.Value,
				Position:    i,
			}
			options[i].ID = uuid.New()
			options[i].CreatedAt = now
			options[i].UpdatedAt = now
		}
		if err := tx.Create(&options).Error; err != nil {
			return fmt.Errorf("save options of attribute %q: %w", attribute.Name, err)
		}
		return nil
	})
}
