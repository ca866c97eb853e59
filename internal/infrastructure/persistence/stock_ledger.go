package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errBatchRejected rolls the ledger transaction back when any delta failed
var errBatchRejected = errors.New("stock batch rejected")

// GormStockLedger implements inventory.StockLedger on the product_variants
// stock column. Each delta is a compare-and-swap against the baseline it was
// computed from, so a concurrent change to the same variant rejects the
// whole batch instead of being overwritten.
type GormStockLedger struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStockLedger creates a new GormStockLedger
func NewGormStockLedger(db *gorm.DB, zapLogger *zap.Logger) *GormStockLedger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &GormStockLedger{db: db, logger: zapLogger}
}

// Apply applies the batch in one transaction. Rejected deltas are reported with
// their error and every other delta comes back unapplied; the returned error
// is reserved for infrastructure failures.
func (l *GormStockLedger) Apply(ctx context.Context, batch inventory.StockBatch) (*inventory.ApplyResult, error) {
	result := &inventory.ApplyResult{
		BatchID: batch.ID,
		Results: make([]inventory.DeltaResult, len(batch.Deltas)),
	}
	if len(batch.Deltas) == 0 {
		return result, nil
	}
	for i, d := range batch.Deltas {
		result.Results[i] = inventory.DeltaResult{VariantID: d.VariantID}
	}

	ctx = logger.WithBatchID(logger.WithProductID(ctx, batch.ProductID.String()), batch.ID.String())
	log := logger.WithLogger(ctx, l.logger)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return l.applyDeltas(tx, batch, result)
	})
	switch {
	case errors.Is(err, errBatchRejected):
		for i := range result.Results {
			result.Results[i].Applied = false
			result.Results[i].QuantityAfter = 0
		}
		log.Warn("Stock batch rolled back",
			zap.Int("delta_count", len(batch.Deltas)),
			zap.Int("failed_count", len(result.Failed())))
		return result, nil
	case err != nil:
		return nil, fmt.Errorf("apply stock batch %s: %w", batch.ID, err)
	}

	log.Info("Stock batch committed",
		zap.Int("delta_count", len(batch.Deltas)))
	return result, nil
}

func (l *GormStockLedger) applyDeltas(tx *gorm.DB, batch inventory.StockBatch, result *inventory.ApplyResult) error {
	now := time.Now()
	entries := make([]*models.StockLedgerEntryModel, 0, len(batch.Deltas))
	rejected := false

	for i, d := range batch.Deltas {
		res := &result.Results[i]
		target := d.Target()
		if target < 0 {
			res.Err = fmt.Errorf("variant %s would drop to %d: %w", d.VariantID, target, shared.ErrInsufficientStock)
			rejected = true
			continue
		}

		update := tx.Model(&models.ProductVariantModel{}).
			Scopes(tenantScope(batch.TenantID)).
			Where("id = ? AND product_id = ? AND stock_quantity = ?", d.VariantID, batch.ProductID, d.Baseline).
			Updates(map[string]any{
				"stock_quantity": target,
				"updated_at":     now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			res.Err = l.explainMiss(tx, batch, d)
			rejected = true
			continue
		}

		res.Applied = true
		res.QuantityAfter = target
		entry := inventory.NewLedgerEntry(batch, d, d.Baseline)
		entry.Sequence = i
		entry.CreatedAt = now
		entries = append(entries, models.StockLedgerEntryModelFromDomain(entry))
	}

	if rejected {
		return errBatchRejected
	}
	if err := tx.Create(&entries).Error; err != nil {
		return fmt.Errorf("write ledger entries: %w", err)
	}
	return nil
}

// explainMiss tells a vanished variant apart from one whose stock moved
func (l *GormStockLedger) explainMiss(tx *gorm.DB, batch inventory.StockBatch, d inventory.StockDelta) error {
	var row models.ProductVariantModel
	err := tx.Select("id", "stock_quantity").
		Scopes(tenantScope(batch.TenantID)).
		Where("id = ? AND product_id = ?", d.VariantID, batch.ProductID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &inventory.UnknownVariantError{VariantID: d.VariantID}
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("variant %s stock is %d, expected %d: %w",
		d.VariantID, row.StockQuantity, d.Baseline, shared.ErrConcurrencyConflict)
}

// EntriesForBatch returns the audit entries a committed batch wrote, in the
// order of the batch's deltas
func (l *GormStockLedger) EntriesForBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]inventory.LedgerEntry, error) {
	var rows []models.StockLedgerEntryModel
	if err := l.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("batch_id = ?", batchID).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLedgerEntries(rows), nil
}

// EntriesForVariant returns a variant's stock history, newest first
func (l *GormStockLedger) EntriesForVariant(ctx context.Context, tenantID, variantID uuid.UUID, limit int) ([]inventory.LedgerEntry, error) {
	query := l.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("variant_id = ?", variantID).
		Order("created_at DESC").
		Order("sequence DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.StockLedgerEntryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLedgerEntries(rows), nil
}

func toLedgerEntries(rows []models.StockLedgerEntryModel) []inventory.LedgerEntry {
	entries := make([]inventory.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries
}
