package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestProduct(t *testing.T, repo *GormProductRepository, tenantID uuid.UUID) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(tenantID, "Tee", "TEE", valueobject.MustMoneyFromString("19.99"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), product))
	return product
}

// sizedVariants builds a Size S/M matrix with the given stock
func sizedVariants(small, medium int64) []catalog.Variant {
	price := valueobject.MustMoneyFromString("19.99")
	return []catalog.Variant{
		{SKU: "TEE-s", Name: "S", Price: price, StockQuantity: small, Attributes: map[string]string{"Size": "S"}, IsActive: true},
		{SKU: "TEE-m", Name: "M", Price: price, StockQuantity: medium, Attributes: map[string]string{"Size": "M"}, IsActive: true},
	}
}

func TestGormProductRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a simple product with its default variant", func(t *testing.T) {
		repo := NewGormProductRepository(newTestDatabase(t).DB)
		tenantID := uuid.New()
		product := createTestProduct(t, repo, tenantID)

		require.Len(t, product.Variants, 1)
		assert.True(t, product.Variants[0].HasID(), "default variant gets an ID on save")

		found, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		assert.Equal(t, "Tee", found.Name)
		assert.Equal(t, "TEE", found.SKU)
		assert.True(t, found.Price.Amount().Equal(product.Price.Amount()))
		assert.Equal(t, valueobject.USD, found.Price.Currency())
		assert.Equal(t, 1, found.Version)
		require.Len(t, found.Variants, 1)
		assert.Equal(t, product.Variants[0].ID, found.Variants[0].ID)
		assert.True(t, found.Variants[0].IsDefault)
		assert.Empty(t, found.Variants[0].Attributes)
	})

	t.Run("saving twice updates the product row", func(t *testing.T) {
		repo := NewGormProductRepository(newTestDatabase(t).DB)
		tenantID := uuid.New()
		product := createTestProduct(t, repo, tenantID)

		product.Name = "Classic Tee"
		require.NoError(t, repo.Save(ctx, product))

		found, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		assert.Equal(t, "Classic Tee", found.Name)
		assert.Len(t, found.Variants, 1)
	})
}

func TestGormProductRepository_FindByIDForTenant(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProductRepository(newTestDatabase(t).DB)
	tenantID := uuid.New()
	product := createTestProduct(t, repo, tenantID)

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("other tenant cannot see the product", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), product.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_ReplaceVariants(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the default variant with a matrix", func(t *testing.T) {
		repo := NewGormProductRepository(newTestDatabase(t).DB)
		tenantID := uuid.New()
		product := createTestProduct(t, repo, tenantID)
		defaultID := product.Variants[0].ID

		loaded, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.ReplaceVariants(sizedVariants(5, 10)))
		require.NoError(t, repo.ReplaceVariants(ctx, loaded))

		found, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.Version)
		require.Len(t, found.Variants, 2)
		assert.Equal(t, "TEE-s", found.Variants[0].SKU)
		assert.Equal(t, "TEE-m", found.Variants[1].SKU)
		assert.Equal(t, map[string]string{"Size": "S"}, found.Variants[0].Attributes)
		assert.Equal(t, int64(5), found.Variants[0].StockQuantity)
		assert.Equal(t, int64(10), found.Variants[1].StockQuantity)
		for i, v := range found.Variants {
			assert.True(t, v.HasID())
			assert.Equal(t, loaded.Variants[i].ID, v.ID, "assigned IDs are written back to the product")
			assert.NotEqual(t, defaultID, v.ID)
		}
		_, ok := found.FindVariant(defaultID)
		assert.False(t, ok, "removed variant row is deleted")
	})

	t.Run("retained variants keep their id and ledger-owned stock", func(t *testing.T) {
		db := newTestDatabase(t)
		repo := NewGormProductRepository(db.DB)
		tenantID := uuid.New()
		product := createTestProduct(t, repo, tenantID)

		loaded, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.ReplaceVariants(sizedVariants(5, 10)))
		require.NoError(t, repo.ReplaceVariants(ctx, loaded))

		stale, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		small := stale.Variants[0]

		// stock moves after the product was loaded
		require.NoError(t, db.DB.Model(&models.ProductVariantModel{}).
			Where("id = ?", small.ID).
			Update("stock_quantity", 7).Error)

		renamed := catalog.CloneVariants(stale.Variants)
		renamed[0].Name = "Small"
		require.NoError(t, stale.ReplaceVariants(renamed))
		require.NoError(t, repo.ReplaceVariants(ctx, stale))

		found, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		v, ok := found.FindVariant(small.ID)
		require.True(t, ok)
		assert.Equal(t, "Small", v.Name)
		assert.Equal(t, int64(7), v.StockQuantity)
	})

	t.Run("empty list keeps the default variant", func(t *testing.T) {
		repo := NewGormProductRepository(newTestDatabase(t).DB)
		tenantID := uuid.New()
		product := createTestProduct(t, repo, tenantID)
		defaultID := product.Variants[0].ID

		loaded, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.ReplaceVariants(nil))
		require.NoError(t, repo.ReplaceVariants(ctx, loaded))

		found, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		require.Len(t, found.Variants, 1)
		assert.Equal(t, defaultID, found.Variants[0].ID)
	})

	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		repo := NewGormProductRepository(newTestDatabase(t).DB)
		tenantID := uuid.New()
		product := createTestProduct(t, repo, tenantID)

		first, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		second, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)

		require.NoError(t, first.ReplaceVariants(sizedVariants(1, 1)))
		require.NoError(t, repo.ReplaceVariants(ctx, first))

		require.NoError(t, second.ReplaceVariants(sizedVariants(2, 2)))
		err = repo.ReplaceVariants(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		found, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), found.Variants[0].StockQuantity, "losing write changes nothing")
	})
}

func TestGormProductRepository_ReplaceVariants_SQL(t *testing.T) {
	t.Run("no row at the expected version rolls back", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db.DB)

		product, err := catalog.NewProduct(uuid.New(), "Tee", "TEE", valueobject.MustMoneyFromString("10"))
		require.NoError(t, err)
		require.NoError(t, product.ReplaceVariants(sizedVariants(0, 0)))

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "products" SET .* WHERE tenant_id = .* version = `).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.ReplaceVariants(context.Background(), product)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
