package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	tenantID := uuid.New()
	price := valueobject.MustMoneyFromString("25")

	t.Run("creates simple product with default variant", func(t *testing.T) {
		p, err := NewProduct(tenantID, "Mug", "MUG-01", price)
		require.NoError(t, err)

		assert.Equal(t, tenantID, p.TenantID)
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.Equal(t, 1, p.Version)
		require.Len(t, p.Variants, 1)
		assert.True(t, p.Variants[0].IsDefault)
		assert.Equal(t, "MUG-01", p.Variants[0].SKU)
		assert.False(t, p.HasVariantMatrix())
	})

	t.Run("keeps SKU case", func(t *testing.T) {
		p, err := NewProduct(tenantID, "Mug", "mug-01", price)
		require.NoError(t, err)
		assert.Equal(t, "mug-01", p.SKU)
	})

	t.Run("fails with invalid SKU characters", func(t *testing.T) {
		_, err := NewProduct(tenantID, "Mug", "MUG 01", price)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can only contain letters")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewProduct(tenantID, "", "MUG-01", price)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("fails with negative price", func(t *testing.T) {
		_, err := NewProduct(tenantID, "Mug", "MUG-01", valueobject.MustMoneyFromString("-1"))
		assert.Error(t, err)
	})
}

func TestProduct_ReplaceVariants(t *testing.T) {
	tenantID := uuid.New()

	newProduct := func(t *testing.T) *Product {
		p, err := NewProduct(tenantID, "Tee", "TEE", valueobject.MustMoneyFromString("15"))
		require.NoError(t, err)
		p.Variants[0].ID = uuid.New()
		p.Variants[0].StockQuantity = 12
		return p
	}

	t.Run("installs a generated matrix and bumps version", func(t *testing.T) {
		p := newProduct(t)
		variants, err := NewVariantMatrixBuilder().Generate(p.Base(), []Attribute{MustAttribute("Size", "S", "M")}, p.Variants)
		require.NoError(t, err)

		require.NoError(t, p.ReplaceVariants(variants))
		assert.Len(t, p.Variants, 2)
		assert.True(t, p.HasVariantMatrix())
		assert.Equal(t, 2, p.Version)
	})

	t.Run("empty list keeps the default variant and its stock", func(t *testing.T) {
		p := newProduct(t)
		defaultID := p.Variants[0].ID

		require.NoError(t, p.ReplaceVariants(nil))
		require.Len(t, p.Variants, 1)
		assert.Equal(t, defaultID, p.Variants[0].ID)
		assert.Equal(t, int64(12), p.Variants[0].StockQuantity)
	})

	t.Run("empty list after a matrix synthesizes a fresh default", func(t *testing.T) {
		p := newProduct(t)
		require.NoError(t, p.ReplaceVariants([]Variant{{SKU: "TEE-s", Attributes: map[string]string{"Size": "S"}}}))
		require.NoError(t, p.ReplaceVariants([]Variant{}))

		require.Len(t, p.Variants, 1)
		assert.True(t, p.Variants[0].IsDefault)
		assert.False(t, p.Variants[0].HasID())
	})

	t.Run("rejects invalid lists unchanged", func(t *testing.T) {
		p := newProduct(t)
		dup := []Variant{
			{SKU: "TEE-s", Attributes: map[string]string{"Size": "S"}},
			{SKU: "TEE-s2", Attributes: map[string]string{"Size": "S"}},
		}
		assert.ErrorIs(t, p.ReplaceVariants(dup), ErrDuplicateCombination)
		require.Len(t, p.Variants, 1)
		assert.Equal(t, 1, p.Version)
	})
}

func TestProduct_StockVariants(t *testing.T) {
	p := &Product{Name: "Mug", SKU: "MUG", Price: valueobject.MustMoneyFromString("3")}

	variants := p.StockVariants()
	require.Len(t, variants, 1)
	assert.True(t, variants[0].IsDefault)

	id := uuid.New()
	p.Variants = []Variant{{ID: id, SKU: "MUG", IsDefault: true, StockQuantity: 4}}
	got, ok := p.FindVariant(id)
	require.True(t, ok)
	assert.Equal(t, int64(4), got.StockQuantity)

	_, ok = p.FindVariant(uuid.New())
	assert.False(t, ok)
}
