package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/validation"
	"github.com/storefront/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo catalog.ProductRepository
	validate    *validation.Validator
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		validate:    validation.New(),
		logger:      logger,
	}
}

// Create creates a new simple product with its implicit default variant
func (s *ProductService) Create(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductVariantsResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	price, err := toMoney(req.Price, req.Currency)
	if err != nil {
		return nil, err
	}
	product, err := catalog.NewProduct(tenantID, req.Name, req.SKU, price)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		s.logger.Error("Failed to save product", zap.String("sku", req.SKU), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU))

	resp := ToProductVariantsResponse(product)
	return &resp, nil
}

// GetByID retrieves a product with its variants
func (s *ProductService) GetByID(ctx context.Context, tenantID, productID uuid.UUID) (*ProductVariantsResponse, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	resp := ToProductVariantsResponse(product)
	return &resp, nil
}
