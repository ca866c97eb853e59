package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/validation"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// VariantService generates and maintains product variant matrices
type VariantService struct {
	productRepo catalog.ProductRepository
	attributes  catalog.AttributeCatalog
	builder     *catalog.VariantMatrixBuilder
	validate    *validation.Validator
	logger      *zap.Logger

	businessMetrics *telemetry.BusinessMetrics
}

// NewVariantService creates a new VariantService. A nil builder uses the
// default combination ceiling.
func NewVariantService(
	productRepo catalog.ProductRepository,
	attributes catalog.AttributeCatalog,
	builder *catalog.VariantMatrixBuilder,
	logger *zap.Logger,
) *VariantService {
	if builder == nil {
		builder = catalog.NewVariantMatrixBuilder()
	}
	return &VariantService{
		productRepo: productRepo,
		attributes:  attributes,
		builder:     builder,
		validate:    validation.New(),
		logger:      logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *VariantService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// PreviewVariants generates the variant matrix for the selected attributes
// and reports how it differs from the stored variants. Nothing is saved.
func (s *VariantService) PreviewVariants(ctx context.Context, tenantID, productID uuid.UUID, req GenerateVariantsRequest) (*VariantPreviewResponse, error) {
	product, generated, err := s.generate(ctx, tenantID, productID, req)
	if err != nil {
		return nil, err
	}

	diff := catalog.DiffVariants(product.Variants, generated)
	return &VariantPreviewResponse{
		ProductID: product.ID,
		Version:   product.Version,
		Variants:  ToVariantResponses(generated),
		Added:     ToVariantResponses(diff.Added),
		Removed:   ToVariantResponses(diff.Removed),
		Retained:  len(diff.Retained),
	}, nil
}

// RegenerateVariants generates the variant matrix and saves it as the
// product's full variant list. Combinations that survive keep their ID,
// stock and prices; dropped combinations are removed.
func (s *VariantService) RegenerateVariants(ctx context.Context, tenantID, productID uuid.UUID, req GenerateVariantsRequest) (*ProductVariantsResponse, error) {
	product, generated, err := s.generate(ctx, tenantID, productID, req)
	if err != nil {
		return nil, err
	}

	diff := catalog.DiffVariants(product.Variants, generated)
	if err := product.ReplaceVariants(generated); err != nil {
		return nil, err
	}
	if err := s.productRepo.ReplaceVariants(ctx, product); err != nil {
		s.logger.Error("Failed to replace variants",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Variants regenerated",
		zap.String("product_id", productID.String()),
		zap.Int("variant_count", len(generated)),
		zap.Int("added", len(diff.Added)),
		zap.Int("removed", len(diff.Removed)))
	s.businessMetrics.RecordVariantsRegenerated(ctx, tenantID, len(diff.Added), len(diff.Retained), len(diff.Removed))

	resp := ToProductVariantsResponse(product)
	return &resp, nil
}

// AddManualVariant appends an explicitly created variant to the product.
// Manual variants carry no attribute combination and are dropped by the
// next regeneration.
func (s *VariantService) AddManualVariant(ctx context.Context, tenantID, productID uuid.UUID, req AddManualVariantRequest) (*ProductVariantsResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	price, err := toMoney(req.Price, req.Currency)
	if err != nil {
		return nil, err
	}
	variant, err := catalog.NewManualVariant(req.SKU, req.Name, price)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if err := product.ReplaceVariants(append(product.StockVariants(), variant)); err != nil {
		return nil, err
	}
	if err := s.productRepo.ReplaceVariants(ctx, product); err != nil {
		s.logger.Error("Failed to add manual variant",
			zap.String("product_id", productID.String()),
			zap.String("sku", req.SKU),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Manual variant added",
		zap.String("product_id", productID.String()),
		zap.String("sku", variant.SKU))

	resp := ToProductVariantsResponse(product)
	return &resp, nil
}

// ListAttributes returns the attribute definitions offered for selection
func (s *VariantService) ListAttributes(ctx context.Context, tenantID uuid.UUID) ([]AttributeResponse, error) {
	attributes, err := s.attributes.ListAttributes(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	responses := make([]AttributeResponse, len(attributes))
	for i, a := range attributes {
		responses[i] = ToAttributeResponse(a)
	}
	return responses, nil
}

// DefineAttribute creates or replaces an attribute definition
func (s *VariantService) DefineAttribute(ctx context.Context, tenantID uuid.UUID, req DefineAttributeRequest) (*AttributeResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	attribute, err := catalog.NewAttribute(req.Name, req.Options...)
	if err != nil {
		return nil, err
	}
	if err := s.attributes.SaveAttribute(ctx, tenantID, attribute); err != nil {
		s.logger.Error("Failed to save attribute", zap.String("name", req.Name), zap.Error(err))
		return nil, err
	}
	resp := ToAttributeResponse(attribute)
	return &resp, nil
}

func (s *VariantService) generate(ctx context.Context, tenantID, productID uuid.UUID, req GenerateVariantsRequest) (*catalog.Product, []catalog.Variant, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, err
	}

	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, nil, err
	}
	if req.ExpectedVersion != nil && *req.ExpectedVersion != product.Version {
		return nil, nil, shared.ErrConcurrencyConflict
	}

	generated, err := s.builder.Generate(product.Base(), toAttributes(req.Attributes), product.Variants)
	if err != nil {
		return nil, nil, err
	}
	return product, generated, nil
}
