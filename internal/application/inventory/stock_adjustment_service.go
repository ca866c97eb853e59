package inventory

import (
	"context"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/validation"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StockAdjustmentConfig holds the stock commit policy
type StockAdjustmentConfig struct {
	// RejectEmptyBatch makes a commit with no net change fail with ErrNothingToSave
	// instead of succeeding as a no-op
	RejectEmptyBatch bool
	// IdempotencyTTL is how long a commit key is remembered
	IdempotencyTTL time.Duration
	// ReasonMaxLength caps the adjustment reason, in characters. Zero disables the cap.
	ReasonMaxLength int
}

// DefaultStockAdjustmentConfig returns the default stock commit policy
func DefaultStockAdjustmentConfig() StockAdjustmentConfig {
	return StockAdjustmentConfig{
		RejectEmptyBatch: false,
		IdempotencyTTL:   24 * time.Hour,
		ReasonMaxLength:  500,
	}
}

// StockAdjustmentService opens stock edit sessions and commits their edits
// to the stock ledger
type StockAdjustmentService struct {
	productRepo catalog.ProductRepository
	ledger      inventory.StockLedger
	idempotency shared.IdempotencyStore
	config      StockAdjustmentConfig
	validate    *validation.Validator
	logger      *zap.Logger

	businessMetrics *telemetry.BusinessMetrics
}

// StockAdjustmentOption configures a StockAdjustmentService
type StockAdjustmentOption func(*StockAdjustmentService)

// WithIdempotencyStore enables replay detection for commits carrying an idempotency key
func WithIdempotencyStore(store shared.IdempotencyStore) StockAdjustmentOption {
	return func(s *StockAdjustmentService) {
		s.idempotency = store
	}
}

// WithBusinessMetrics counts committed batches by outcome
func WithBusinessMetrics(bm *telemetry.BusinessMetrics) StockAdjustmentOption {
	return func(s *StockAdjustmentService) {
		s.businessMetrics = bm
	}
}

// WithStockAdjustmentConfig sets the commit policy
func WithStockAdjustmentConfig(config StockAdjustmentConfig) StockAdjustmentOption {
	return func(s *StockAdjustmentService) {
		s.config = config
	}
}

// NewStockAdjustmentService creates a new StockAdjustmentService
func NewStockAdjustmentService(
	productRepo catalog.ProductRepository,
	ledger inventory.StockLedger,
	logger *zap.Logger,
	opts ...StockAdjustmentOption,
) *StockAdjustmentService {
	s := &StockAdjustmentService{
		productRepo: productRepo,
		ledger:      ledger,
		config:      DefaultStockAdjustmentConfig(),
		validate:    validation.New(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSession loads the product's authoritative stock into a new edit
// session. A simple product contributes its single implicit variant.
func (s *StockAdjustmentService) OpenSession(ctx context.Context, tenantID, productID uuid.UUID) (*inventory.StockEditSession, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return inventory.NewStockEditSession(product.ID, product.StockVariants()), nil
}

// PreviewDeltas returns the adjustments the session's pending edits would submit
func (s *StockAdjustmentService) PreviewDeltas(session *inventory.StockEditSession, reason string) ([]StockDeltaResponse, error) {
	deltas, err := session.Deltas(reason)
	if err != nil {
		return nil, err
	}
	return toDeltaResponses(deltas, nil), nil
}

// Commit submits the session's pending edits as one stock batch.
//
// Only variants whose edited quantity differs from the authoritative one are
// sent. Edits are cleared only for adjustments the ledger confirmed; on any
// failure every edit stays in the session. A context cancelled before the
// ledger is reached leaves the session Dirty.
func (s *StockAdjustmentService) Commit(ctx context.Context, tenantID uuid.UUID, session *inventory.StockEditSession, req CommitStockRequest) (*CommitStockResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	deltas, err := session.BeginSubmit(req.Reason)
	if err != nil {
		return nil, err
	}
	if inventory.IsEmptyBatch(deltas) {
		if s.config.RejectEmptyBatch {
			return nil, ErrNothingToSave
		}
		return &CommitStockResponse{ProductID: session.ProductID(), Empty: true, Deltas: []StockDeltaResponse{}}, nil
	}

	if err := ctx.Err(); err != nil {
		session.Abort()
		return nil, err
	}

	key, err := s.claimKey(ctx, tenantID, req.IdempotencyKey)
	if err != nil {
		session.Abort()
		return nil, err
	}

	batch := inventory.NewStockBatch(tenantID, session.ProductID(), deltas)
	result, err := s.ledger.Apply(ctx, batch)
	if err != nil {
		_ = session.Complete(failAll(deltas, err))
		s.releaseKey(ctx, key)
		s.businessMetrics.RecordStockBatch(ctx, tenantID, telemetry.BatchOutcomeFailed, len(deltas))
		s.logger.Error("Stock ledger apply failed",
			zap.String("product_id", batch.ProductID.String()),
			zap.String("batch_id", batch.ID.String()),
			zap.Int("delta_count", len(deltas)),
			zap.Error(err))
		return nil, err
	}

	if err := session.Complete(result.Results); err != nil {
		return nil, err
	}

	if !result.AllApplied() {
		s.releaseKey(ctx, key)
		s.businessMetrics.RecordStockBatch(ctx, tenantID, telemetry.BatchOutcomeRejected, len(deltas))
		failed := result.Failed()
		s.logger.Warn("Stock batch rejected",
			zap.String("product_id", batch.ProductID.String()),
			zap.String("batch_id", batch.ID.String()),
			zap.Int("delta_count", len(deltas)),
			zap.Int("failed_count", len(failed)))
		return nil, &BatchRejectedError{BatchID: batch.ID, Failed: failed}
	}

	s.businessMetrics.RecordStockBatch(ctx, tenantID, telemetry.BatchOutcomeApplied, len(deltas))
	s.logger.Info("Stock batch applied",
		zap.String("product_id", batch.ProductID.String()),
		zap.String("batch_id", batch.ID.String()),
		zap.String("batch_key", key),
		zap.Int("delta_count", len(deltas)))

	batchID := batch.ID
	return &CommitStockResponse{
		ProductID: batch.ProductID,
		BatchID:   &batchID,
		Deltas:    toDeltaResponses(deltas, result.Results),
	}, nil
}

func (s *StockAdjustmentService) validateRequest(req CommitStockRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return err
	}
	if limit := s.config.ReasonMaxLength; limit > 0 && utf8.RuneCountInString(req.Reason) > limit {
		return &validation.Error{Fields: []validation.FieldError{{
			Field:   "reason",
			Message: "Must be at most " + strconv.Itoa(limit) + " characters",
		}}}
	}
	return nil
}

// claimKey marks the commit key as processed. A store failure is logged and
// the commit proceeds; the ledger's baseline check still guards the stock.
func (s *StockAdjustmentService) claimKey(ctx context.Context, tenantID uuid.UUID, idempotencyKey string) (string, error) {
	if idempotencyKey == "" || s.idempotency == nil {
		return "", nil
	}
	key := "stock-batch:" + tenantID.String() + ":" + idempotencyKey

	isNew, err := s.idempotency.MarkProcessed(ctx, key, s.config.IdempotencyTTL)
	if err != nil {
		s.logger.Warn("failed to check idempotency, committing anyway",
			zap.String("batch_key", key),
			zap.Error(err))
		return "", nil
	}
	if !isNew {
		s.logger.Info("duplicate stock batch detected, skipping", zap.String("batch_key", key))
		return "", ErrBatchAlreadySubmitted
	}
	return key, nil
}

// releaseKey forgets a claimed key once the batch did not land, so the same
// save can be retried. It runs even when ctx is already cancelled.
func (s *StockAdjustmentService) releaseKey(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.idempotency.Forget(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("failed to release idempotency key", zap.String("batch_key", key), zap.Error(err))
	}
}

func failAll(deltas []inventory.StockDelta, err error) []inventory.DeltaResult {
	results := make([]inventory.DeltaResult, len(deltas))
	for i, d := range deltas {
		results[i] = inventory.DeltaResult{VariantID: d.VariantID, Err: err}
	}
	return results
}
