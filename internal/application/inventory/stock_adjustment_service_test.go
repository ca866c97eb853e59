package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/application/validation"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) ReplaceVariants(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

// MockStockLedger is a mock implementation of StockLedger
type MockStockLedger struct {
	mock.Mock
}

func (m *MockStockLedger) Apply(ctx context.Context, batch inventory.StockBatch) (*inventory.ApplyResult, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(context.Context, inventory.StockBatch) *inventory.ApplyResult); ok {
		return fn(ctx, batch), args.Error(1)
	}
	return args.Get(0).(*inventory.ApplyResult), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

var testTenantID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

// newTestProduct returns a product with two persisted variants stocked 5 and 10
func newTestProduct(t *testing.T) (*catalog.Product, uuid.UUID, uuid.UUID) {
	t.Helper()
	product, err := catalog.NewProduct(testTenantID, "Tee", "TEE", valueobject.MustMoneyFromString("20"))
	require.NoError(t, err)

	variants, err := catalog.NewVariantMatrixBuilder().Generate(product.Base(), []catalog.Attribute{
		catalog.MustAttribute("Size", "S", "M"),
	}, nil)
	require.NoError(t, err)
	variants[0].ID, variants[0].StockQuantity = uuid.New(), 5
	variants[1].ID, variants[1].StockQuantity = uuid.New(), 10
	require.NoError(t, product.ReplaceVariants(variants))
	return product, variants[0].ID, variants[1].ID
}

// appliedResult confirms every delta of a batch
func appliedResult(batch inventory.StockBatch) *inventory.ApplyResult {
	result := &inventory.ApplyResult{BatchID: batch.ID}
	for _, d := range batch.Deltas {
		result.Results = append(result.Results, inventory.DeltaResult{VariantID: d.VariantID, Applied: true, QuantityAfter: d.Target()})
	}
	return result
}

type adjustmentFixture struct {
	repo    *MockProductRepository
	ledger  *MockStockLedger
	store   *MockIdempotencyStore
	service *StockAdjustmentService
	session *inventory.StockEditSession
	metrics *sdkmetric.ManualReader
	v1, v2  uuid.UUID
}

func newAdjustmentFixture(t *testing.T, config StockAdjustmentConfig) *adjustmentFixture {
	t.Helper()
	f := &adjustmentFixture{
		repo:    new(MockProductRepository),
		ledger:  new(MockStockLedger),
		store:   new(MockIdempotencyStore),
		metrics: sdkmetric.NewManualReader(),
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(f.metrics))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)

	f.service = NewStockAdjustmentService(f.repo, f.ledger, zap.NewNop(),
		WithIdempotencyStore(f.store),
		WithStockAdjustmentConfig(config),
		WithBusinessMetrics(bm),
	)

	product, v1, v2 := newTestProduct(t)
	f.v1, f.v2 = v1, v2
	f.repo.On("FindByIDForTenant", mock.Anything, testTenantID, product.ID).Return(product, nil)

	session, err := f.service.OpenSession(context.Background(), testTenantID, product.ID)
	require.NoError(t, err)
	f.session = session
	return f
}

// batchCount sums a counter's data points recorded with the given outcome
func (f *adjustmentFixture) batchCount(t *testing.T, name string, outcome telemetry.BatchOutcome) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.metrics.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(telemetry.AttrOutcome); ok && v.AsString() == string(outcome) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestStockAdjustmentService_OpenSession(t *testing.T) {
	t.Run("loads variant stock", func(t *testing.T) {
		f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())
		q, ok := f.session.Authoritative(f.v2)
		assert.True(t, ok)
		assert.Equal(t, int64(10), q)
	})

	t.Run("simple product exposes its default variant", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewStockAdjustmentService(repo, new(MockStockLedger), zap.NewNop())
		product, err := catalog.NewProduct(testTenantID, "Mug", "MUG", valueobject.MustMoneyFromString("8"))
		require.NoError(t, err)
		product.Variants[0].ID = uuid.New()
		product.Variants[0].StockQuantity = 3
		repo.On("FindByIDForTenant", mock.Anything, testTenantID, product.ID).Return(product, nil)

		session, err := service.OpenSession(context.Background(), testTenantID, product.ID)

		require.NoError(t, err)
		resp := ToStockSessionResponse(session)
		require.Len(t, resp.Rows, 1)
		assert.Equal(t, "MUG", resp.Rows[0].SKU)
		assert.Equal(t, int64(3), resp.Rows[0].Authoritative)
	})

	t.Run("product not found", func(t *testing.T) {
		repo := new(MockProductRepository)
		service := NewStockAdjustmentService(repo, new(MockStockLedger), zap.NewNop())
		id := uuid.New()
		repo.On("FindByIDForTenant", mock.Anything, testTenantID, id).Return(nil, shared.ErrNotFound)

		_, err := service.OpenSession(context.Background(), testTenantID, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestStockAdjustmentService_Commit_Success(t *testing.T) {
	f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())
	require.NoError(t, f.session.Edit(f.v1, 5))
	require.NoError(t, f.session.Edit(f.v2, 12))

	f.store.On("MarkProcessed", mock.Anything, "stock-batch:"+testTenantID.String()+":save-0001", 24*time.Hour).Return(true, nil)
	f.ledger.On("Apply", mock.Anything, mock.MatchedBy(func(b inventory.StockBatch) bool {
		return len(b.Deltas) == 1 && b.Deltas[0] == inventory.StockDelta{VariantID: f.v2, Change: 2, Reason: "recount", Baseline: 10}
	})).Return(func(_ context.Context, b inventory.StockBatch) *inventory.ApplyResult {
		return appliedResult(b)
	}, nil)

	resp, err := f.service.Commit(context.Background(), testTenantID, f.session, CommitStockRequest{Reason: "recount", IdempotencyKey: "save-0001"})

	require.NoError(t, err)
	require.NotNil(t, resp.BatchID)
	assert.False(t, resp.Empty)
	require.Len(t, resp.Deltas, 1)
	assert.True(t, resp.Deltas[0].Applied)
	assert.Equal(t, int64(12), resp.Deltas[0].QuantityAfter)

	assert.False(t, f.session.IsDirty())
	assert.Equal(t, inventory.EditStateApplied, f.session.State(f.v2))
	q, _ := f.session.Authoritative(f.v2)
	assert.Equal(t, int64(12), q)
	f.ledger.AssertExpectations(t)
	f.store.AssertExpectations(t)

	assert.Equal(t, int64(1), f.batchCount(t, "storefront_stock_batch_total", telemetry.BatchOutcomeApplied))
	assert.Equal(t, int64(1), f.batchCount(t, "storefront_stock_delta_total", telemetry.BatchOutcomeApplied))
	assert.Zero(t, f.batchCount(t, "storefront_stock_batch_total", telemetry.BatchOutcomeRejected))
}

func TestStockAdjustmentService_Commit_EmptyBatch(t *testing.T) {
	t.Run("succeeds as a no-op by default", func(t *testing.T) {
		f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())
		require.NoError(t, f.session.Edit(f.v1, 5))

		resp, err := f.service.Commit(context.Background(), testTenantID, f.session, CommitStockRequest{Reason: "noop"})

		require.NoError(t, err)
		assert.True(t, resp.Empty)
		assert.Nil(t, resp.BatchID)
		f.ledger.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	})

	t.Run("rejected when configured", func(t *testing.T) {
		config := DefaultStockAdjustmentConfig()
		config.RejectEmptyBatch = true
		f := newAdjustmentFixture(t, config)

		_, err := f.service.Commit(context.Background(), testTenantID, f.session, CommitStockRequest{})

		assert.ErrorIs(t, err, ErrNothingToSave)
		assert.False(t, f.session.IsSubmitting())
	})
}

func TestStockAdjustmentService_Commit_CancelledBeforeSubmit(t *testing.T) {
	f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())
	require.NoError(t, f.session.Edit(f.v1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.service.Commit(ctx, testTenantID, f.session, CommitStockRequest{Reason: "r"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, inventory.EditStateDirty, f.session.State(f.v1))
	f.ledger.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestStockAdjustmentService_Commit_Rejected(t *testing.T) {
	f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())
	require.NoError(t, f.session.Edit(f.v1, 0))
	require.NoError(t, f.session.Edit(f.v2, 11))

	key := "stock-batch:" + testTenantID.String() + ":save-0002"
	f.store.On("MarkProcessed", mock.Anything, key, 24*time.Hour).Return(true, nil)
	f.store.On("Forget", mock.Anything, key).Return(nil)
	f.ledger.On("Apply", mock.Anything, mock.AnythingOfType("inventory.StockBatch")).Return(func(_ context.Context, b inventory.StockBatch) *inventory.ApplyResult {
		return &inventory.ApplyResult{BatchID: b.ID, Results: []inventory.DeltaResult{
			{VariantID: f.v1, Err: shared.ErrConcurrencyConflict},
			{VariantID: f.v2},
		}}
	}, nil)

	_, err := f.service.Commit(context.Background(), testTenantID, f.session, CommitStockRequest{Reason: "r", IdempotencyKey: "save-0002"})

	var rejected *BatchRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Len(t, rejected.Failed, 2)
	assert.ErrorIs(t, err, ErrBatchRejected)

	assert.True(t, f.session.IsDirty())
	assert.Equal(t, inventory.EditStateFailed, f.session.State(f.v1))
	assert.ErrorIs(t, f.session.Failure(f.v1), shared.ErrConcurrencyConflict)
	edited, _ := f.session.Edited(f.v2)
	assert.Equal(t, int64(11), edited)
	f.store.AssertExpectations(t)

	assert.Equal(t, int64(1), f.batchCount(t, "storefront_stock_batch_total", telemetry.BatchOutcomeRejected))
	assert.Equal(t, int64(2), f.batchCount(t, "storefront_stock_delta_total", telemetry.BatchOutcomeRejected))
	assert.Zero(t, f.batchCount(t, "storefront_stock_batch_total", telemetry.BatchOutcomeApplied))
}

func TestStockAdjustmentService_Commit_LedgerError(t *testing.T) {
	f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())
	require.NoError(t, f.session.Edit(f.v1, 7))

	key := "stock-batch:" + testTenantID.String() + ":save-0009"
	boom := errors.New("connection reset")
	f.store.On("MarkProcessed", mock.Anything, key, 24*time.Hour).Return(true, nil)
	f.store.On("Forget", mock.Anything, key).Return(nil).Once()
	f.ledger.On("Apply", mock.Anything, mock.AnythingOfType("inventory.StockBatch")).Return(nil, boom).Once()

	_, err := f.service.Commit(context.Background(), testTenantID, f.session, CommitStockRequest{Reason: "r", IdempotencyKey: "save-0009"})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, inventory.EditStateFailed, f.session.State(f.v1))
	assert.True(t, f.session.IsDirty())
	assert.False(t, f.session.IsSubmitting())
	f.store.AssertCalled(t, "Forget", mock.Anything, key)
	assert.Equal(t, int64(1), f.batchCount(t, "storefront_stock_batch_total", telemetry.BatchOutcomeFailed))

	t.Run("retry with the same key reaches the ledger", func(t *testing.T) {
		f.ledger.On("Apply", mock.Anything, mock.AnythingOfType("inventory.StockBatch")).Return(func(_ context.Context, b inventory.StockBatch) *inventory.ApplyResult {
			return appliedResult(b)
		}, nil).Once()

		resp, err := f.service.Commit(context.Background(), testTenantID, f.session, CommitStockRequest{Reason: "r", IdempotencyKey: "save-0009"})

		require.NoError(t, err)
		require.NotNil(t, resp.BatchID)
		assert.Equal(t, inventory.EditStateApplied, f.session.State(f.v1))
		f.store.AssertNumberOfCalls(t, "MarkProcessed", 2)
		f.store.AssertNumberOfCalls(t, "Forget", 1)
		assert.Equal(t, int64(1), f.batchCount(t, "storefront_stock_batch_total", telemetry.BatchOutcomeApplied))
	})
}

func TestStockAdjustmentService_Commit_LedgerErrorAfterCancel(t *testing.T) {
	f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())
	require.NoError(t, f.session.Edit(f.v1, 7))

	ctx, cancel := context.WithCancel(context.Background())
	key := "stock-batch:" + testTenantID.String() + ":save-0010"
	f.store.On("MarkProcessed", mock.Anything, key, 24*time.Hour).Return(true, nil)
	f.store.On("Forget", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), key).Return(nil)
	f.ledger.On("Apply", mock.Anything, mock.AnythingOfType("inventory.StockBatch")).Run(func(mock.Arguments) {
		cancel()
	}).Return(nil, context.Canceled)

	_, err := f.service.Commit(ctx, testTenantID, f.session, CommitStockRequest{Reason: "r", IdempotencyKey: "save-0010"})

	assert.ErrorIs(t, err, context.Canceled)
	f.store.AssertExpectations(t)
}

func TestStockAdjustmentService_Commit_Replay(t *testing.T) {
	f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())
	require.NoError(t, f.session.Edit(f.v1, 7))

	f.store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	_, err := f.service.Commit(context.Background(), testTenantID, f.session, CommitStockRequest{Reason: "r", IdempotencyKey: "save-0003"})

	assert.ErrorIs(t, err, ErrBatchAlreadySubmitted)
	assert.Equal(t, inventory.EditStateDirty, f.session.State(f.v1))
	f.ledger.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestStockAdjustmentService_Commit_IdempotencyStoreDown(t *testing.T) {
	f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())
	require.NoError(t, f.session.Edit(f.v1, 7))

	f.store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	f.ledger.On("Apply", mock.Anything, mock.AnythingOfType("inventory.StockBatch")).Return(func(_ context.Context, b inventory.StockBatch) *inventory.ApplyResult {
		return appliedResult(b)
	}, nil)

	_, err := f.service.Commit(context.Background(), testTenantID, f.session, CommitStockRequest{Reason: "r", IdempotencyKey: "save-0004"})

	require.NoError(t, err)
	assert.Equal(t, inventory.EditStateApplied, f.session.State(f.v1))
}

func TestStockAdjustmentService_Commit_Validation(t *testing.T) {
	t.Run("reason over the length cap", func(t *testing.T) {
		f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())
		require.NoError(t, f.session.Edit(f.v1, 7))

		_, err := f.service.Commit(context.Background(), testTenantID, f.session, CommitStockRequest{Reason: strings.Repeat("x", 501)})

		assert.ErrorIs(t, err, validation.ErrValidationFailed)
		assert.False(t, f.session.IsSubmitting())
	})

	t.Run("short idempotency key", func(t *testing.T) {
		f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())

		_, err := f.service.Commit(context.Background(), testTenantID, f.session, CommitStockRequest{IdempotencyKey: "abc"})

		assert.ErrorIs(t, err, validation.ErrValidationFailed)
	})
}

func TestStockAdjustmentService_PreviewDeltas(t *testing.T) {
	f := newAdjustmentFixture(t, DefaultStockAdjustmentConfig())
	require.NoError(t, f.session.Edit(f.v2, 4))

	deltas, err := f.service.PreviewDeltas(f.session, "damaged")

	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, int64(-6), deltas[0].Change)
	assert.False(t, deltas[0].Applied)
	assert.False(t, f.session.IsSubmitting())
}
