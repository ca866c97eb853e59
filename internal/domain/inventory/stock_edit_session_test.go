package inventory

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*StockEditSession, uuid.UUID, uuid.UUID) {
	t.Helper()
	v1, v2 := uuid.New(), uuid.New()
	s := NewStockEditSession(uuid.New(), []catalog.Variant{stockVariant(v1, 5), stockVariant(v2, 10)})
	return s, v1, v2
}

func TestStockEditSession_Edit(t *testing.T) {
	t.Run("clean to dirty and back", func(t *testing.T) {
		s, v1, _ := newTestSession(t)
		assert.Equal(t, EditStateClean, s.State(v1))

		require.NoError(t, s.Edit(v1, 8))
		assert.Equal(t, EditStateDirty, s.State(v1))
		assert.True(t, s.IsDirty())
		q, ok := s.Edited(v1)
		assert.True(t, ok)
		assert.Equal(t, int64(8), q)

		require.NoError(t, s.Edit(v1, 5))
		assert.Equal(t, EditStateClean, s.State(v1))
		assert.False(t, s.IsDirty())
	})

	t.Run("rejects unknown variant", func(t *testing.T) {
		s, _, _ := newTestSession(t)
		err := s.Edit(uuid.New(), 3)
		assert.ErrorIs(t, err, ErrUnknownVariant)
		assert.False(t, s.IsDirty())
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		s, v1, _ := newTestSession(t)
		err := s.Edit(v1, -2)
		assert.ErrorIs(t, err, ErrNegativeQuantity)
		assert.Equal(t, EditStateClean, s.State(v1))
	})

	t.Run("edits returns a copy", func(t *testing.T) {
		s, v1, _ := newTestSession(t)
		require.NoError(t, s.Edit(v1, 1))
		edits := s.Edits()
		edits[v1] = 100
		q, _ := s.Edited(v1)
		assert.Equal(t, int64(1), q)
	})
}

func TestStockEditSession_Submit(t *testing.T) {
	t.Run("applied submission advances authoritative stock", func(t *testing.T) {
		s, v1, v2 := newTestSession(t)
		require.NoError(t, s.Edit(v2, 12))

		deltas, err := s.BeginSubmit("recount")
		require.NoError(t, err)
		require.Equal(t, []StockDelta{{VariantID: v2, Change: 2, Reason: "recount", Baseline: 10}}, deltas)
		assert.Equal(t, EditStateSubmitting, s.State(v2))
		assert.Equal(t, EditStateClean, s.State(v1))
		assert.True(t, s.IsSubmitting())

		require.NoError(t, s.Complete([]DeltaResult{{VariantID: v2, Applied: true, QuantityAfter: 12}}))
		assert.Equal(t, EditStateApplied, s.State(v2))
		assert.False(t, s.IsDirty())

		q, _ := s.Authoritative(v2)
		assert.Equal(t, int64(12), q)
		assert.Equal(t, int64(12), s.Snapshot()[1].StockQuantity)

		deltas, err = s.Deltas("again")
		require.NoError(t, err)
		assert.Empty(t, deltas)
	})

	t.Run("rejected submission keeps edits", func(t *testing.T) {
		s, v1, v2 := newTestSession(t)
		require.NoError(t, s.Edit(v1, 0))
		require.NoError(t, s.Edit(v2, 20))
		_, err := s.BeginSubmit("r")
		require.NoError(t, err)

		conflict := errors.New("stock moved")
		require.NoError(t, s.Complete([]DeltaResult{
			{VariantID: v1, Err: conflict},
			{VariantID: v2},
		}))

		assert.Equal(t, EditStateFailed, s.State(v1))
		assert.Equal(t, EditStateFailed, s.State(v2))
		assert.Equal(t, conflict, s.Failure(v1))
		assert.ErrorIs(t, s.Failure(v2), ErrNotConfirmed)
		assert.True(t, s.IsDirty())

		q, _ := s.Authoritative(v1)
		assert.Equal(t, int64(5), q)
		edited, _ := s.Edited(v1)
		assert.Equal(t, int64(0), edited)
	})

	t.Run("editing a failed variant clears the failure", func(t *testing.T) {
		s, v1, _ := newTestSession(t)
		require.NoError(t, s.Edit(v1, 7))
		_, err := s.BeginSubmit("r")
		require.NoError(t, err)
		require.NoError(t, s.Complete(nil))
		assert.Equal(t, EditStateFailed, s.State(v1))

		require.NoError(t, s.Edit(v1, 6))
		assert.Equal(t, EditStateDirty, s.State(v1))
		assert.NoError(t, s.Failure(v1))
	})

	t.Run("edits are blocked while submitting", func(t *testing.T) {
		s, v1, v2 := newTestSession(t)
		require.NoError(t, s.Edit(v1, 7))
		_, err := s.BeginSubmit("r")
		require.NoError(t, err)

		assert.ErrorIs(t, s.Edit(v2, 1), ErrSubmitInProgress)
		_, err = s.BeginSubmit("r")
		assert.ErrorIs(t, err, ErrSubmitInProgress)
		assert.ErrorIs(t, s.Discard(), ErrSubmitInProgress)
	})

	t.Run("abort returns to dirty", func(t *testing.T) {
		s, v1, _ := newTestSession(t)
		require.NoError(t, s.Edit(v1, 7))
		_, err := s.BeginSubmit("r")
		require.NoError(t, err)

		s.Abort()
		assert.Equal(t, EditStateDirty, s.State(v1))
		assert.False(t, s.IsSubmitting())
		assert.NoError(t, s.Failure(v1))
	})

	t.Run("empty submission leaves session untouched", func(t *testing.T) {
		s, _, _ := newTestSession(t)
		deltas, err := s.BeginSubmit("r")
		require.NoError(t, err)
		assert.True(t, IsEmptyBatch(deltas))
		assert.False(t, s.IsSubmitting())
		assert.ErrorIs(t, s.Complete(nil), ErrNoSubmitInProgress)
	})

	t.Run("results for variants not submitted are ignored", func(t *testing.T) {
		s, v1, v2 := newTestSession(t)
		require.NoError(t, s.Edit(v1, 7))
		_, err := s.BeginSubmit("r")
		require.NoError(t, err)

		require.NoError(t, s.Complete([]DeltaResult{
			{VariantID: v1, Applied: true},
			{VariantID: v2, Applied: true},
		}))
		q, _ := s.Authoritative(v2)
		assert.Equal(t, int64(10), q)
		assert.Equal(t, EditStateClean, s.State(v2))
	})
}

func TestStockEditSession_Discard(t *testing.T) {
	s, v1, v2 := newTestSession(t)
	require.NoError(t, s.Edit(v1, 7))
	require.NoError(t, s.Edit(v2, 1))

	require.NoError(t, s.Discard())
	assert.False(t, s.IsDirty())
	assert.Equal(t, EditStateClean, s.State(v1))
}
