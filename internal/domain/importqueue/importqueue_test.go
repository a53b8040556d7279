package importqueue

import (
	"testing"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(t *testing.T) *QueueItem {
	t.Helper()
	batchID := uuid.New()
	item, err := NewQueueItem(&batchID, "contract.pdf", "imports/contract.pdf", "application/pdf", 2048, uuid.New())
	require.NoError(t, err)
	return item
}

func TestQueueItemLifecycle(t *testing.T) {
	t.Run("pending through completed", func(t *testing.T) {
		item := newTestItem(t)
		reviewer := uuid.New()

		require.NoError(t, item.StartProcessing())
		require.NoError(t, item.CompleteExtraction(map[string]any{"partner": "Acme GmbH"}))
		require.NoError(t, item.Approve(reviewer))
		require.NoError(t, item.CompleteWithContract(uuid.New()))

		assert.Equal(t, ItemStatusCompleted, item.Status)
		assert.NotNil(t, item.ContractID)
		assert.Equal(t, "Acme GmbH", item.ExtractedData["partner"])
		require.NotNil(t, item.ReviewedBy)
		assert.Equal(t, reviewer, *item.ReviewedBy)
		assert.NotNil(t, item.ReviewedAt)
	})

	t.Run("empty extraction result is valid", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.StartProcessing())
		require.NoError(t, item.CompleteExtraction(map[string]any{}))
		assert.Equal(t, ItemStatusExtracted, item.Status)
	})

	t.Run("cannot extract without processing", func(t *testing.T) {
		item := newTestItem(t)
		err := item.CompleteExtraction(nil)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		item := newTestItem(t)
		reviewer := uuid.New()
		require.NoError(t, item.StartProcessing())
		require.NoError(t, item.CompleteExtraction(nil))
		require.NoError(t, item.Reject(reviewer))

		require.NotNil(t, item.ReviewedBy)
		assert.Equal(t, reviewer, *item.ReviewedBy)
		assert.ErrorIs(t, item.Approve(uuid.New()), shared.ErrInvalidState)
	})

	t.Run("reviewer corrections only while awaiting review", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.StartProcessing())
		require.NoError(t, item.CompleteExtraction(map[string]any{"partner": "Acme GmbH"}))

		require.NoError(t, item.UpdateExtractedData(map[string]any{"partner": "Acme SE"}))
		assert.Equal(t, "Acme SE", item.ExtractedData["partner"])

		require.NoError(t, item.Approve(uuid.New()))
		err := item.UpdateExtractedData(map[string]any{"partner": "Other"})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, "Acme SE", item.ExtractedData["partner"])
	})

	t.Run("completion requires approval first", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.StartProcessing())
		require.NoError(t, item.CompleteExtraction(nil))

		err := item.CompleteWithContract(uuid.New())
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestQueueItemErrorHandling(t *testing.T) {
	t.Run("extraction failure records the message", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.StartProcessing())
		require.NoError(t, item.FailExtraction("extraction call timed out"))

		assert.Equal(t, ItemStatusError, item.Status)
		assert.Equal(t, "extraction call timed out", item.ErrorMessage)
	})

	t.Run("reprocess re-enters processing and clears the error", func(t *testing.T) {
		item := newTestItem(t)
		require.NoError(t, item.StartProcessing())
		require.NoError(t, item.FailExtraction("boom"))

		require.NoError(t, item.StartProcessing())
		assert.Equal(t, ItemStatusProcessing, item.Status)
		assert.Empty(t, item.ErrorMessage)

		require.NoError(t, item.CompleteExtraction(nil))
		assert.Equal(t, ItemStatusExtracted, item.Status)
	})

	t.Run("error requires processing state", func(t *testing.T) {
		item := newTestItem(t)
		assert.ErrorIs(t, item.FailExtraction("boom"), shared.ErrInvalidState)
	})
}

func TestBatchRecompute(t *testing.T) {
	newBatch := func(t *testing.T, total int) *ImportBatch {
		t.Helper()
		b, err := NewImportBatch("march imports", total, uuid.New())
		require.NoError(t, err)
		return b
	}

	t.Run("mixed outcome still completes", func(t *testing.T) {
		b := newBatch(t, 5)
		b.Recompute([]ItemStatus{
			ItemStatusExtracted, ItemStatusExtracted, ItemStatusExtracted,
			ItemStatusError, ItemStatusError,
		})

		assert.Equal(t, 5, b.ProcessedFiles)
		assert.Equal(t, 3, b.SuccessfulFiles)
		assert.Equal(t, 2, b.FailedFiles)
		assert.Equal(t, BatchStatusCompleted, b.Status)
	})

	t.Run("in flight items keep the batch processing", func(t *testing.T) {
		b := newBatch(t, 3)
		b.Recompute([]ItemStatus{ItemStatusExtracted, ItemStatusProcessing, ItemStatusPending})

		assert.Equal(t, 1, b.ProcessedFiles)
		assert.Equal(t, BatchStatusProcessing, b.Status)
	})

	t.Run("processed equals successful plus failed", func(t *testing.T) {
		b := newBatch(t, 4)
		b.Recompute([]ItemStatus{
			ItemStatusCompleted, ItemStatusRejected, ItemStatusError, ItemStatusApproved,
		})

		assert.Equal(t, b.ProcessedFiles, b.SuccessfulFiles+b.FailedFiles)
		assert.Equal(t, 3, b.SuccessfulFiles, "review outcomes count as successful extractions")
	})

	t.Run("all errored still completes", func(t *testing.T) {
		b := newBatch(t, 2)
		b.Recompute([]ItemStatus{ItemStatusError, ItemStatusError})

		assert.Equal(t, BatchStatusCompleted, b.Status)
		assert.Equal(t, 2, b.ProcessedFiles)
		assert.Equal(t, 2, b.FailedFiles)
		assert.Equal(t, 0, b.SuccessfulFiles)
	})

	t.Run("recompute is idempotent", func(t *testing.T) {
		b := newBatch(t, 2)
		statuses := []ItemStatus{ItemStatusExtracted, ItemStatusError}
		b.Recompute(statuses)
		b.Recompute(statuses)

		assert.Equal(t, 2, b.ProcessedFiles)
		assert.Equal(t, 1, b.SuccessfulFiles)
		assert.Equal(t, 1, b.FailedFiles)
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		_, err := NewImportBatch("empty", 0, uuid.New())
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}
