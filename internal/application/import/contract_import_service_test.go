package importapp

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/econtract/backend/internal/domain/contract"
	"github.com/econtract/backend/internal/domain/importqueue"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// In-memory fakes back the processing tests: items settle concurrently and
// the assertions need the stored state, which call-recording mocks cannot
// model well.

type memBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*importqueue.ImportBatch
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{batches: make(map[uuid.UUID]*importqueue.ImportBatch)}
}

func (r *memBatchRepo) Save(_ context.Context, b *importqueue.ImportBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[b.ID] = b
	return nil
}

func (r *memBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*importqueue.ImportBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, shared.NewDomainErrorf(shared.CodeNotFound, "Import batch not found: %s", id)
	}
	return b, nil
}

func (r *memBatchRepo) FindAll(_ context.Context, filter shared.Filter) (*shared.Paginated[*importqueue.ImportBatch], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*importqueue.ImportBatch, 0, len(r.batches))
	for _, b := range r.batches {
		out = append(out, b)
	}
	page := shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize)
	return &page, nil
}

type memItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*importqueue.QueueItem
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[uuid.UUID]*importqueue.QueueItem)}
}

func (r *memItemRepo) Save(_ context.Context, item *importqueue.QueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *memItemRepo) FindByID(_ context.Context, id uuid.UUID) (*importqueue.QueueItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, shared.NewDomainErrorf(shared.CodeNotFound, "Queue item not found: %s", id)
	}
	return item, nil
}

func (r *memItemRepo) FindByBatch(_ context.Context, batchID uuid.UUID) ([]*importqueue.QueueItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*importqueue.QueueItem
	for _, item := range r.items {
		if item.BatchID != nil && *item.BatchID == batchID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *memItemRepo) FindByStatus(_ context.Context, status importqueue.ItemStatus, filter shared.Filter) (*shared.Paginated[*importqueue.QueueItem], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*importqueue.QueueItem
	for _, item := range r.items {
		if item.Status == status {
			out = append(out, item)
		}
	}
	page := shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *memItemRepo) CountByStatus(_ context.Context) (map[importqueue.ItemStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[importqueue.ItemStatus]int64)
	for _, item := range r.items {
		counts[item.Status]++
	}
	return counts, nil
}

func (r *memItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

type memContractRepo struct {
	mu        sync.Mutex
	contracts map[uuid.UUID]*contract.Contract
}

func newMemContractRepo() *memContractRepo {
	return &memContractRepo{contracts: make(map[uuid.UUID]*contract.Contract)}
}

func (r *memContractRepo) Save(_ context.Context, c *contract.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[c.ID] = c
	return nil
}

func (r *memContractRepo) FindByID(_ context.Context, id uuid.UUID) (*contract.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[id]
	if !ok {
		return nil, shared.NewDomainErrorf(shared.CodeNotFound, "Contract not found: %s", id)
	}
	return c, nil
}

func (r *memContractRepo) FindByContractNumber(_ context.Context, _ string) (*contract.Contract, error) {
	return nil, shared.ErrNotFound
}

func (r *memContractRepo) FindAll(_ context.Context, _ shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	return nil, nil
}

func (r *memContractRepo) FindByStatus(_ context.Context, _ contract.Status, _ shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	return nil, nil
}

func (r *memContractRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contracts, id)
	return nil
}

type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (s *memStorage) Put(_ context.Context, key, _ string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = data
	return nil
}

func (s *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[key]
	if !ok {
		return nil, shared.NewDomainErrorf(shared.CodeNotFound, "Stored file not found: %s", key)
	}
	return data, nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

// passthroughText returns the raw bytes as text
type passthroughText struct{}

func (passthroughText) ExtractText(_ context.Context, data []byte, _ string) (string, error) {
	return string(data), nil
}

// keywordExtractor fails for texts containing "fail", otherwise returns the
// text as a single field
type keywordExtractor struct{}

func (keywordExtractor) Extract(_ context.Context, rawText string) (map[string]any, error) {
	if strings.Contains(rawText, "fail") {
		return nil, shared.NewDomainError(shared.CodeExternalService, "extraction call failed")
	}
	return map[string]any{"text": rawText}, nil
}

func newTestService(t *testing.T) (*ContractImportService, *memBatchRepo, *memItemRepo, *memContractRepo) {
	t.Helper()
	batchRepo := newMemBatchRepo()
	itemRepo := newMemItemRepo()
	contractRepo := newMemContractRepo()
	svc := NewContractImportService(batchRepo, itemRepo, contractRepo, newMemStorage(),
		passthroughText{}, keywordExtractor{}, 4, zap.NewNop())
	return svc, batchRepo, itemRepo, contractRepo
}

func uploadFiles(names ...string) []UploadFile {
	files := make([]UploadFile, len(names))
	for i, n := range names {
		files[i] = UploadFile{FileName: n + ".txt", MimeType: "text/plain", Content: []byte(n)}
	}
	return files
}

func TestUploadBatch(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	batch, items, err := svc.UploadBatch(context.Background(), "march", uploadFiles("a", "b"), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 2, batch.TotalFiles)
	assert.Equal(t, importqueue.BatchStatusPending, batch.Status)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, importqueue.ItemStatusPending, item.Status)
		assert.Equal(t, batch.ID, *item.BatchID)
	}
}

func TestProcessBatch(t *testing.T) {
	t.Run("failures are absorbed and the batch still completes", func(t *testing.T) {
		svc, _, itemRepo, _ := newTestService(t)

		batch, _, err := svc.UploadBatch(context.Background(), "mixed",
			uploadFiles("ok-1", "ok-2", "ok-3", "fail-1", "fail-2"), uuid.New())
		require.NoError(t, err)

		done, err := svc.ProcessBatch(context.Background(), batch.ID)
		require.NoError(t, err)

		assert.Equal(t, 5, done.TotalFiles)
		assert.Equal(t, 5, done.ProcessedFiles)
		assert.Equal(t, 3, done.SuccessfulFiles)
		assert.Equal(t, 2, done.FailedFiles)
		assert.Equal(t, importqueue.BatchStatusCompleted, done.Status)

		items, err := itemRepo.FindByBatch(context.Background(), batch.ID)
		require.NoError(t, err)
		for _, item := range items {
			if strings.HasPrefix(item.FileName, "fail") {
				assert.Equal(t, importqueue.ItemStatusError, item.Status)
				assert.NotEmpty(t, item.ErrorMessage)
			} else {
				assert.Equal(t, importqueue.ItemStatusExtracted, item.Status)
				assert.NotNil(t, item.ExtractedData)
			}
		}
	})

	t.Run("all failures still complete the batch", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		batch, _, err := svc.UploadBatch(context.Background(), "broken",
			uploadFiles("fail-1", "fail-2"), uuid.New())
		require.NoError(t, err)

		done, err := svc.ProcessBatch(context.Background(), batch.ID)
		require.NoError(t, err)
		assert.Equal(t, importqueue.BatchStatusCompleted, done.Status)
		assert.Equal(t, 2, done.ProcessedFiles)
		assert.Equal(t, 2, done.FailedFiles)
	})

	t.Run("processing is idempotent for settled items", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		batch, _, err := svc.UploadBatch(context.Background(), "twice", uploadFiles("ok"), uuid.New())
		require.NoError(t, err)

		_, err = svc.ProcessBatch(context.Background(), batch.ID)
		require.NoError(t, err)
		done, err := svc.ProcessBatch(context.Background(), batch.ID)
		require.NoError(t, err)

		assert.Equal(t, 1, done.ProcessedFiles)
		assert.Equal(t, 1, done.SuccessfulFiles)
	})
}

func TestReprocessItem(t *testing.T) {
	svc, _, itemRepo, _ := newTestService(t)

	batch, items, err := svc.UploadBatch(context.Background(), "retry", uploadFiles("fail-1"), uuid.New())
	require.NoError(t, err)
	_, err = svc.ProcessBatch(context.Background(), batch.ID)
	require.NoError(t, err)

	item, err := itemRepo.FindByID(context.Background(), items[0].ID)
	require.NoError(t, err)
	require.Equal(t, importqueue.ItemStatusError, item.Status)

	// fix the stored document, then explicitly reprocess
	require.NoError(t, svc.storage.Put(context.Background(), item.StoragePath, "text/plain", []byte("ok now")))
	reprocessed, err := svc.ReprocessItem(context.Background(), item.ID)
	require.NoError(t, err)

	assert.Equal(t, importqueue.ItemStatusExtracted, reprocessed.Status)
	assert.Empty(t, reprocessed.ErrorMessage)

	done, err := svc.GetBatch(context.Background(), batch.ID)
	require.NoError(t, err)
	assert.Equal(t, importqueue.BatchStatusCompleted, done.Status)
	assert.Equal(t, 1, done.SuccessfulFiles)
	assert.Equal(t, 0, done.FailedFiles)

	t.Run("only errored items can be reprocessed", func(t *testing.T) {
		_, err := svc.ReprocessItem(context.Background(), item.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestReviewAndContractCreation(t *testing.T) {
	svc, _, _, contractRepo := newTestService(t)

	batch, items, err := svc.UploadBatch(context.Background(), "review", uploadFiles("ok"), uuid.New())
	require.NoError(t, err)
	_, err = svc.ProcessBatch(context.Background(), batch.ID)
	require.NoError(t, err)

	itemID := items[0].ID

	t.Run("cannot create contract before approval", func(t *testing.T) {
		_, err := svc.CreateContractFromItem(context.Background(), itemID, CreateContractRequest{
			ContractNumber: "C-2025-0099",
			Title:          "Imported",
			PartnerName:    "Acme GmbH",
			OwnerUserID:    uuid.New(),
			CreatedBy:      uuid.New(),
		})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("reviewer corrections land in the extracted data", func(t *testing.T) {
		updated, err := svc.UpdateItemData(context.Background(), itemID, map[string]any{"partner": "Acme SE"})
		require.NoError(t, err)
		assert.Equal(t, "Acme SE", updated.ExtractedData["partner"])
	})

	t.Run("approved item completes with contract link", func(t *testing.T) {
		reviewer := uuid.New()
		approved, err := svc.ApproveItem(context.Background(), itemID, reviewer)
		require.NoError(t, err)
		require.NotNil(t, approved.ReviewedBy)
		assert.Equal(t, reviewer, *approved.ReviewedBy)
		assert.NotNil(t, approved.ReviewedAt)

		c, err := svc.CreateContractFromItem(context.Background(), itemID, CreateContractRequest{
			ContractNumber: "C-2025-0099",
			Title:          "Imported",
			ContractType:   "SERVICE",
			PartnerName:    "Acme GmbH",
			OwnerUserID:    uuid.New(),
			CreatedBy:      uuid.New(),
		})
		require.NoError(t, err)
		assert.Equal(t, contract.StatusDraft, c.Status)

		stored, err := contractRepo.FindByID(context.Background(), c.ID)
		require.NoError(t, err)
		assert.Equal(t, "C-2025-0099", stored.ContractNumber)

		item, err := svc.GetItem(context.Background(), itemID)
		require.NoError(t, err)
		assert.Equal(t, importqueue.ItemStatusCompleted, item.Status)
		assert.Equal(t, c.ID, *item.ContractID)
	})

	t.Run("rejected item stays without contract", func(t *testing.T) {
		svc2, _, _, _ := newTestService(t)
		b2, items2, err := svc2.UploadBatch(context.Background(), "rejected", uploadFiles("ok"), uuid.New())
		require.NoError(t, err)
		_, err = svc2.ProcessBatch(context.Background(), b2.ID)
		require.NoError(t, err)

		reviewer := uuid.New()
		rejected, err := svc2.RejectItem(context.Background(), items2[0].ID, reviewer)
		require.NoError(t, err)
		require.NotNil(t, rejected.ReviewedBy)
		assert.Equal(t, reviewer, *rejected.ReviewedBy)

		_, err = svc2.ApproveItem(context.Background(), items2[0].ID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		_, err = svc2.UpdateItemData(context.Background(), items2[0].ID, map[string]any{"partner": "Other"})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestWorkQueueAndStatistics(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	batch, items, err := svc.UploadBatch(context.Background(), "stats",
		uploadFiles("ok-1", "ok-2", "fail-1"), uuid.New())
	require.NoError(t, err)
	_, err = svc.ProcessBatch(context.Background(), batch.ID)
	require.NoError(t, err)

	t.Run("work queue lists items awaiting review", func(t *testing.T) {
		page, err := svc.ListWorkQueue(context.Background(), shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
		for _, item := range page.Items {
			assert.Equal(t, importqueue.ItemStatusExtracted, item.Status)
		}
	})

	t.Run("statistics count items per status", func(t *testing.T) {
		for _, item := range items {
			if !strings.HasPrefix(item.FileName, "fail") {
				_, err := svc.ApproveItem(context.Background(), item.ID, uuid.New())
				require.NoError(t, err)
				break
			}
		}

		stats, err := svc.Statistics(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.Extracted)
		assert.Equal(t, int64(1), stats.Approved)
		assert.Equal(t, int64(1), stats.Errored)
		assert.Equal(t, int64(3), stats.Total)
	})

	t.Run("import history lists the batch", func(t *testing.T) {
		page, err := svc.ListBatches(context.Background(), shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, batch.ID, page.Items[0].ID)
	})
}
