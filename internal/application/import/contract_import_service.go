package importapp

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/econtract/backend/internal/domain/contract"
	"github.com/econtract/backend/internal/domain/importqueue"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileStorage stores uploaded documents. Implementations back onto S3
// compatible object storage or the local filesystem.
type FileStorage interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// TextExtractor turns an uploaded document into plain text. Unknown mime
// types fail with an unsupported format error.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
}

// DataExtractor turns raw document text into a structured field map. A
// successful call may return an empty map; missing fields are not an error.
type DataExtractor interface {
	Extract(ctx context.Context, rawText string) (map[string]any, error)
}

// ContractImportService runs uploaded contract documents through text
// extraction and review, creating contracts from approved items. Batch
// processing is awaitable: ProcessBatch returns only after every item in
// the batch settled.
type ContractImportService struct {
	batchRepo    importqueue.BatchRepository
	itemRepo     importqueue.ItemRepository
	contractRepo contract.Repository
	storage      FileStorage
	textExt      TextExtractor
	dataExt      DataExtractor
	workers      int
	logger       *zap.Logger

	// serializes batch counter rollups while items settle in parallel
	rollupMu sync.Mutex
}

// NewContractImportService creates a new ContractImportService. workers
// bounds how many items of one batch are processed concurrently.
func NewContractImportService(
	batchRepo importqueue.BatchRepository,
	itemRepo importqueue.ItemRepository,
	contractRepo contract.Repository,
	storage FileStorage,
	textExt TextExtractor,
	dataExt DataExtractor,
	workers int,
	logger *zap.Logger,
) *ContractImportService {
	if workers <= 0 {
		workers = 4
	}
	return &ContractImportService{
		batchRepo:    batchRepo,
		itemRepo:     itemRepo,
		contractRepo: contractRepo,
		storage:      storage,
		textExt:      textExt,
		dataExt:      dataExt,
		workers:      workers,
		logger:       logger,
	}
}

// UploadFile is one document of an upload request
type UploadFile struct {
	FileName string
	MimeType string
	Content  []byte
}

// UploadBatch stores the uploaded files and creates a pending batch with one
// queue item per file
func (s *ContractImportService) UploadBatch(ctx context.Context, name string, files []UploadFile, uploadedBy uuid.UUID) (*importqueue.ImportBatch, []*importqueue.QueueItem, error) {
	batch, err := importqueue.NewImportBatch(name, len(files), uploadedBy)
	if err != nil {
		return nil, nil, err
	}
	if err := s.batchRepo.Save(ctx, batch); err != nil {
		return nil, nil, fmt.Errorf("failed to save import batch: %w", err)
	}

	items := make([]*importqueue.QueueItem, 0, len(files))
	for _, f := range files {
		batchID := batch.ID
		key := path.Join("imports", batch.ID.String(), uuid.NewString()+path.Ext(f.FileName))
		if err := s.storage.Put(ctx, key, f.MimeType, f.Content); err != nil {
			return nil, nil, fmt.Errorf("failed to store %s: %w", f.FileName, err)
		}

		item, err := importqueue.NewQueueItem(&batchID, f.FileName, key, f.MimeType, int64(len(f.Content)), uploadedBy)
		if err != nil {
			return nil, nil, err
		}
		if err := s.itemRepo.Save(ctx, item); err != nil {
			return nil, nil, fmt.Errorf("failed to save queue item: %w", err)
		}
		items = append(items, item)
	}

	s.logger.Info("import batch uploaded",
		zap.String("batch_id", batch.ID.String()),
		zap.Int("files", len(files)))
	return batch, items, nil
}

// ProcessBatch runs extraction for every pending item of the batch and
// returns once all of them settled. Items run in parallel; one item's
// failure is absorbed into its ERROR state and never aborts its siblings.
func (s *ContractImportService) ProcessBatch(ctx context.Context, batchID uuid.UUID) (*importqueue.ImportBatch, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.FindByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch items: %w", err)
	}

	if batch.Status == importqueue.BatchStatusPending {
		if err := batch.Start(); err != nil {
			return nil, err
		}
		if err := s.batchRepo.Save(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to save import batch: %w", err)
		}
	}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for _, item := range items {
		if item.Status != importqueue.ItemStatusPending {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(item *importqueue.QueueItem) {
			defer wg.Done()
			defer func() { <-sem }()
			s.processItem(ctx, item)
			if err := s.rollupBatch(ctx, batchID); err != nil {
				s.logger.Error("failed to roll up batch progress",
					zap.String("batch_id", batchID.String()), zap.Error(err))
			}
		}(item)
	}
	wg.Wait()

	return s.batchRepo.FindByID(ctx, batchID)
}

// processItem runs one item through extraction. Any failure on the way is
// captured as the item's ERROR state instead of propagating.
func (s *ContractImportService) processItem(ctx context.Context, item *importqueue.QueueItem) {
	if err := item.StartProcessing(); err != nil {
		s.logger.Error("cannot start processing queue item",
			zap.String("item_id", item.ID.String()), zap.Error(err))
		return
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		s.logger.Error("failed to save queue item",
			zap.String("item_id", item.ID.String()), zap.Error(err))
		return
	}

	data, err := s.extract(ctx, item)
	if err != nil {
		s.failItem(ctx, item, err)
		return
	}

	if err := item.CompleteExtraction(data); err != nil {
		s.failItem(ctx, item, err)
		return
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		s.logger.Error("failed to save extracted queue item",
			zap.String("item_id", item.ID.String()), zap.Error(err))
		return
	}

	s.logger.Info("queue item extracted",
		zap.String("item_id", item.ID.String()),
		zap.String("file", item.FileName),
		zap.Int("fields", len(data)))
}

func (s *ContractImportService) extract(ctx context.Context, item *importqueue.QueueItem) (map[string]any, error) {
	raw, err := s.storage.Get(ctx, item.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}
	text, err := s.textExt.ExtractText(ctx, raw, item.MimeType)
	if err != nil {
		return nil, err
	}
	return s.dataExt.Extract(ctx, text)
}

func (s *ContractImportService) failItem(ctx context.Context, item *importqueue.QueueItem, cause error) {
	s.logger.Warn("queue item extraction failed",
		zap.String("item_id", item.ID.String()),
		zap.String("file", item.FileName),
		zap.Error(cause))

	if err := item.FailExtraction(cause.Error()); err != nil {
		s.logger.Error("cannot mark queue item as errored",
			zap.String("item_id", item.ID.String()), zap.Error(err))
		return
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		s.logger.Error("failed to save errored queue item",
			zap.String("item_id", item.ID.String()), zap.Error(err))
	}
}

// rollupBatch recomputes the batch counters from the current item states.
// Rollups are serialized because sibling items settle concurrently.
func (s *ContractImportService) rollupBatch(ctx context.Context, batchID uuid.UUID) error {
	s.rollupMu.Lock()
	defer s.rollupMu.Unlock()

	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return err
	}
	items, err := s.itemRepo.FindByBatch(ctx, batchID)
	if err != nil {
		return err
	}

	statuses := make([]importqueue.ItemStatus, len(items))
	for i, it := range items {
		statuses[i] = it.Status
	}
	batch.Recompute(statuses)
	return s.batchRepo.Save(ctx, batch)
}

// ReprocessItem is the explicit operator action re-running extraction for an
// errored item
func (s *ContractImportService) ReprocessItem(ctx context.Context, itemID uuid.UUID) (*importqueue.QueueItem, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != importqueue.ItemStatusError {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidState,
			"Queue item %s is %s, only errored items can be reprocessed", item.ID, item.Status)
	}

	s.processItem(ctx, item)
	if item.BatchID != nil {
		if err := s.rollupBatch(ctx, *item.BatchID); err != nil {
			s.logger.Error("failed to roll up batch progress",
				zap.String("batch_id", item.BatchID.String()), zap.Error(err))
		}
	}
	return s.itemRepo.FindByID(ctx, itemID)
}

// ApproveItem accepts an item's extracted data for contract creation,
// recording the reviewer
func (s *ContractImportService) ApproveItem(ctx context.Context, itemID, reviewedBy uuid.UUID) (*importqueue.QueueItem, error) {
	return s.reviewItem(ctx, itemID, func(item *importqueue.QueueItem) error {
		return item.Approve(reviewedBy)
	})
}

// RejectItem discards an item's extracted data, recording the reviewer
func (s *ContractImportService) RejectItem(ctx context.Context, itemID, reviewedBy uuid.UUID) (*importqueue.QueueItem, error) {
	return s.reviewItem(ctx, itemID, func(item *importqueue.QueueItem) error {
		return item.Reject(reviewedBy)
	})
}

// UpdateItemData replaces an item's extracted data with reviewer corrections
func (s *ContractImportService) UpdateItemData(ctx context.Context, itemID uuid.UUID, data map[string]any) (*importqueue.QueueItem, error) {
	return s.reviewItem(ctx, itemID, func(item *importqueue.QueueItem) error {
		return item.UpdateExtractedData(data)
	})
}

func (s *ContractImportService) reviewItem(ctx context.Context, itemID uuid.UUID, fn func(*importqueue.QueueItem) error) (*importqueue.QueueItem, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := fn(item); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save queue item: %w", err)
	}
	return item, nil
}

// CreateContractRequest carries the reviewed contract fields for an approved
// queue item. Values default from the extracted data and may be corrected by
// the reviewer.
type CreateContractRequest struct {
	ContractNumber string
	Title          string
	ContractType   string
	PartnerName    string
	OwnerUserID    uuid.UUID
	CreatedBy      uuid.UUID
}

// CreateContractFromItem creates a draft contract out of an approved queue
// item and completes the item
func (s *ContractImportService) CreateContractFromItem(ctx context.Context, itemID uuid.UUID, req CreateContractRequest) (*contract.Contract, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != importqueue.ItemStatusApproved {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidState,
			"Queue item %s is %s, expected APPROVED", item.ID, item.Status)
	}

	c, err := contract.NewContract(req.ContractNumber, req.Title, req.ContractType,
		req.PartnerName, req.OwnerUserID, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	if err := s.contractRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	if err := item.CompleteWithContract(c.ID); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save queue item: %w", err)
	}

	s.logger.Info("contract created from import",
		zap.String("item_id", item.ID.String()),
		zap.String("contract_id", c.ID.String()))
	return c, nil
}

// GetBatch loads an import batch by ID
func (s *ContractImportService) GetBatch(ctx context.Context, id uuid.UUID) (*importqueue.ImportBatch, error) {
	return s.batchRepo.FindByID(ctx, id)
}

// ListBatchItems returns the queue items of a batch
func (s *ContractImportService) ListBatchItems(ctx context.Context, batchID uuid.UUID) ([]*importqueue.QueueItem, error) {
	return s.itemRepo.FindByBatch(ctx, batchID)
}

// GetItem loads a queue item by ID
func (s *ContractImportService) GetItem(ctx context.Context, id uuid.UUID) (*importqueue.QueueItem, error) {
	return s.itemRepo.FindByID(ctx, id)
}

// ListBatches returns the import history, newest batches first by default
func (s *ContractImportService) ListBatches(ctx context.Context, filter shared.Filter) (*shared.Paginated[*importqueue.ImportBatch], error) {
	return s.batchRepo.FindAll(ctx, filter)
}

// ListWorkQueue returns the items awaiting review
func (s *ContractImportService) ListWorkQueue(ctx context.Context, filter shared.Filter) (*shared.Paginated[*importqueue.QueueItem], error) {
	return s.itemRepo.FindByStatus(ctx, importqueue.ItemStatusExtracted, filter)
}

// ImportStatistics aggregates queue item counts per lifecycle status
type ImportStatistics struct {
	Pending    int64
	Processing int64
	Extracted  int64
	Approved   int64
	Rejected   int64
	Completed  int64
	Errored    int64
	Total      int64
}

// Statistics counts queue items per status across all batches
func (s *ContractImportService) Statistics(ctx context.Context) (*ImportStatistics, error) {
	counts, err := s.itemRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue items: %w", err)
	}

	stats := &ImportStatistics{
		Pending:    counts[importqueue.ItemStatusPending],
		Processing: counts[importqueue.ItemStatusProcessing],
		Extracted:  counts[importqueue.ItemStatusExtracted],
		Approved:   counts[importqueue.ItemStatusApproved],
		Rejected:   counts[importqueue.ItemStatusRejected],
		Completed:  counts[importqueue.ItemStatusCompleted],
		Errored:    counts[importqueue.ItemStatusError],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}
