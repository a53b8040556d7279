package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/econtract/backend/internal/domain/importqueue"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/econtract/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormImportBatchRepository implements importqueue.BatchRepository using GORM
type GormImportBatchRepository struct {
	db *gorm.DB
}

// NewGormImportBatchRepository creates a new GormImportBatchRepository
func NewGormImportBatchRepository(db *gorm.DB) *GormImportBatchRepository {
	return &GormImportBatchRepository{db: db}
}

// Save creates or updates an import batch
func (r *GormImportBatchRepository) Save(ctx context.Context, batch *importqueue.ImportBatch) error {
	model := models.ImportBatchModelFromDomain(batch)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds an import batch by its ID
func (r *GormImportBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*importqueue.ImportBatch, error) {
	var model models.ImportBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all import batches matching the filter
func (r *GormImportBatchRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*importqueue.ImportBatch], error) {
	query := r.db.WithContext(ctx).Model(&models.ImportBatchModel{})
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ?", pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var batchModels []models.ImportBatchModel
	if err := applyPagination(query, filter, ImportBatchSortFields, "created_at").
		Find(&batchModels).Error; err != nil {
		return nil, err
	}

	batches := make([]*importqueue.ImportBatch, len(batchModels))
	for i := range batchModels {
		batches[i] = batchModels[i].ToDomain()
	}
	page := shared.NewPaginated(batches, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Ensure GormImportBatchRepository implements importqueue.BatchRepository
var _ importqueue.BatchRepository = (*GormImportBatchRepository)(nil)

// GormQueueItemRepository implements importqueue.ItemRepository using GORM
type GormQueueItemRepository struct {
	db *gorm.DB
}

// NewGormQueueItemRepository creates a new GormQueueItemRepository
func NewGormQueueItemRepository(db *gorm.DB) *GormQueueItemRepository {
	return &GormQueueItemRepository{db: db}
}

// Save creates or updates a queue item
func (r *GormQueueItemRepository) Save(ctx context.Context, item *importqueue.QueueItem) error {
	model, err := models.QueueItemModelFromDomain(item)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a queue item by its ID
func (r *GormQueueItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*importqueue.QueueItem, error) {
	var model models.QueueItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByBatch finds all queue items of a batch in upload order
func (r *GormQueueItemRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*importqueue.QueueItem, error) {
	var itemModels []models.QueueItemModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	return toDomainQueueItems(itemModels)
}

// FindByStatus finds queue items in the given status
func (r *GormQueueItemRepository) FindByStatus(ctx context.Context, status importqueue.ItemStatus, filter shared.Filter) (*shared.Paginated[*importqueue.QueueItem], error) {
	query := r.db.WithContext(ctx).Model(&models.QueueItemModel{}).
		Where("status = ?", status)
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(file_name) LIKE ?", pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var itemModels []models.QueueItemModel
	if err := applyPagination(query, filter, QueueItemSortFields, "created_at").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}

	items, err := toDomainQueueItems(itemModels)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// CountByStatus returns the number of queue items per status
func (r *GormQueueItemRepository) CountByStatus(ctx context.Context) (map[importqueue.ItemStatus]int64, error) {
	var rows []struct {
		Status importqueue.ItemStatus
		Total  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.QueueItemModel{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[importqueue.ItemStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// Delete deletes a queue item
func (r *GormQueueItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.QueueItemModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainQueueItems(itemModels []models.QueueItemModel) ([]*importqueue.QueueItem, error) {
	items := make([]*importqueue.QueueItem, len(itemModels))
	for i := range itemModels {
		item, err := itemModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}

// Ensure GormQueueItemRepository implements importqueue.ItemRepository
var _ importqueue.ItemRepository = (*GormQueueItemRepository)(nil)
