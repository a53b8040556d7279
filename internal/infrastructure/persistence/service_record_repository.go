package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/econtract/backend/internal/domain/billing"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/econtract/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormServiceRecordRepository implements billing.ServiceRecordRepository using GORM
type GormServiceRecordRepository struct {
	db *gorm.DB
}

// NewGormServiceRecordRepository creates a new GormServiceRecordRepository
func NewGormServiceRecordRepository(db *gorm.DB) *GormServiceRecordRepository {
	return &GormServiceRecordRepository{db: db}
}

// Save creates or updates a service record
func (r *GormServiceRecordRepository) Save(ctx context.Context, record *billing.ServiceRecord) error {
	model := models.ServiceRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a service record by its ID
func (r *GormServiceRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.ServiceRecord, error) {
	var model models.ServiceRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple service records by their IDs
func (r *GormServiceRecordRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*billing.ServiceRecord, error) {
	if len(ids) == 0 {
		return []*billing.ServiceRecord{}, nil
	}
	var recordModels []models.ServiceRecordModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toDomainRecords(recordModels), nil
}

// FindByContract finds service records for a contract matching the filter
func (r *GormServiceRecordRepository) FindByContract(ctx context.Context, contractID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.ServiceRecord], error) {
	query := r.db.WithContext(ctx).Model(&models.ServiceRecordModel{}).
		Where("contract_id = ?", contractID)
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(category) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var recordModels []models.ServiceRecordModel
	if err := applyPagination(query, filter, ServiceRecordSortFields, "service_date").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(toDomainRecords(recordModels), total, filter.Page, filter.PageSize)
	return &page, nil
}

// FindUninvoicedByContract finds the APPROVED, unclaimed records for a
// contract, oldest service date first
func (r *GormServiceRecordRepository) FindUninvoicedByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.ServiceRecord, error) {
	var recordModels []models.ServiceRecordModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ? AND status = ? AND invoice_item_id IS NULL",
			contractID, billing.RecordStatusApproved).
		Order("service_date ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toDomainRecords(recordModels), nil
}

// Claim atomically links an APPROVED, unclaimed record to an invoice item.
// The guard lives in the WHERE clause, so two concurrent claims on the same
// record resolve to exactly one winner at the database.
func (r *GormServiceRecordRepository) Claim(ctx context.Context, recordID, invoiceItemID uuid.UUID, invoicedDate time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.ServiceRecordModel{}).
		Where("id = ? AND status = ? AND invoice_item_id IS NULL",
			recordID, billing.RecordStatusApproved).
		Updates(map[string]any{
			"status":          billing.RecordStatusInvoiced,
			"invoice_item_id": invoiceItemID,
			"invoiced_date":   invoicedDate,
			"updated_at":      time.Now(),
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.ServiceRecordModel{}).
			Where("id = ?", recordID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.NewDomainErrorf(shared.CodeConflict,
			"Service record %s is not claimable", recordID)
	}
	return nil
}

// ReleaseClaim detaches an INVOICED record from its invoice item and returns
// it to APPROVED
func (r *GormServiceRecordRepository) ReleaseClaim(ctx context.Context, recordID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.ServiceRecordModel{}).
		Where("id = ? AND status = ? AND invoice_item_id IS NOT NULL",
			recordID, billing.RecordStatusInvoiced).
		Updates(map[string]any{
			"status":          billing.RecordStatusApproved,
			"invoice_item_id": nil,
			"invoiced_date":   nil,
			"updated_at":      time.Now(),
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.ServiceRecordModel{}).
			Where("id = ?", recordID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Service record %s is not claimed by any invoice item", recordID)
	}
	return nil
}

// Delete deletes a service record
func (r *GormServiceRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ServiceRecordModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainRecords(recordModels []models.ServiceRecordModel) []*billing.ServiceRecord {
	records := make([]*billing.ServiceRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records
}

// Ensure GormServiceRecordRepository implements billing.ServiceRecordRepository
var _ billing.ServiceRecordRepository = (*GormServiceRecordRepository)(nil)
