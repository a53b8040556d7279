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

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Save creates or updates an invoice together with its items. Items removed
// from the aggregate are deleted from storage.
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := model.Items
		model.Items = nil
		if err := tx.Save(model).Error; err != nil {
			return err
		}

		if len(items) > 0 {
			itemIDs := make([]uuid.UUID, len(items))
			for i := range items {
				itemIDs[i] = items[i].ID
			}
			if err := tx.Where("invoice_id = ? AND id NOT IN ?", model.ID, itemIDs).
				Delete(&models.InvoiceItemModel{}).Error; err != nil {
				return err
			}
			for i := range items {
				items[i].InvoiceID = model.ID
				if err := tx.Save(&items[i]).Error; err != nil {
					return err
				}
			}
		} else {
			if err := tx.Where("invoice_id = ?", model.ID).
				Delete(&models.InvoiceItemModel{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds an invoice by its ID, items included in position order
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoiceNumber finds an invoice by its unique number
func (r *GormInvoiceRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		Where("invoice_number = ?", invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(invoice_number) LIKE ? OR LOWER(recipient_name) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var invoiceModels []models.InvoiceModel
	if err := applyPagination(query, filter, InvoiceSortFields, "invoice_date").
		Preload("Items", orderItemsByPosition).
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(toDomainInvoices(invoiceModels), total, filter.Page, filter.PageSize)
	return &page, nil
}

// FindByContract finds all invoices referencing a contract
func (r *GormInvoiceRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		Where("contract_id = ?", contractID).
		Order("invoice_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// FindScheduledByContract finds the SCHEDULED invoices for a contract in
// scheduled date order
func (r *GormInvoiceRepository) FindScheduledByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		Where("contract_id = ? AND status = ?", contractID, billing.InvoiceStatusScheduled).
		Order("scheduled_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// DeleteScheduledByContract removes only invoices still in SCHEDULED status
// for the contract and reports how many were removed. Invoices in any other
// status are never touched, so regeneration cannot destroy billing history.
func (r *GormInvoiceRepository) DeleteScheduledByContract(ctx context.Context, contractID uuid.UUID) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&models.InvoiceModel{}).
			Where("contract_id = ? AND status = ?", contractID, billing.InvoiceStatusScheduled).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("invoice_id IN ?", ids).
			Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.InvoiceModel{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

// FindOverdue returns SENT invoices whose due date lies before asOf. Overdue
// is a derived view, never a stored status.
func (r *GormInvoiceRepository) FindOverdue(ctx context.Context, asOf time.Time) ([]*billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		Where("status = ? AND due_date < ?", billing.InvoiceStatusSent, asOf).
		Order("due_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// Delete deletes an invoice and its items
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).
			Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.InvoiceModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func orderItemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func toDomainInvoices(invoiceModels []models.InvoiceModel) []*billing.Invoice {
	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return invoices
}

// Ensure GormInvoiceRepository implements billing.InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
