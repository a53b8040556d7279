package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/econtract/backend/internal/domain/contract"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/econtract/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContractRepository implements contract.Repository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// Save creates or updates a contract
func (r *GormContractRepository) Save(ctx context.Context, c *contract.Contract) error {
	model := models.ContractModelFromDomain(c)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByContractNumber finds a contract by its unique contract number
func (r *GormContractRepository) FindByContractNumber(ctx context.Context, contractNumber string) (*contract.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("contract_number = ?", contractNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all contracts matching the filter
func (r *GormContractRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	return r.findPage(ctx, r.db.WithContext(ctx).Model(&models.ContractModel{}), filter)
}

// FindByStatus finds contracts in the given status
func (r *GormContractRepository) FindByStatus(ctx context.Context, status contract.Status, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	query := r.db.WithContext(ctx).Model(&models.ContractModel{}).Where("status = ?", status)
	return r.findPage(ctx, query, filter)
}

// Delete deletes a contract
func (r *GormContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ContractModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormContractRepository) findPage(ctx context.Context, query *gorm.DB, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	query = r.applySearch(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var contractModels []models.ContractModel
	if err := applyPagination(query, filter, ContractSortFields, "created_at").Find(&contractModels).Error; err != nil {
		return nil, err
	}

	contracts := make([]*contract.Contract, len(contractModels))
	for i := range contractModels {
		contracts[i] = contractModels[i].ToDomain()
	}
	page := shared.NewPaginated(contracts, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (r *GormContractRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(contract_number) LIKE ? OR LOWER(title) LIKE ? OR LOWER(partner_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	return query
}

// Ensure GormContractRepository implements contract.Repository
var _ contract.Repository = (*GormContractRepository)(nil)
