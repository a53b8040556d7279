package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/econtract/backend/internal/domain/pricing"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/econtract/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPriceRepository implements pricing.Repository using GORM
type GormPriceRepository struct {
	db *gorm.DB
}

// NewGormPriceRepository creates a new GormPriceRepository
func NewGormPriceRepository(db *gorm.DB) *GormPriceRepository {
	return &GormPriceRepository{db: db}
}

// Save creates or updates a price rule together with its tiers. Tiers removed
// from the aggregate are deleted from storage.
func (r *GormPriceRepository) Save(ctx context.Context, price *pricing.ContractPrice) error {
	model := models.ContractPriceModelFromDomain(price)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tiers := model.Tiers
		model.Tiers = nil
		if err := tx.Save(model).Error; err != nil {
			return err
		}

		if len(tiers) > 0 {
			tierIDs := make([]uuid.UUID, len(tiers))
			for i := range tiers {
				tierIDs[i] = tiers[i].ID
			}
			if err := tx.Where("contract_price_id = ? AND id NOT IN ?", model.ID, tierIDs).
				Delete(&models.PriceTierModel{}).Error; err != nil {
				return err
			}
			for i := range tiers {
				tiers[i].ContractPriceID = model.ID
				if err := tx.Save(&tiers[i]).Error; err != nil {
					return err
				}
			}
		} else {
			if err := tx.Where("contract_price_id = ?", model.ID).
				Delete(&models.PriceTierModel{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID finds a price rule by its ID, tiers included
func (r *GormPriceRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.ContractPrice, error) {
	var model models.ContractPriceModel
	if err := r.db.WithContext(ctx).
		Preload("Tiers").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByContract finds all price rules for a contract, newest validity first
func (r *GormPriceRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]*pricing.ContractPrice, error) {
	var priceModels []models.ContractPriceModel
	if err := r.db.WithContext(ctx).
		Preload("Tiers").
		Where("contract_id = ?", contractID).
		Order("valid_from DESC").
		Find(&priceModels).Error; err != nil {
		return nil, err
	}
	return toDomainPrices(priceModels), nil
}

// FindValidOn finds the active price rules for a contract service category
// whose validity window contains date. ValidFrom is inclusive, a NULL
// valid_to means open ended, otherwise valid_to is inclusive.
func (r *GormPriceRepository) FindValidOn(ctx context.Context, contractID uuid.UUID, category string, date time.Time) ([]*pricing.ContractPrice, error) {
	var priceModels []models.ContractPriceModel
	if err := r.db.WithContext(ctx).
		Preload("Tiers").
		Where("contract_id = ? AND category = ? AND active = ?", contractID, category, true).
		Where("valid_from <= ?", date).
		Where("(valid_to IS NULL OR valid_to >= ?)", date).
		Order("valid_from DESC").
		Find(&priceModels).Error; err != nil {
		return nil, err
	}
	return toDomainPrices(priceModels), nil
}

// Delete deletes a price rule and its tiers
func (r *GormPriceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_price_id = ?", id).
			Delete(&models.PriceTierModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ContractPriceModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func toDomainPrices(priceModels []models.ContractPriceModel) []*pricing.ContractPrice {
	prices := make([]*pricing.ContractPrice, len(priceModels))
	for i := range priceModels {
		prices[i] = priceModels[i].ToDomain()
	}
	return prices
}

// Ensure GormPriceRepository implements pricing.Repository
var _ pricing.Repository = (*GormPriceRepository)(nil)
