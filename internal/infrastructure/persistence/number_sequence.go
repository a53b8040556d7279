package persistence

import (
	"context"
	"time"

	"github.com/econtract/backend/internal/domain/billing"
	"github.com/econtract/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNumberSequence implements billing.NumberSequence on a sequence table.
// Next runs inside a transaction: the in-place UPDATE takes a row lock, so
// two concurrent calls for the same scope serialize and never hand out the
// same number.
type GormNumberSequence struct {
	db *gorm.DB
}

// NewGormNumberSequence creates a new GormNumberSequence
func NewGormNumberSequence(db *gorm.DB) *GormNumberSequence {
	return &GormNumberSequence{db: db}
}

// Next returns the next number for the scope, starting at 1
func (s *GormNumberSequence) Next(ctx context.Context, scope string) (int64, error) {
	var value int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.NumberSequenceModel{}).
			Where("scope = ?", scope).
			Updates(map[string]any{
				"value":      gorm.Expr("value + 1"),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			row := models.NumberSequenceModel{Scope: scope, Value: 1, UpdatedAt: time.Now()}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			value = 1
			return nil
		}

		var row models.NumberSequenceModel
		if err := tx.First(&row, "scope = ?", scope).Error; err != nil {
			return err
		}
		value = row.Value
		return nil
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Reset sets the scope's counter back to zero so the next call hands out 1
func (s *GormNumberSequence) Reset(ctx context.Context, scope string) error {
	return s.db.WithContext(ctx).Model(&models.NumberSequenceModel{}).
		Where("scope = ?", scope).
		Updates(map[string]any{
			"value":      int64(0),
			"updated_at": time.Now(),
		}).Error
}

// Ensure GormNumberSequence implements billing.NumberSequence
var _ billing.NumberSequence = (*GormNumberSequence)(nil)
