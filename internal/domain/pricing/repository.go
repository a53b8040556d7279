package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists contract price rules together with their tiers
type Repository interface {
	Save(ctx context.Context, price *ContractPrice) error
	FindByID(ctx context.Context, id uuid.UUID) (*ContractPrice, error)
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]*ContractPrice, error)
	FindValidOn(ctx context.Context, contractID uuid.UUID, category string, date time.Time) ([]*ContractPrice, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
