package contract

import (
	"context"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists contracts
type Repository interface {
	Save(ctx context.Context, c *Contract) error
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	FindByContractNumber(ctx context.Context, contractNumber string) (*Contract, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Contract], error)
	FindByStatus(ctx context.Context, status Status, filter shared.Filter) (*shared.Paginated[*Contract], error)
	Delete(ctx context.Context, id uuid.UUID) error
}
