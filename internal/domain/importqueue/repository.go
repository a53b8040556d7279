package importqueue

import (
	"context"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchRepository persists import batches
type BatchRepository interface {
	Save(ctx context.Context, batch *ImportBatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*ImportBatch, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*ImportBatch], error)
}

// ItemRepository persists queue items
type ItemRepository interface {
	Save(ctx context.Context, item *QueueItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*QueueItem, error)
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*QueueItem, error)
	FindByStatus(ctx context.Context, status ItemStatus, filter shared.Filter) (*shared.Paginated[*QueueItem], error)
	CountByStatus(ctx context.Context) (map[ItemStatus]int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
