package billing

import (
	"context"
	"time"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ServiceRecordRepository persists service records
type ServiceRecordRepository interface {
	Save(ctx context.Context, record *ServiceRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*ServiceRecord, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*ServiceRecord, error)
	FindByContract(ctx context.Context, contractID uuid.UUID, filter shared.Filter) (*shared.Paginated[*ServiceRecord], error)
	FindUninvoicedByContract(ctx context.Context, contractID uuid.UUID) ([]*ServiceRecord, error)

	// Claim atomically links an APPROVED, unclaimed record to an invoice
	// item and marks it INVOICED. A record already claimed or not APPROVED
	// makes the claim fail with a conflict, never a partial write.
	Claim(ctx context.Context, recordID, invoiceItemID uuid.UUID, invoicedDate time.Time) error

	// ReleaseClaim is the administrative correction path undoing Claim.
	ReleaseClaim(ctx context.Context, recordID uuid.UUID) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// InvoiceRepository persists invoices together with their items
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Invoice], error)
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]*Invoice, error)
	FindScheduledByContract(ctx context.Context, contractID uuid.UUID) ([]*Invoice, error)

	// DeleteScheduledByContract removes only invoices still in SCHEDULED
	// status and reports how many were removed. Sent or paid invoices are
	// never touched.
	DeleteScheduledByContract(ctx context.Context, contractID uuid.UUID) (int64, error)

	// FindOverdue returns SENT invoices whose due date lies before asOf.
	FindOverdue(ctx context.Context, asOf time.Time) ([]*Invoice, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

// NumberSequence hands out monotonically increasing numbers per scope, used
// for invoice numbering. Implementations are injected so tests can reset
// them between runs.
type NumberSequence interface {
	Next(ctx context.Context, scope string) (int64, error)
	Reset(ctx context.Context, scope string) error
}
