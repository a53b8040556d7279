package billing

import (
	"time"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/econtract/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceRecordStatus represents the lifecycle status of a service record
type ServiceRecordStatus string

const (
	RecordStatusDraft    ServiceRecordStatus = "DRAFT"
	RecordStatusApproved ServiceRecordStatus = "APPROVED"
	RecordStatusInvoiced ServiceRecordStatus = "INVOICED"
	RecordStatusRejected ServiceRecordStatus = "REJECTED"
)

// IsValid checks if the status is a valid service record status
func (s ServiceRecordStatus) IsValid() bool {
	switch s {
	case RecordStatusDraft, RecordStatusApproved, RecordStatusInvoiced, RecordStatusRejected:
		return true
	}
	return false
}

// IsTerminal returns true if the record can no longer change status
func (s ServiceRecordStatus) IsTerminal() bool {
	return s == RecordStatusInvoiced || s == RecordStatusRejected
}

var recordTransitions = map[ServiceRecordStatus][]ServiceRecordStatus{
	RecordStatusDraft:    {RecordStatusApproved, RecordStatusRejected},
	RecordStatusApproved: {RecordStatusInvoiced, RecordStatusRejected},
	RecordStatusInvoiced: {},
	RecordStatusRejected: {},
}

// CanTransitionTo reports whether the status may move to target
func (s ServiceRecordStatus) CanTransitionTo(target ServiceRecordStatus) bool {
	for _, allowed := range recordTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ServiceRecord is a billable unit of work performed under a contract. Once
// claimed by an invoice item it becomes immutable except for administrative
// correction.
type ServiceRecord struct {
	shared.BaseAggregateRoot
	ContractID    uuid.UUID
	ServiceDate   time.Time
	Category      string
	Description   string
	Quantity      decimal.Decimal
	Unit          string
	UnitPrice     decimal.Decimal
	Total         decimal.Decimal
	Currency      valueobject.Currency
	Status        ServiceRecordStatus
	InvoiceItemID *uuid.UUID
	InvoicedDate  *time.Time
	CreatedBy     uuid.UUID
}

// NewServiceRecord creates a draft service record. Total is derived from
// quantity and unit price at creation.
func NewServiceRecord(contractID uuid.UUID, serviceDate time.Time, category, description string, quantity decimal.Decimal, unit string, unitPrice decimal.Decimal, createdBy uuid.UUID) (*ServiceRecord, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Contract ID cannot be empty")
	}
	if category == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Service category cannot be empty")
	}
	if quantity.IsNegative() || quantity.IsZero() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unit price cannot be negative")
	}

	r := &ServiceRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractID:        contractID,
		ServiceDate:       serviceDate,
		Category:          category,
		Description:       description,
		Quantity:          quantity,
		Unit:              unit,
		UnitPrice:         unitPrice,
		Currency:          valueobject.DefaultCurrency,
		Status:            RecordStatusDraft,
		CreatedBy:         createdBy,
	}
	r.recalculateTotal()
	return r, nil
}

func (r *ServiceRecord) recalculateTotal() {
	r.Total = valueobject.NewMoneyEUR(r.Quantity.Mul(r.UnitPrice)).RoundHalfUp().Amount()
}

// IsClaimed reports whether the record is already linked to an invoice item
func (r *ServiceRecord) IsClaimed() bool {
	return r.InvoiceItemID != nil
}

// Update changes the billable fields and re-derives the total. A claimed
// record rejects updates.
func (r *ServiceRecord) Update(serviceDate time.Time, category, description string, quantity decimal.Decimal, unit string, unitPrice decimal.Decimal) error {
	if r.IsClaimed() {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Service record %s is invoiced and cannot be updated", r.ID)
	}
	if r.Status.IsTerminal() {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Service record %s cannot be updated in status %s", r.ID, r.Status)
	}
	if category == "" {
		return shared.NewDomainError(shared.CodeValidation, "Service category cannot be empty")
	}
	if quantity.IsNegative() || quantity.IsZero() {
		return shared.NewDomainError(shared.CodeValidation, "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Unit price cannot be negative")
	}

	r.ServiceDate = serviceDate
	r.Category = category
	r.Description = description
	r.Quantity = quantity
	r.Unit = unit
	r.UnitPrice = unitPrice
	r.recalculateTotal()
	r.Touch()
	return nil
}

// Approve releases the record for invoicing
func (r *ServiceRecord) Approve() error {
	return r.transitionTo(RecordStatusApproved)
}

// Reject removes the record from the billable set
func (r *ServiceRecord) Reject() error {
	return r.transitionTo(RecordStatusRejected)
}

// MarkInvoiced links the record to the invoice item that claimed it. The
// atomic claim itself happens in the repository; this keeps the in-memory
// aggregate consistent with the claimed row.
func (r *ServiceRecord) MarkInvoiced(invoiceItemID uuid.UUID, invoicedDate time.Time) error {
	if r.IsClaimed() {
		return shared.NewDomainErrorf(shared.CodeConflict,
			"Service record %s is already claimed by invoice item %s", r.ID, r.InvoiceItemID)
	}
	if err := r.transitionTo(RecordStatusInvoiced); err != nil {
		return err
	}
	r.InvoiceItemID = &invoiceItemID
	r.InvoicedDate = &invoicedDate
	return nil
}

// ReleaseClaim is the administrative correction path: it detaches the record
// from its invoice item and returns it to APPROVED so it can be re-invoiced.
func (r *ServiceRecord) ReleaseClaim() error {
	if !r.IsClaimed() {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Service record %s is not claimed by any invoice item", r.ID)
	}
	r.InvoiceItemID = nil
	r.InvoicedDate = nil
	r.Status = RecordStatusApproved
	r.Touch()
	return nil
}

func (r *ServiceRecord) transitionTo(target ServiceRecordStatus) error {
	if !r.Status.CanTransitionTo(target) {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Service record %s cannot transition from %s to %s", r.ID, r.Status, target)
	}
	r.Status = target
	r.Touch()
	return nil
}
