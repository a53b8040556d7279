package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/econtract/backend/internal/domain/billing"
	"github.com/econtract/backend/internal/domain/pricing"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ServiceRecordService manages billable service records. When a record is
// created without a fixed unit price the price is resolved from the
// contract's price rules at the service date.
type ServiceRecordService struct {
	recordRepo billing.ServiceRecordRepository
	priceRepo  pricing.Repository
	logger     *zap.Logger
}

// NewServiceRecordService creates a new ServiceRecordService
func NewServiceRecordService(recordRepo billing.ServiceRecordRepository, priceRepo pricing.Repository, logger *zap.Logger) *ServiceRecordService {
	return &ServiceRecordService{
		recordRepo: recordRepo,
		priceRepo:  priceRepo,
		logger:     logger,
	}
}

// CreateRecordRequest represents a request to record billable work. A nil
// UnitPrice asks the pricing rules for the effective rate.
type CreateRecordRequest struct {
	ContractID  uuid.UUID
	ServiceDate time.Time
	Category    string
	Description string
	Quantity    decimal.Decimal
	Unit        string
	UnitPrice   *decimal.Decimal
	CreatedBy   uuid.UUID
}

// CreateRecord records billable work under a contract
func (s *ServiceRecordService) CreateRecord(ctx context.Context, req CreateRecordRequest) (*billing.ServiceRecord, error) {
	unitPrice, err := s.effectiveUnitPrice(ctx, req)
	if err != nil {
		return nil, err
	}

	record, err := billing.NewServiceRecord(req.ContractID, req.ServiceDate, req.Category,
		req.Description, req.Quantity, req.Unit, unitPrice, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	if err := s.recordRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save service record: %w", err)
	}

	s.logger.Info("service record created",
		zap.String("record_id", record.ID.String()),
		zap.String("contract_id", req.ContractID.String()),
		zap.String("category", req.Category))
	return record, nil
}

func (s *ServiceRecordService) effectiveUnitPrice(ctx context.Context, req CreateRecordRequest) (decimal.Decimal, error) {
	if req.UnitPrice != nil {
		return *req.UnitPrice, nil
	}

	candidates, err := s.priceRepo.FindValidOn(ctx, req.ContractID, req.Category, req.ServiceDate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load price rules: %w", err)
	}
	quantity := req.Quantity
	resolved, err := pricing.Resolve(candidates, req.Category, &quantity, req.ServiceDate)
	if err != nil {
		return decimal.Zero, err
	}
	return resolved.UnitPrice, nil
}

// GetRecord loads a service record by ID
func (s *ServiceRecordService) GetRecord(ctx context.Context, id uuid.UUID) (*billing.ServiceRecord, error) {
	return s.recordRepo.FindByID(ctx, id)
}

// ListRecordsByContract returns a page of a contract's service records
func (s *ServiceRecordService) ListRecordsByContract(ctx context.Context, contractID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.ServiceRecord], error) {
	return s.recordRepo.FindByContract(ctx, contractID, filter)
}

// ListUninvoicedRecords returns the approved, unclaimed records of a contract
func (s *ServiceRecordService) ListUninvoicedRecords(ctx context.Context, contractID uuid.UUID) ([]*billing.ServiceRecord, error) {
	return s.recordRepo.FindUninvoicedByContract(ctx, contractID)
}

// UpdateRecord changes an unclaimed record's billable fields
func (s *ServiceRecordService) UpdateRecord(ctx context.Context, id uuid.UUID, serviceDate time.Time, category, description string, quantity decimal.Decimal, unit string, unitPrice decimal.Decimal) (*billing.ServiceRecord, error) {
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := record.Update(serviceDate, category, description, quantity, unit, unitPrice); err != nil {
		return nil, err
	}
	if err := s.recordRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save service record: %w", err)
	}
	return record, nil
}

// ApproveRecord releases a record for invoicing
func (s *ServiceRecordService) ApproveRecord(ctx context.Context, id uuid.UUID) (*billing.ServiceRecord, error) {
	return s.transition(ctx, id, (*billing.ServiceRecord).Approve)
}

// RejectRecord removes a record from the billable set
func (s *ServiceRecordService) RejectRecord(ctx context.Context, id uuid.UUID) (*billing.ServiceRecord, error) {
	return s.transition(ctx, id, (*billing.ServiceRecord).Reject)
}

func (s *ServiceRecordService) transition(ctx context.Context, id uuid.UUID, fn func(*billing.ServiceRecord) error) (*billing.ServiceRecord, error) {
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(record); err != nil {
		return nil, err
	}
	if err := s.recordRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save service record: %w", err)
	}
	return record, nil
}

// DeleteRecord removes an unclaimed record
func (s *ServiceRecordService) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if record.IsClaimed() {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Service record %s is invoiced and cannot be deleted", record.ID)
	}
	return s.recordRepo.Delete(ctx, id)
}
