package contract

import (
	"context"
	"fmt"
	"time"

	"github.com/econtract/backend/internal/domain/contract"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ContractService handles contract lifecycle operations
type ContractService struct {
	contractRepo contract.Repository
	logger       *zap.Logger
}

// NewContractService creates a new ContractService
func NewContractService(contractRepo contract.Repository, logger *zap.Logger) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		logger:       logger,
	}
}

// CreateContractRequest represents a request to create a contract
type CreateContractRequest struct {
	ContractNumber string
	Title          string
	ContractType   string
	PartnerName    string
	PartnerID      *uuid.UUID
	Department     string
	StartDate      *time.Time
	EndDate        *time.Time
	OwnerUserID    uuid.UUID
	CreatedBy      uuid.UUID
}

// UpdateContractRequest represents a request to update contract details
type UpdateContractRequest struct {
	Title        string
	ContractType string
	PartnerName  string
	Department   string
	StartDate    *time.Time
	EndDate      *time.Time
}

// BillingTermsRequest represents a request to configure billing
type BillingTermsRequest struct {
	BillingCycle     *contract.BillingCycle
	BillingAmount    *decimal.Decimal
	BillingStartDate *time.Time
	PaymentTermDays  int
}

// CreateContract creates a new contract in DRAFT status
func (s *ContractService) CreateContract(ctx context.Context, req CreateContractRequest) (*contract.Contract, error) {
	existing, err := s.contractRepo.FindByContractNumber(ctx, req.ContractNumber)
	if err != nil && !shared.IsDomainError(err, shared.CodeNotFound) {
		return nil, fmt.Errorf("failed to check contract number: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainErrorf(shared.CodeConflict,
			"Contract number already in use: %s", req.ContractNumber)
	}

	c, err := contract.NewContract(req.ContractNumber, req.Title, req.ContractType, req.PartnerName, req.OwnerUserID, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	c.PartnerID = req.PartnerID
	c.Department = req.Department
	c.StartDate = req.StartDate
	c.EndDate = req.EndDate

	if err := s.contractRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	s.logger.Info("contract created",
		zap.String("contract_id", c.ID.String()),
		zap.String("contract_number", c.ContractNumber))
	return c, nil
}

// GetContract loads a contract by ID
func (s *ContractService) GetContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	return s.contractRepo.FindByID(ctx, id)
}

// ListContracts returns a page of contracts
func (s *ContractService) ListContracts(ctx context.Context, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	return s.contractRepo.FindAll(ctx, filter)
}

// ListContractsByStatus returns a page of contracts in the given status
func (s *ContractService) ListContractsByStatus(ctx context.Context, status contract.Status, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	if !status.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "Invalid contract status: %s", status)
	}
	return s.contractRepo.FindByStatus(ctx, status, filter)
}

// UpdateContract updates the descriptive fields of a contract
func (s *ContractService) UpdateContract(ctx context.Context, id uuid.UUID, req UpdateContractRequest) (*contract.Contract, error) {
	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.UpdateDetails(req.Title, req.ContractType, req.PartnerName, req.Department, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if err := s.contractRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}
	return c, nil
}

// UpdateBillingTerms configures the billing parameters consumed by schedule
// generation. Only DRAFT and IN_NEGOTIATION contracts accept changes.
func (s *ContractService) UpdateBillingTerms(ctx context.Context, id uuid.UUID, req BillingTermsRequest) (*contract.Contract, error) {
	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.UpdateBillingTerms(req.BillingCycle, req.BillingAmount, req.BillingStartDate, req.PaymentTermDays); err != nil {
		return nil, err
	}
	if err := s.contractRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	s.logger.Info("contract billing terms updated", zap.String("contract_id", c.ID.String()))
	return c, nil
}

// TransitionContract moves a contract through its lifecycle
func (s *ContractService) TransitionContract(ctx context.Context, id uuid.UUID, target contract.Status) (*contract.Contract, error) {
	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.TransitionTo(target); err != nil {
		return nil, err
	}
	if err := s.contractRepo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	s.logger.Info("contract status changed",
		zap.String("contract_id", c.ID.String()),
		zap.String("status", string(c.Status)))
	return c, nil
}

// DeleteContract removes a contract. Only DRAFT contracts may be deleted.
func (s *ContractService) DeleteContract(ctx context.Context, id uuid.UUID) error {
	c, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != contract.StatusDraft {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Contract %s cannot be deleted in status %s", c.ID, c.Status)
	}
	return s.contractRepo.Delete(ctx, id)
}
