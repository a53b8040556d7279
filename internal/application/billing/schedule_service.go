package billing

import (
	"context"
	"fmt"

	"github.com/econtract/backend/internal/domain/billing"
	"github.com/econtract/backend/internal/domain/contract"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduleService expands contract billing configuration into scheduled
// invoices
type ScheduleService struct {
	contractRepo contract.Repository
	invoiceRepo  billing.InvoiceRepository
	logger       *zap.Logger
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(contractRepo contract.Repository, invoiceRepo billing.InvoiceRepository, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		contractRepo: contractRepo,
		invoiceRepo:  invoiceRepo,
		logger:       logger,
	}
}

// GenerateSchedule creates the scheduled invoices for a contract. A contract
// without billing configuration yields an empty schedule, not an error.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, contractID uuid.UUID) ([]*billing.Invoice, error) {
	c, err := s.contractRepo.FindByID(ctx, contractID)
	if err != nil {
		return nil, err
	}

	invoices, err := billing.GenerateSchedule(c)
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		if err := s.invoiceRepo.Save(ctx, inv); err != nil {
			return nil, fmt.Errorf("failed to save scheduled invoice %s: %w", inv.InvoiceNumber, err)
		}
	}

	s.logger.Info("billing schedule generated",
		zap.String("contract_id", contractID.String()),
		zap.Int("invoices", len(invoices)))
	return invoices, nil
}

// RegenerateSchedule replaces a contract's schedule. Only invoices still in
// SCHEDULED status are deleted; sent or paid invoices are never touched.
func (s *ScheduleService) RegenerateSchedule(ctx context.Context, contractID uuid.UUID) ([]*billing.Invoice, error) {
	if _, err := s.contractRepo.FindByID(ctx, contractID); err != nil {
		return nil, err
	}

	deleted, err := s.invoiceRepo.DeleteScheduledByContract(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete scheduled invoices: %w", err)
	}
	s.logger.Info("scheduled invoices cleared",
		zap.String("contract_id", contractID.String()),
		zap.Int64("deleted", deleted))

	return s.GenerateSchedule(ctx, contractID)
}

// ListScheduledInvoices returns a contract's scheduled invoices
func (s *ScheduleService) ListScheduledInvoices(ctx context.Context, contractID uuid.UUID) ([]*billing.Invoice, error) {
	return s.invoiceRepo.FindScheduledByContract(ctx, contractID)
}
