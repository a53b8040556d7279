package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/econtract/backend/internal/domain/billing"
	"github.com/econtract/backend/internal/domain/contract"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AssemblerDefaultPaymentTermDays applies when the contract carries no
// payment term of its own.
const AssemblerDefaultPaymentTermDays = 14

// invoiceNumberScope prefixes the number sequence scope per year.
const invoiceNumberScope = "INV"

// InvoiceService assembles approved service records into invoices and
// manages the invoice lifecycle
type InvoiceService struct {
	contractRepo contract.Repository
	recordRepo   billing.ServiceRecordRepository
	invoiceRepo  billing.InvoiceRepository
	sequence     billing.NumberSequence
	logger       *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	contractRepo contract.Repository,
	recordRepo billing.ServiceRecordRepository,
	invoiceRepo billing.InvoiceRepository,
	sequence billing.NumberSequence,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		contractRepo: contractRepo,
		recordRepo:   recordRepo,
		invoiceRepo:  invoiceRepo,
		sequence:     sequence,
		logger:       logger,
	}
}

// CreateFromRecordsRequest represents a request to assemble an invoice from
// approved service records
type CreateFromRecordsRequest struct {
	ContractID uuid.UUID
	RecordIDs  []uuid.UUID
	TaxRate    *decimal.Decimal
	CreatedBy  uuid.UUID
}

// CreateFromServiceRecords builds one invoice out of the referenced service
// records. Every record must exist, be APPROVED and unclaimed; the first
// violation aborts the whole call before any record is claimed. Claims are
// atomic per record, so a concurrent call racing for the same record loses
// with a conflict and all claims taken so far are released again.
func (s *InvoiceService) CreateFromServiceRecords(ctx context.Context, req CreateFromRecordsRequest) (*billing.Invoice, error) {
	if len(req.RecordIDs) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "At least one service record is required")
	}

	c, err := s.contractRepo.FindByID(ctx, req.ContractID)
	if err != nil {
		return nil, err
	}

	records, err := s.loadBillableRecords(ctx, c.ID, req.RecordIDs)
	if err != nil {
		return nil, err
	}

	invoiceDate := time.Now().Truncate(24 * time.Hour)
	paymentTermDays := c.PaymentTermDays
	if paymentTermDays <= 0 {
		paymentTermDays = AssemblerDefaultPaymentTermDays
	}
	taxRate := billing.DefaultTaxRatePct
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}

	number, err := s.nextInvoiceNumber(ctx, invoiceDate)
	if err != nil {
		return nil, err
	}

	inv, err := billing.NewInvoice(number, billing.InvoiceTypeCollective, c.PartnerName,
		invoiceDate, invoiceDate.AddDate(0, 0, paymentTermDays), taxRate, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	contractID := c.ID
	inv.ContractID = &contractID
	periodStart, periodEnd := servicePeriod(records)
	inv.BillingPeriodStart = &periodStart
	inv.BillingPeriodEnd = &periodEnd

	// Claim records one by one; a lost race releases everything taken so
	// far so no partial invoice survives.
	claimed := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		serviceDate := r.ServiceDate
		recordID := r.ID
		item, err := inv.AddItem(&recordID, r.Description, r.Quantity, r.Unit, r.UnitPrice,
			decimal.Zero, &serviceDate, &serviceDate)
		if err != nil {
			s.releaseClaims(ctx, claimed)
			return nil, err
		}

		if err := s.recordRepo.Claim(ctx, r.ID, item.ID, invoiceDate); err != nil {
			s.releaseClaims(ctx, claimed)
			return nil, err
		}
		claimed = append(claimed, r.ID)
	}

	if err := inv.RecalculateTotals(); err != nil {
		s.releaseClaims(ctx, claimed)
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		s.releaseClaims(ctx, claimed)
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	s.logger.Info("invoice assembled from service records",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int("items", len(inv.Items)))
	return inv, nil
}

// loadBillableRecords loads every requested record and verifies the
// all-or-nothing preconditions, naming the first offending record.
func (s *InvoiceService) loadBillableRecords(ctx context.Context, contractID uuid.UUID, recordIDs []uuid.UUID) ([]*billing.ServiceRecord, error) {
	records, err := s.recordRepo.FindByIDs(ctx, recordIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load service records: %w", err)
	}

	byID := make(map[uuid.UUID]*billing.ServiceRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	ordered := make([]*billing.ServiceRecord, 0, len(recordIDs))
	for _, id := range recordIDs {
		r, ok := byID[id]
		if !ok {
			return nil, shared.NewDomainErrorf(shared.CodeNotFound, "Service record not found: %s", id)
		}
		if r.ContractID != contractID {
			return nil, shared.NewDomainErrorf(shared.CodeValidation,
				"Service record %s belongs to a different contract", r.ID)
		}
		if r.Status != billing.RecordStatusApproved {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidState,
				"Service record %s is %s, expected APPROVED", r.ID, r.Status)
		}
		if r.IsClaimed() {
			return nil, shared.NewDomainErrorf(shared.CodeInvalidState,
				"Service record %s is already linked to invoice item %s", r.ID, r.InvoiceItemID)
		}
		ordered = append(ordered, r)
	}
	return ordered, nil
}

func (s *InvoiceService) releaseClaims(ctx context.Context, recordIDs []uuid.UUID) {
	for _, id := range recordIDs {
		if err := s.recordRepo.ReleaseClaim(ctx, id); err != nil {
			s.logger.Error("failed to release service record claim",
				zap.String("record_id", id.String()), zap.Error(err))
		}
	}
}

func (s *InvoiceService) nextInvoiceNumber(ctx context.Context, invoiceDate time.Time) (string, error) {
	scope := fmt.Sprintf("%s-%d", invoiceNumberScope, invoiceDate.Year())
	seq, err := s.sequence.Next(ctx, scope)
	if err != nil {
		return "", fmt.Errorf("failed to allocate invoice number: %w", err)
	}
	return fmt.Sprintf("%s-%04d", scope, seq), nil
}

// servicePeriod spans min and max service date over the selected records
func servicePeriod(records []*billing.ServiceRecord) (start, end time.Time) {
	start, end = records[0].ServiceDate, records[0].ServiceDate
	for _, r := range records[1:] {
		if r.ServiceDate.Before(start) {
			start = r.ServiceDate
		}
		if r.ServiceDate.After(end) {
			end = r.ServiceDate
		}
	}
	return start, end
}

// GetInvoice loads an invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	return s.invoiceRepo.FindByID(ctx, id)
}

// ListInvoices returns a page of invoices
func (s *InvoiceService) ListInvoices(ctx context.Context, filter shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	return s.invoiceRepo.FindAll(ctx, filter)
}

// ListInvoicesByContract returns all invoices of a contract
func (s *InvoiceService) ListInvoicesByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.Invoice, error) {
	return s.invoiceRepo.FindByContract(ctx, contractID)
}

// ListOverdueInvoices returns sent invoices past their due date. Overdue is
// derived here, never stored as a status.
func (s *InvoiceService) ListOverdueInvoices(ctx context.Context, asOf time.Time) ([]*billing.Invoice, error) {
	return s.invoiceRepo.FindOverdue(ctx, asOf)
}

// AddItem appends a manual line to a draft or approved invoice and
// recalculates its totals
func (s *InvoiceService) AddItem(ctx context.Context, invoiceID uuid.UUID, description string, quantity decimal.Decimal, unit string, unitPrice, discount decimal.Decimal) (*billing.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := inv.AddItem(nil, description, quantity, unit, unitPrice, discount, nil, nil); err != nil {
		return nil, err
	}
	if err := inv.RecalculateTotals(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	return inv, nil
}

// RemoveItem deletes a line, releases a linked service record claim and
// recalculates the totals
func (s *InvoiceService) RemoveItem(ctx context.Context, invoiceID, itemID uuid.UUID) (*billing.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	var recordID *uuid.UUID
	for i := range inv.Items {
		if inv.Items[i].ID == itemID {
			recordID = inv.Items[i].ServiceRecordID
			break
		}
	}

	if err := inv.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := inv.RecalculateTotals(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	if recordID != nil {
		if err := s.recordRepo.ReleaseClaim(ctx, *recordID); err != nil {
			s.logger.Error("failed to release service record after item removal",
				zap.String("record_id", recordID.String()), zap.Error(err))
		}
	}
	return inv, nil
}

// SetDiscount configures the invoice level discount and recalculates totals
func (s *InvoiceService) SetDiscount(ctx context.Context, invoiceID uuid.UUID, percentage, amount *decimal.Decimal) (*billing.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := inv.SetDiscount(percentage, amount); err != nil {
		return nil, err
	}
	if err := inv.RecalculateTotals(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	return inv, nil
}

// TransitionInvoice moves an invoice through its lifecycle
func (s *InvoiceService) TransitionInvoice(ctx context.Context, invoiceID uuid.UUID, target billing.InvoiceStatus) (*billing.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := inv.TransitionTo(target); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	s.logger.Info("invoice status changed",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("status", string(inv.Status)))
	return inv, nil
}
