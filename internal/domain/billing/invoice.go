package billing

import (
	"time"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/econtract/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusScheduled InvoiceStatus = "SCHEDULED"
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusApproved  InvoiceStatus = "APPROVED"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid invoice status
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusScheduled, InvoiceStatusDraft, InvoiceStatusApproved,
		InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// OVERDUE is deliberately absent: an invoice is overdue when it is SENT past
// its due date, which is a derived view, not a stored status.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusScheduled: {InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusDraft:     {InvoiceStatusApproved, InvoiceStatusCancelled},
	InvoiceStatusApproved:  {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:      {InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusPaid:      {},
	InvoiceStatusCancelled: {},
}

// CanTransitionTo reports whether the status may move to target
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// InvoiceType distinguishes invoices billing a single engagement from
// collective invoices aggregating several service records
type InvoiceType string

const (
	InvoiceTypeSingle     InvoiceType = "SINGLE"
	InvoiceTypeCollective InvoiceType = "COLLECTIVE"
)

// IsValid checks if the invoice type is valid
func (t InvoiceType) IsValid() bool {
	return t == InvoiceTypeSingle || t == InvoiceTypeCollective
}

// DefaultTaxRatePct is the tax rate applied when no rate is configured
var DefaultTaxRatePct = decimal.NewFromInt(19)

// InvoiceItem is one billed line. Its monetary fields are always derived in
// order (subtotal, then tax, then gross) so the rounded parts sum exactly.
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID          uuid.UUID
	Position           int
	ServiceRecordID    *uuid.UUID
	Description        string
	Quantity           decimal.Decimal
	Unit               string
	UnitPrice          decimal.Decimal
	DiscountAmount     decimal.Decimal
	TaxRate            decimal.Decimal
	SubtotalNet        decimal.Decimal
	TaxAmount          decimal.Decimal
	TotalGross         decimal.Decimal
	ServicePeriodStart *time.Time
	ServicePeriodEnd   *time.Time
}

// CalculateAll derives the item's monetary fields from quantity, unit price
// and discount, rounding half-up at each step
func (it *InvoiceItem) CalculateAll() {
	line := valueobject.NewMoneyEUR(it.Quantity.Mul(it.UnitPrice)).RoundHalfUp()
	discount := valueobject.NewMoneyEUR(it.DiscountAmount)
	subtotal := line.MustSubtract(discount)
	if subtotal.IsNegative() {
		subtotal = valueobject.ZeroEUR()
	}
	tax, gross := subtotal.NetPlusTax(it.TaxRate)

	it.SubtotalNet = subtotal.Amount()
	it.TaxAmount = tax.Amount()
	it.TotalGross = gross.Amount()
}

// Invoice is the aggregate root for a customer invoice. It owns an ordered
// list of items with contiguous positions starting at 1.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber      string
	Type               InvoiceType
	Status             InvoiceStatus
	ContractID         *uuid.UUID
	RecipientName      string
	RecipientAddress   string
	InvoiceDate        time.Time
	BillingPeriodStart *time.Time
	BillingPeriodEnd   *time.Time
	DueDate            time.Time
	ScheduledDate      *time.Time
	Currency           valueobject.Currency
	TaxRate            decimal.Decimal
	SubtotalNet        decimal.Decimal
	TaxAmount          decimal.Decimal
	TotalGross         decimal.Decimal
	DiscountPercentage *decimal.Decimal
	DiscountAmount     *decimal.Decimal
	DiscountApplied    decimal.Decimal
	Items              []InvoiceItem
	CreatedBy          uuid.UUID
}

// NewInvoice creates a draft invoice with no items
func NewInvoice(invoiceNumber string, invoiceType InvoiceType, recipientName string, invoiceDate, dueDate time.Time, taxRate decimal.Decimal, createdBy uuid.UUID) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invoice number cannot be empty")
	}
	if !invoiceType.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "Invalid invoice type: %s", invoiceType)
	}
	if recipientName == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Recipient name cannot be empty")
	}
	if dueDate.Before(invoiceDate) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Due date must not be before invoice date")
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Tax rate cannot be negative")
	}

	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		Type:              invoiceType,
		Status:            InvoiceStatusDraft,
		RecipientName:     recipientName,
		InvoiceDate:       invoiceDate,
		DueDate:           dueDate,
		Currency:          valueobject.DefaultCurrency,
		TaxRate:           taxRate,
		CreatedBy:         createdBy,
	}, nil
}

// canModifyItems reports whether the item list may still change
func (inv *Invoice) canModifyItems() bool {
	return inv.Status == InvoiceStatusDraft || inv.Status == InvoiceStatusApproved
}

// AddItem appends a line to the invoice and derives its monetary fields. The
// item inherits the invoice tax rate and receives the next position.
func (inv *Invoice) AddItem(serviceRecordID *uuid.UUID, description string, quantity decimal.Decimal, unit string, unitPrice, discountAmount decimal.Decimal, periodStart, periodEnd *time.Time) (*InvoiceItem, error) {
	if !inv.canModifyItems() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidState,
			"Invoice %s items cannot be modified in status %s", inv.ID, inv.Status)
	}
	if quantity.IsNegative() || quantity.IsZero() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Item quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Item unit price cannot be negative")
	}
	if discountAmount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Item discount cannot be negative")
	}

	item := InvoiceItem{
		BaseEntity:         shared.NewBaseEntity(),
		InvoiceID:          inv.ID,
		Position:           len(inv.Items) + 1,
		ServiceRecordID:    serviceRecordID,
		Description:        description,
		Quantity:           quantity,
		Unit:               unit,
		UnitPrice:          unitPrice,
		DiscountAmount:     discountAmount,
		TaxRate:            inv.TaxRate,
		ServicePeriodStart: periodStart,
		ServicePeriodEnd:   periodEnd,
	}
	item.CalculateAll()
	inv.Items = append(inv.Items, item)
	inv.Touch()
	return &inv.Items[len(inv.Items)-1], nil
}

// RemoveItem deletes a line and renumbers the remaining positions so they
// stay contiguous from 1
func (inv *Invoice) RemoveItem(itemID uuid.UUID) error {
	if !inv.canModifyItems() {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Invoice %s items cannot be modified in status %s", inv.ID, inv.Status)
	}
	for i := range inv.Items {
		if inv.Items[i].ID == itemID {
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
			for j := range inv.Items {
				inv.Items[j].Position = j + 1
			}
			inv.Touch()
			return nil
		}
	}
	return shared.NewDomainErrorf(shared.CodeNotFound, "Invoice item not found: %s", itemID)
}

// SetDiscount configures the invoice level discount. When both a percentage
// and an absolute amount are set the absolute amount wins at recalculation.
func (inv *Invoice) SetDiscount(percentage, amount *decimal.Decimal) error {
	if !inv.canModifyItems() {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Invoice %s cannot be modified in status %s", inv.ID, inv.Status)
	}
	if percentage != nil && percentage.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Discount percentage cannot be negative")
	}
	if amount != nil && amount.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Discount amount cannot be negative")
	}
	inv.DiscountPercentage = percentage
	inv.DiscountAmount = amount
	inv.Touch()
	return nil
}

// RecalculateTotals derives the invoice totals fresh from the current item
// list. Item subtotals are summed, the invoice level discount is applied,
// then tax is computed from the invoice tax rate on the discounted net so
// cross-item tax rounding cannot drift. Safe to call repeatedly.
func (inv *Invoice) RecalculateTotals() error {
	if !inv.canModifyItems() {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Invoice %s totals cannot be recalculated in status %s", inv.ID, inv.Status)
	}

	sum := valueobject.ZeroEUR()
	for i := range inv.Items {
		inv.Items[i].CalculateAll()
		sum = sum.MustAdd(valueobject.NewMoneyEUR(inv.Items[i].SubtotalNet))
	}

	var absolute *valueobject.Money
	if inv.DiscountAmount != nil {
		m := valueobject.NewMoneyEUR(*inv.DiscountAmount)
		absolute = &m
	}
	discount, net := sum.ApplyDiscount(inv.DiscountPercentage, absolute)
	tax, gross := net.NetPlusTax(inv.TaxRate)

	inv.DiscountApplied = discount.Amount()
	inv.SubtotalNet = net.Amount()
	inv.TaxAmount = tax.Amount()
	inv.TotalGross = gross.Amount()
	inv.Touch()
	return nil
}

// TransitionTo moves the invoice to the target status if the transition
// table allows it
func (inv *Invoice) TransitionTo(target InvoiceStatus) error {
	if !target.IsValid() {
		return shared.NewDomainErrorf(shared.CodeValidation, "Invalid invoice status: %s", target)
	}
	if !inv.Status.CanTransitionTo(target) {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Invoice %s cannot transition from %s to %s", inv.ID, inv.Status, target)
	}
	inv.Status = target
	inv.Touch()
	return nil
}

// Approve releases a draft invoice
func (inv *Invoice) Approve() error {
	return inv.TransitionTo(InvoiceStatusApproved)
}

// Send marks the invoice as delivered to the recipient
func (inv *Invoice) Send() error {
	return inv.TransitionTo(InvoiceStatusSent)
}

// MarkPaid settles the invoice
func (inv *Invoice) MarkPaid() error {
	return inv.TransitionTo(InvoiceStatusPaid)
}

// Cancel voids the invoice. Paid invoices cannot be cancelled.
func (inv *Invoice) Cancel() error {
	return inv.TransitionTo(InvoiceStatusCancelled)
}

// IsOverdueAsOf reports whether the invoice is sent and past due at the
// given instant
func (inv *Invoice) IsOverdueAsOf(now time.Time) bool {
	return inv.Status == InvoiceStatusSent && now.After(inv.DueDate)
}
