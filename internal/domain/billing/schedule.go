package billing

import (
	"fmt"
	"time"

	"github.com/econtract/backend/internal/domain/contract"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/econtract/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MaxScheduledInvoices caps schedule expansion so malformed cycle data can
// never generate an unbounded run.
const MaxScheduledInvoices = 100

// DefaultHorizonYears bounds schedule generation for open-ended contracts.
const DefaultHorizonYears = 2

// GenerateSchedule expands a contract's billing configuration into scheduled
// invoices, one per billing period from the billing start date up to the
// contract end date. Open-ended contracts are bounded to a two year horizon.
// A contract without billing cycle or billing start date yields an empty
// schedule, not an error.
func GenerateSchedule(c *contract.Contract) ([]*Invoice, error) {
	if !c.HasBillingConfiguration() {
		return nil, nil
	}

	cycle := *c.BillingCycle
	amount := decimal.Zero
	if c.BillingAmount != nil {
		amount = *c.BillingAmount
	}

	start := *c.BillingStartDate
	end := start.AddDate(DefaultHorizonYears, 0, 0)
	if c.EndDate != nil {
		end = *c.EndDate
	}

	paymentTermDays := c.PaymentTermDays
	if paymentTermDays <= 0 {
		paymentTermDays = contract.DefaultPaymentTermDays
	}

	var invoices []*Invoice
	current := start
	for !current.After(end) && len(invoices) < MaxScheduledInvoices {
		inv, err := newScheduledInvoice(c, cycle, amount, current, paymentTermDays, len(invoices)+1)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)

		next, done := cycle.Next(current)
		if done {
			break
		}
		current = next
	}
	return invoices, nil
}

func newScheduledInvoice(c *contract.Contract, cycle contract.BillingCycle, amount decimal.Decimal, periodStart time.Time, paymentTermDays, seq int) (*Invoice, error) {
	if amount.IsNegative() {
		return nil, shared.NewDomainErrorf(shared.CodeValidation,
			"Contract %s billing amount cannot be negative", c.ID)
	}

	contractID := c.ID
	scheduled := periodStart
	periodEnd := cycle.PeriodEnd(periodStart)
	net := valueobject.NewMoneyEUR(amount).RoundHalfUp()
	tax, gross := net.NetPlusTax(DefaultTaxRatePct)

	return &Invoice{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		InvoiceNumber:      fmt.Sprintf("%s-INV-%03d", c.ContractNumber, seq),
		Type:               InvoiceTypeSingle,
		Status:             InvoiceStatusScheduled,
		ContractID:         &contractID,
		RecipientName:      c.PartnerName,
		InvoiceDate:        periodStart,
		BillingPeriodStart: &periodStart,
		BillingPeriodEnd:   &periodEnd,
		DueDate:            periodStart.AddDate(0, 0, paymentTermDays),
		ScheduledDate:      &scheduled,
		Currency:           c.Currency,
		TaxRate:            DefaultTaxRatePct,
		SubtotalNet:        net.Amount(),
		TaxAmount:          tax.Amount(),
		TotalGross:         gross.Amount(),
		CreatedBy:          c.OwnerUserID,
	}, nil
}
