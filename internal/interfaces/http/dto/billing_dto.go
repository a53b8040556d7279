package dto

import (
	"time"

	"github.com/econtract/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceRecordResponse is the API representation of a service record
type ServiceRecordResponse struct {
	ID            uuid.UUID       `json:"id"`
	ContractID    uuid.UUID       `json:"contract_id"`
	ServiceDate   time.Time       `json:"service_date"`
	Category      string          `json:"category"`
	Description   string          `json:"description,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	InvoiceItemID *uuid.UUID      `json:"invoice_item_id,omitempty"`
	InvoicedDate  *time.Time      `json:"invoiced_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InvoiceItemResponse is the API representation of an invoice line item
type InvoiceItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Position           int             `json:"position"`
	ServiceRecordID    *uuid.UUID      `json:"service_record_id,omitempty"`
	Description        string          `json:"description"`
	Quantity           decimal.Decimal `json:"quantity"`
	Unit               string          `json:"unit,omitempty"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	SubtotalNet        decimal.Decimal `json:"subtotal_net"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	TotalGross         decimal.Decimal `json:"total_gross"`
	ServicePeriodStart *time.Time      `json:"service_period_start,omitempty"`
	ServicePeriodEnd   *time.Time      `json:"service_period_end,omitempty"`
}

// InvoiceResponse is the API representation of an invoice. Overdue is
// derived from status and due date at response time, never stored.
type InvoiceResponse struct {
	ID                 uuid.UUID             `json:"id"`
	InvoiceNumber      string                `json:"invoice_number"`
	Type               string                `json:"type"`
	Status             string                `json:"status"`
	Overdue            bool                  `json:"overdue"`
	ContractID         *uuid.UUID            `json:"contract_id,omitempty"`
	RecipientName      string                `json:"recipient_name"`
	RecipientAddress   string                `json:"recipient_address,omitempty"`
	InvoiceDate        time.Time             `json:"invoice_date"`
	BillingPeriodStart *time.Time            `json:"billing_period_start,omitempty"`
	BillingPeriodEnd   *time.Time            `json:"billing_period_end,omitempty"`
	DueDate            time.Time             `json:"due_date"`
	ScheduledDate      *time.Time            `json:"scheduled_date,omitempty"`
	Currency           string                `json:"currency"`
	TaxRate            decimal.Decimal       `json:"tax_rate"`
	SubtotalNet        decimal.Decimal       `json:"subtotal_net"`
	TaxAmount          decimal.Decimal       `json:"tax_amount"`
	TotalGross         decimal.Decimal       `json:"total_gross"`
	DiscountPercentage *decimal.Decimal      `json:"discount_percentage,omitempty"`
	DiscountAmount     *decimal.Decimal      `json:"discount_amount,omitempty"`
	DiscountApplied    decimal.Decimal       `json:"discount_applied"`
	Items              []InvoiceItemResponse `json:"items"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// FromServiceRecord maps a service record aggregate
func FromServiceRecord(r *billing.ServiceRecord) ServiceRecordResponse {
	return ServiceRecordResponse{
		ID:            r.ID,
		ContractID:    r.ContractID,
		ServiceDate:   r.ServiceDate,
		Category:      r.Category,
		Description:   r.Description,
		Quantity:      r.Quantity,
		Unit:          r.Unit,
		UnitPrice:     r.UnitPrice,
		Total:         r.Total,
		Currency:      string(r.Currency),
		Status:        string(r.Status),
		InvoiceItemID: r.InvoiceItemID,
		InvoicedDate:  r.InvoicedDate,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// FromServiceRecords maps a slice of service records
func FromServiceRecords(records []*billing.ServiceRecord) []ServiceRecordResponse {
	out := make([]ServiceRecordResponse, len(records))
	for i, r := range records {
		out[i] = FromServiceRecord(r)
	}
	return out
}

// FromInvoice maps an invoice aggregate, deriving the overdue flag as of now
func FromInvoice(inv *billing.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = InvoiceItemResponse{
			ID:                 it.ID,
			Position:           it.Position,
			ServiceRecordID:    it.ServiceRecordID,
			Description:        it.Description,
			Quantity:           it.Quantity,
			Unit:               it.Unit,
			UnitPrice:          it.UnitPrice,
			DiscountAmount:     it.DiscountAmount,
			TaxRate:            it.TaxRate,
			SubtotalNet:        it.SubtotalNet,
			TaxAmount:          it.TaxAmount,
			TotalGross:         it.TotalGross,
			ServicePeriodStart: it.ServicePeriodStart,
			ServicePeriodEnd:   it.ServicePeriodEnd,
		}
	}
	return InvoiceResponse{
		ID:                 inv.ID,
		InvoiceNumber:      inv.InvoiceNumber,
		Type:               string(inv.Type),
		Status:             string(inv.Status),
		Overdue:            inv.IsOverdueAsOf(time.Now()),
		ContractID:         inv.ContractID,
		RecipientName:      inv.RecipientName,
		RecipientAddress:   inv.RecipientAddress,
		InvoiceDate:        inv.InvoiceDate,
		BillingPeriodStart: inv.BillingPeriodStart,
		BillingPeriodEnd:   inv.BillingPeriodEnd,
		DueDate:            inv.DueDate,
		ScheduledDate:      inv.ScheduledDate,
		Currency:           string(inv.Currency),
		TaxRate:            inv.TaxRate,
		SubtotalNet:        inv.SubtotalNet,
		TaxAmount:          inv.TaxAmount,
		TotalGross:         inv.TotalGross,
		DiscountPercentage: inv.DiscountPercentage,
		DiscountAmount:     inv.DiscountAmount,
		DiscountApplied:    inv.DiscountApplied,
		Items:              items,
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
	}
}

// FromInvoices maps a slice of invoices
func FromInvoices(invoices []*billing.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		out[i] = FromInvoice(inv)
	}
	return out
}
